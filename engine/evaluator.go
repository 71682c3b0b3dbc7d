package engine

import (
	"fmt"
	"sort"

	"github.com/scr2em/kitbase-go/models"
)

// SegmentResolver looks up segments referenced by flag rules.
type SegmentResolver interface {
	SegmentByKey(key string) (*models.Segment, bool)
}

// Evaluator resolves flag outcomes from targeting rules, audience segments
// and percentage rollouts. It holds no mutable state of its own; two
// evaluators sharing the same configuration produce identical results.
type Evaluator struct {
	segments SegmentResolver
}

func NewEvaluator(segments SegmentResolver) *Evaluator {
	return &Evaluator{segments: segments}
}

// NotFound is the canonical outcome for an unknown flag key.
func NotFound(flagKey string) models.EvaluatedFlag {
	return models.EvaluatedFlag{
		FlagKey:      flagKey,
		Enabled:      false,
		Reason:       models.ReasonError,
		ErrorCode:    models.ErrCodeFlagNotFound,
		ErrorMessage: fmt.Sprintf("flag %q not found", flagKey),
	}
}

// Evaluate resolves one flag against the context.
// Algorithm:
//  1. Walk rules by ascending priority (stable for equal priorities)
//  2. For each rule, resolve its segment and/or rollout gate; both must
//     pass when both are present
//  3. First rule whose gates pass wins; a disabled outcome carries no value
//  4. No match → the flag's default enabled/value with reason DEFAULT
func (e *Evaluator) Evaluate(flag *models.Flag, ctx models.EvaluationContext) models.EvaluatedFlag {
	resp := models.EvaluatedFlag{FlagKey: flag.Key}

	rules := make([]models.Rule, len(flag.Rules))
	copy(rules, flag.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	targetingKey := ctx.TargetingKey()

	for i := range rules {
		rule := &rules[i]
		matched, reason := e.ruleMatches(flag.Key, rule, ctx, targetingKey)
		if !matched {
			continue
		}
		resp.Enabled = rule.Enabled
		resp.Reason = reason
		if rule.Enabled {
			resp.Value = rule.Value
		}
		return resp
	}

	resp.Enabled = flag.DefaultEnabled
	resp.Reason = models.ReasonDefault
	if flag.DefaultEnabled {
		resp.Value = flag.DefaultValue
	}
	return resp
}

// ruleMatches resolves a rule's gates and the reason a match would carry.
func (e *Evaluator) ruleMatches(flagKey string, rule *models.Rule, ctx models.EvaluationContext, targetingKey string) (bool, string) {
	hasSegment := rule.SegmentKey != ""
	hasRollout := rule.RolloutPercentage != nil

	if hasSegment {
		seg, ok := e.segments.SegmentByKey(rule.SegmentKey)
		if !ok {
			// A dangling segment reference never matches.
			return false, ""
		}
		if !MatchesSegment(seg, ctx) {
			return false, ""
		}
	}

	if hasRollout {
		// The rollout gate needs a stable identity to bucket on.
		if targetingKey == "" {
			return false, ""
		}
		if !InRollout(flagKey, targetingKey, *rule.RolloutPercentage) {
			return false, ""
		}
	}

	switch {
	case hasSegment:
		return true, models.ReasonTargetingMatch
	case hasRollout:
		return true, models.ReasonSplit
	default:
		return true, models.ReasonStatic
	}
}

// EvaluateAll resolves every flag in key order.
func (e *Evaluator) EvaluateAll(flags []models.Flag, ctx models.EvaluationContext) []models.EvaluatedFlag {
	sorted := make([]models.Flag, len(flags))
	copy(sorted, flags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	results := make([]models.EvaluatedFlag, 0, len(sorted))
	for i := range sorted {
		results = append(results, e.Evaluate(&sorted[i], ctx))
	}
	return results
}
