package engine

import (
	"strconv"
	"strings"

	"github.com/scr2em/kitbase-go/models"
)

// conditionFunc evaluates one segment rule against a context attribute value.
// attrVal is nil when the attribute is absent from the context.
type conditionFunc func(attrVal interface{}, ruleVal string) bool

var conditionFuncs = map[models.Operator]conditionFunc{
	models.OpEquals:      opEquals,
	models.OpNotEquals:   opNotEquals,
	models.OpContains:    opContains,
	models.OpNotContains: opNotContains,
	models.OpStartsWith:  opStartsWith,
	models.OpEndsWith:    opEndsWith,
	models.OpGT:          opGT,
	models.OpGTE:         opGTE,
	models.OpLT:          opLT,
	models.OpLTE:         opLTE,
	models.OpIn:          opIn,
	models.OpNotIn:       opNotIn,
}

// MatchesSegment reports whether the context satisfies every rule of the
// segment (AND). It is pure: the context is never mutated.
func MatchesSegment(seg *models.Segment, ctx models.EvaluationContext) bool {
	for i := range seg.Rules {
		if !MatchesSegmentRule(&seg.Rules[i], ctx) {
			return false
		}
	}
	return true
}

// MatchesSegmentRule evaluates a single condition. For any operator other
// than not_exists, a missing attribute never matches.
func MatchesSegmentRule(rule *models.SegmentRule, ctx models.EvaluationContext) bool {
	attrVal, exists := ctx.Attribute(rule.Field)

	switch rule.Operator {
	case models.OpExists:
		return exists
	case models.OpNotExists:
		return !exists
	}

	if !exists {
		return false
	}

	fn, ok := conditionFuncs[rule.Operator]
	if !ok {
		return false
	}
	return fn(attrVal, rule.Value)
}

func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// --- Operator implementations ---

func opEquals(attrVal interface{}, ruleVal string) bool {
	s, ok := models.NormalizeString(attrVal)
	return ok && s == ruleVal
}

func opNotEquals(attrVal interface{}, ruleVal string) bool {
	return !opEquals(attrVal, ruleVal)
}

func opContains(attrVal interface{}, ruleVal string) bool {
	s, ok := models.NormalizeString(attrVal)
	return ok && strings.Contains(s, ruleVal)
}

func opNotContains(attrVal interface{}, ruleVal string) bool {
	return !opContains(attrVal, ruleVal)
}

func opStartsWith(attrVal interface{}, ruleVal string) bool {
	s, ok := models.NormalizeString(attrVal)
	return ok && strings.HasPrefix(s, ruleVal)
}

func opEndsWith(attrVal interface{}, ruleVal string) bool {
	s, ok := models.NormalizeString(attrVal)
	return ok && strings.HasSuffix(s, ruleVal)
}

func numericCompare(attrVal interface{}, ruleVal string) (float64, float64, bool) {
	av, ok := toFloat64(attrVal)
	if !ok {
		return 0, 0, false
	}
	rv, err := strconv.ParseFloat(strings.TrimSpace(ruleVal), 64)
	if err != nil {
		return 0, 0, false
	}
	return av, rv, true
}

func opGT(attrVal interface{}, ruleVal string) bool {
	av, rv, ok := numericCompare(attrVal, ruleVal)
	return ok && av > rv
}

func opGTE(attrVal interface{}, ruleVal string) bool {
	av, rv, ok := numericCompare(attrVal, ruleVal)
	return ok && av >= rv
}

func opLT(attrVal interface{}, ruleVal string) bool {
	av, rv, ok := numericCompare(attrVal, ruleVal)
	return ok && av < rv
}

func opLTE(attrVal interface{}, ruleVal string) bool {
	av, rv, ok := numericCompare(attrVal, ruleVal)
	return ok && av <= rv
}

func opIn(attrVal interface{}, ruleVal string) bool {
	s, ok := models.NormalizeString(attrVal)
	if !ok {
		return false
	}
	for _, item := range strings.Split(ruleVal, ",") {
		if strings.TrimSpace(item) == s {
			return true
		}
	}
	return false
}

func opNotIn(attrVal interface{}, ruleVal string) bool {
	return !opIn(attrVal, ruleVal)
}
