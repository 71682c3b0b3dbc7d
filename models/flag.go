package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

type FlagType string

const (
	FlagTypeBoolean FlagType = "boolean"
	FlagTypeString  FlagType = "string"
	FlagTypeNumber  FlagType = "number"
	FlagTypeJSON    FlagType = "json"
)

// Configuration is a full rule set for one environment. It is replaced
// wholesale on every successful sync and never patched in place; the ETag
// identifies the version.
type Configuration struct {
	EnvironmentID string    `json:"environmentId"`
	SchemaVersion int       `json:"schemaVersion"`
	GeneratedAt   time.Time `json:"generatedAt"`
	ETag          string    `json:"etag"`
	Flags         []Flag    `json:"flags"`
	Segments      []Segment `json:"segments"`
}

type Flag struct {
	Key            string          `json:"key"`
	Type           FlagType        `json:"valueType"`
	Description    string          `json:"description,omitempty"`
	DefaultEnabled bool            `json:"defaultEnabled"`
	DefaultValue   json.RawMessage `json:"defaultValue,omitempty"`
	Rules          []Rule          `json:"rules,omitempty"`
}

// Rule is a single targeting rule. A rule may gate on a segment, a rollout
// percentage, both, or neither. When both gates are present they are ANDed:
// the segment narrows the audience and the rollout samples within it.
type Rule struct {
	Priority          int             `json:"priority"`
	SegmentKey        string          `json:"segmentKey,omitempty"`
	RolloutPercentage *int            `json:"rolloutPercentage,omitempty"`
	Enabled           bool            `json:"enabled"`
	Value             json.RawMessage `json:"value,omitempty"`
}

var keyRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}[a-z0-9]$`)

func ValidateFlag(f *Flag) error {
	if !keyRegex.MatchString(f.Key) {
		return fmt.Errorf("key must match %s", keyRegex.String())
	}
	switch f.Type {
	case FlagTypeBoolean, FlagTypeString, FlagTypeNumber, FlagTypeJSON:
	default:
		return fmt.Errorf("invalid flag type: %q", f.Type)
	}
	if len(f.DefaultValue) > 0 {
		if err := ValidateValueForType(f.Type, f.DefaultValue); err != nil {
			return fmt.Errorf("defaultValue: %w", err)
		}
	}
	for i := range f.Rules {
		if err := ValidateRule(f.Type, &f.Rules[i]); err != nil {
			return fmt.Errorf("rule[%d]: %w", i, err)
		}
	}
	return nil
}

func ValidateRule(ft FlagType, r *Rule) error {
	if r.RolloutPercentage != nil {
		if p := *r.RolloutPercentage; p < 0 || p > 100 {
			return fmt.Errorf("rolloutPercentage must be 0-100, got %d", p)
		}
	}
	if r.Enabled && len(r.Value) > 0 {
		if err := ValidateValueForType(ft, r.Value); err != nil {
			return fmt.Errorf("value: %w", err)
		}
	}
	return nil
}

func ValidateValueForType(ft FlagType, raw json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	switch ft {
	case FlagTypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("expected boolean value")
		}
	case FlagTypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("expected string value")
		}
	case FlagTypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("expected number value")
		}
	case FlagTypeJSON:
		// any valid JSON is fine
	}
	return nil
}

// ValidateConfiguration rejects malformed payloads before they reach the
// store, so a bad deploy can never poison local evaluation.
func ValidateConfiguration(c *Configuration) error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	seen := make(map[string]bool, len(c.Flags))
	for i := range c.Flags {
		f := &c.Flags[i]
		if seen[f.Key] {
			return fmt.Errorf("flag[%d]: duplicate key %q", i, f.Key)
		}
		seen[f.Key] = true
		if err := ValidateFlag(f); err != nil {
			return fmt.Errorf("flag %q: %w", f.Key, err)
		}
	}
	for i := range c.Segments {
		if err := ValidateSegment(&c.Segments[i]); err != nil {
			return fmt.Errorf("segment %q: %w", c.Segments[i].Key, err)
		}
	}
	return nil
}
