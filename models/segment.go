package models

import "fmt"

type Operator string

const (
	OpEquals      Operator = "eq"
	OpNotEquals   Operator = "neq"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpGT          Operator = "gt"
	OpGTE         Operator = "gte"
	OpLT          Operator = "lt"
	OpLTE         Operator = "lte"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

var validOperators = map[Operator]bool{
	OpEquals: true, OpNotEquals: true,
	OpContains: true, OpNotContains: true,
	OpStartsWith: true, OpEndsWith: true,
	OpGT: true, OpGTE: true, OpLT: true, OpLTE: true,
	OpExists: true, OpNotExists: true,
	OpIn: true, OpNotIn: true,
}

// Segment is a named, reusable audience: an AND-combination of attribute
// conditions that flag rules can gate on.
type Segment struct {
	Key   string        `json:"key"`
	Name  string        `json:"name,omitempty"`
	Rules []SegmentRule `json:"rules"`
}

// SegmentRule is one attribute condition. For in/not_in the value is a
// comma-separated list.
type SegmentRule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
}

func ValidateSegment(s *Segment) error {
	if !keyRegex.MatchString(s.Key) {
		return fmt.Errorf("key must match %s", keyRegex.String())
	}
	for i := range s.Rules {
		if err := ValidateSegmentRule(&s.Rules[i]); err != nil {
			return fmt.Errorf("rule[%d]: %w", i, err)
		}
	}
	return nil
}

func ValidateSegmentRule(r *SegmentRule) error {
	if r.Field == "" {
		return fmt.Errorf("field is required")
	}
	if !validOperators[r.Operator] {
		return fmt.Errorf("invalid operator: %q", r.Operator)
	}
	return nil
}
