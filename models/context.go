package models

import (
	"fmt"
	"strings"
)

// TargetingKeyAttribute is the reserved context attribute holding the stable
// identifier used for rollout bucketing.
const TargetingKeyAttribute = "targetingKey"

// EvaluationContext carries the targeting key plus arbitrary attributes.
// Evaluation treats it as read-only.
type EvaluationContext map[string]interface{}

// TargetingKey returns the normalized targeting key, or "" when absent.
func (c EvaluationContext) TargetingKey() string {
	v, ok := c[TargetingKeyAttribute]
	if !ok {
		return ""
	}
	s, _ := NormalizeString(v)
	return s
}

// Attribute walks a nested map using dot-separated keys.
// e.g. "user.plan" on {"user": {"plan": "pro"}} returns "pro".
func (c EvaluationContext) Attribute(field string) (interface{}, bool) {
	parts := strings.Split(field, ".")
	var current interface{} = map[string]interface{}(c)

	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// NormalizeString renders a context attribute as a string for comparison.
func NormalizeString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return fmt.Sprintf("%g", val), true
	case float32:
		return fmt.Sprintf("%g", val), true
	case int:
		return fmt.Sprintf("%d", val), true
	case int64:
		return fmt.Sprintf("%d", val), true
	case bool:
		return fmt.Sprintf("%t", val), true
	default:
		return "", false
	}
}
