package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFlag_Keys(t *testing.T) {
	valid := []string{"ab", "new-checkout", "max_items", "a1", "feature-2b"}
	for _, key := range valid {
		f := Flag{Key: key, Type: FlagTypeBoolean}
		assert.NoError(t, ValidateFlag(&f), key)
	}

	invalid := []string{"", "a", "A-flag", "1flag", "flag-", "flag key", "flag.key"}
	for _, key := range invalid {
		f := Flag{Key: key, Type: FlagTypeBoolean}
		assert.Error(t, ValidateFlag(&f), "%q must be rejected", key)
	}
}

func TestValidateFlag_TypeAndDefaultValue(t *testing.T) {
	f := Flag{Key: "bad-type", Type: "timestamp"}
	assert.Error(t, ValidateFlag(&f))

	f = Flag{Key: "greeting", Type: FlagTypeString, DefaultValue: json.RawMessage("42")}
	assert.Error(t, ValidateFlag(&f), "a default that contradicts the declared type is rejected")

	f = Flag{Key: "greeting", Type: FlagTypeString, DefaultValue: json.RawMessage(`"hi"`)}
	assert.NoError(t, ValidateFlag(&f))

	f = Flag{Key: "layout", Type: FlagTypeJSON, DefaultValue: json.RawMessage(`{"cols":[1,2]}`)}
	assert.NoError(t, ValidateFlag(&f), "any valid JSON satisfies the json type")
}

func TestValidateRule_RolloutBounds(t *testing.T) {
	for _, p := range []int{0, 50, 100} {
		p := p
		r := Rule{RolloutPercentage: &p, Enabled: true}
		assert.NoError(t, ValidateRule(FlagTypeBoolean, &r), "%d%%", p)
	}
	for _, p := range []int{-1, 101} {
		p := p
		r := Rule{RolloutPercentage: &p}
		assert.Error(t, ValidateRule(FlagTypeBoolean, &r), "%d%%", p)
	}
}

func TestValidateConfiguration_DuplicateFlagKeys(t *testing.T) {
	cfg := &Configuration{
		Flags: []Flag{
			{Key: "greeting", Type: FlagTypeString},
			{Key: "greeting", Type: FlagTypeString},
		},
	}
	err := ValidateConfiguration(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestValidateConfiguration_Nil(t *testing.T) {
	assert.Error(t, ValidateConfiguration(nil))
}

func TestValidateSegmentRule(t *testing.T) {
	assert.Error(t, ValidateSegmentRule(&SegmentRule{Operator: OpEquals}), "field is required")
	assert.Error(t, ValidateSegmentRule(&SegmentRule{Field: "plan", Operator: "matches_regex"}))
	assert.NoError(t, ValidateSegmentRule(&SegmentRule{Field: "plan", Operator: OpIn, Value: "pro,enterprise"}))
}

func TestEvaluationContext_TargetingKey(t *testing.T) {
	assert.Equal(t, "user-1", EvaluationContext{"targetingKey": "user-1"}.TargetingKey())
	assert.Equal(t, "42", EvaluationContext{"targetingKey": 42}.TargetingKey(), "numeric keys normalize to strings")
	assert.Empty(t, EvaluationContext{}.TargetingKey())
	assert.Empty(t, EvaluationContext(nil).TargetingKey())
}

func TestEvaluationContext_NestedAttribute(t *testing.T) {
	ctx := EvaluationContext{
		"plan": "pro",
		"user": map[string]interface{}{
			"address": map[string]interface{}{"country": "DE"},
		},
	}

	v, ok := ctx.Attribute("plan")
	require.True(t, ok)
	assert.Equal(t, "pro", v)

	v, ok = ctx.Attribute("user.address.country")
	require.True(t, ok)
	assert.Equal(t, "DE", v)

	_, ok = ctx.Attribute("user.address.zip")
	assert.False(t, ok)
	_, ok = ctx.Attribute("plan.tier")
	assert.False(t, ok, "descending into a scalar never matches")
}
