package client

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/scr2em/kitbase-go/engine"
	"github.com/scr2em/kitbase-go/models"
)

// Cache request kinds.
const (
	kindEvaluate = "evaluate"
	kindSnapshot = "snapshot"
)

// BooleanValue resolves a boolean flag, falling back to defaultValue for
// unknown or disabled flags.
func (c *Client) BooleanValue(ctx context.Context, flagKey string, defaultValue bool, ectx models.EvaluationContext) (bool, error) {
	det, err := c.BooleanValueDetails(ctx, flagKey, defaultValue, ectx)
	return det.Value, err
}

// BooleanValueDetails is BooleanValue plus the resolution metadata.
func (c *Client) BooleanValueDetails(ctx context.Context, flagKey string, defaultValue bool, ectx models.EvaluationContext) (models.ResolutionDetails[bool], error) {
	return resolveValue(c, ctx, models.FlagTypeBoolean, flagKey, defaultValue, ectx)
}

func (c *Client) StringValue(ctx context.Context, flagKey string, defaultValue string, ectx models.EvaluationContext) (string, error) {
	det, err := c.StringValueDetails(ctx, flagKey, defaultValue, ectx)
	return det.Value, err
}

func (c *Client) StringValueDetails(ctx context.Context, flagKey string, defaultValue string, ectx models.EvaluationContext) (models.ResolutionDetails[string], error) {
	return resolveValue(c, ctx, models.FlagTypeString, flagKey, defaultValue, ectx)
}

func (c *Client) NumberValue(ctx context.Context, flagKey string, defaultValue float64, ectx models.EvaluationContext) (float64, error) {
	det, err := c.NumberValueDetails(ctx, flagKey, defaultValue, ectx)
	return det.Value, err
}

func (c *Client) NumberValueDetails(ctx context.Context, flagKey string, defaultValue float64, ectx models.EvaluationContext) (models.ResolutionDetails[float64], error) {
	return resolveValue(c, ctx, models.FlagTypeNumber, flagKey, defaultValue, ectx)
}

func (c *Client) JSONValue(ctx context.Context, flagKey string, defaultValue interface{}, ectx models.EvaluationContext) (interface{}, error) {
	det, err := c.JSONValueDetails(ctx, flagKey, defaultValue, ectx)
	return det.Value, err
}

func (c *Client) JSONValueDetails(ctx context.Context, flagKey string, defaultValue interface{}, ectx models.EvaluationContext) (models.ResolutionDetails[interface{}], error) {
	return resolveValue(c, ctx, models.FlagTypeJSON, flagKey, defaultValue, ectx)
}

// Evaluate resolves one flag without the typed-accessor contract: no
// declared-type check, raw JSON value in the result.
func (c *Client) Evaluate(ctx context.Context, flagKey string, ectx models.EvaluationContext) (models.EvaluatedFlag, error) {
	if c.State() == StateClosed {
		return models.EvaluatedFlag{}, ErrClientClosed
	}
	if flagKey == "" {
		return models.EvaluatedFlag{}, &ValidationError{Message: "flag key is required"}
	}
	ev, err := c.evaluateRaw(ctx, "", flagKey, nil, ectx)
	if err != nil {
		return models.EvaluatedFlag{}, err
	}
	return *ev, nil
}

// Snapshot evaluates every known flag for one context.
func (c *Client) Snapshot(ctx context.Context, ectx models.EvaluationContext) ([]models.EvaluatedFlag, error) {
	if c.State() == StateClosed {
		return nil, ErrClientClosed
	}

	if c.mode == ModeLocal {
		if err := c.ensureReady(ctx); err != nil {
			return nil, err
		}
		return c.evaluator.EvaluateAll(c.store.Flags(), ectx), nil
	}

	key := cacheKey(kindSnapshot, "", ectx.TargetingKey())
	if raw, ok := c.cache.get(key); ok {
		var flags []models.EvaluatedFlag
		if err := json.Unmarshal(raw, &flags); err == nil {
			return flags, nil
		}
	}

	flags, err := c.transport.Snapshot(ctx, models.SnapshotRequest{
		IdentityID: ectx.TargetingKey(),
		Context:    ectx,
	})
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(flags); err == nil {
		c.cache.set(key, raw)
		c.savePersistedCache(ctx, false)
	}
	return flags, nil
}

// resolveValue runs one typed evaluation. A type mismatch is an error; an
// unknown or disabled flag is not: it yields the caller's default with the
// reason and error code preserved for observability.
func resolveValue[T any](c *Client, ctx context.Context, requested models.FlagType, flagKey string, defaultValue T, ectx models.EvaluationContext) (models.ResolutionDetails[T], error) {
	det := models.ResolutionDetails[T]{Value: defaultValue}

	if c.State() == StateClosed {
		return det, ErrClientClosed
	}
	if flagKey == "" {
		return det, &ValidationError{Message: "flag key is required"}
	}

	defaultRaw, _ := json.Marshal(defaultValue)
	ev, err := c.evaluateRaw(ctx, requested, flagKey, defaultRaw, ectx)
	if err != nil {
		return det, err
	}

	det.Variant = ev.Variant
	det.Reason = ev.Reason
	det.ErrorCode = ev.ErrorCode
	det.ErrorMessage = ev.ErrorMessage
	det.Metadata = ev.Metadata

	if ev.ErrorCode != "" || !ev.Enabled || isNullValue(ev.Value) {
		return det, nil
	}

	var v T
	if err := json.Unmarshal(ev.Value, &v); err != nil {
		return det, &TypeMismatchError{FlagKey: flagKey, Requested: requested}
	}
	det.Value = v
	return det, nil
}

// evaluateRaw resolves a flag in the active mode. requested may be "" to
// skip the declared-type check (raw evaluation).
func (c *Client) evaluateRaw(ctx context.Context, requested models.FlagType, flagKey string, defaultValue json.RawMessage, ectx models.EvaluationContext) (*models.EvaluatedFlag, error) {
	if c.mode == ModeLocal {
		if err := c.ensureReady(ctx); err != nil {
			return nil, err
		}
		flag, ok := c.store.FlagByKey(flagKey)
		if !ok {
			ev := engine.NotFound(flagKey)
			return &ev, nil
		}
		if requested != "" && flag.Type != requested {
			return nil, &TypeMismatchError{FlagKey: flagKey, Requested: requested, Declared: flag.Type}
		}
		ev := c.evaluator.Evaluate(flag, ectx)
		return &ev, nil
	}

	key := cacheKey(kindEvaluate, flagKey, ectx.TargetingKey())
	if raw, ok := c.cache.get(key); ok {
		var ev models.EvaluatedFlag
		if err := json.Unmarshal(raw, &ev); err == nil {
			return &ev, nil
		}
	}

	ev, err := c.transport.Evaluate(ctx, models.EvaluateRequest{
		FlagKey:      flagKey,
		IdentityID:   ectx.TargetingKey(),
		Context:      ectx,
		DefaultValue: defaultValue,
	})
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(ev); err == nil {
		c.cache.set(key, raw)
		c.savePersistedCache(ctx, false)
	}
	return ev, nil
}

func isNullValue(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
