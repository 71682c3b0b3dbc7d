package models

import "encoding/json"

// Evaluation reasons.
const (
	ReasonStatic         = "STATIC"
	ReasonTargetingMatch = "TARGETING_MATCH"
	ReasonSplit          = "SPLIT"
	ReasonDefault        = "DEFAULT"
	ReasonError          = "ERROR"
)

// Evaluation error codes. These ride inside the result rather than being
// returned as errors, so every read path still yields a usable value.
const (
	ErrCodeFlagNotFound = "FLAG_NOT_FOUND"
	ErrCodeTypeMismatch = "TYPE_MISMATCH"
)

// EvaluatedFlag is the outcome of resolving one flag for one context.
// A disabled outcome always carries a null Value.
type EvaluatedFlag struct {
	FlagKey      string                 `json:"flagKey"`
	Enabled      bool                   `json:"enabled"`
	Value        json.RawMessage        `json:"value,omitempty"`
	Variant      string                 `json:"variant,omitempty"`
	Reason       string                 `json:"reason"`
	ErrorCode    string                 `json:"errorCode,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ResolutionDetails wraps a typed value with the evaluation metadata that
// produced it.
type ResolutionDetails[T any] struct {
	Value        T
	Variant      string
	Reason       string
	ErrorCode    string
	ErrorMessage string
	Metadata     map[string]interface{}
}

// EvaluateRequest is the body of a remote per-flag evaluation.
type EvaluateRequest struct {
	FlagKey      string            `json:"flagKey,omitempty"`
	IdentityID   string            `json:"identityId,omitempty"`
	Context      EvaluationContext `json:"context,omitempty"`
	DefaultValue json.RawMessage   `json:"defaultValue,omitempty"`
}

// SnapshotRequest is the body of a remote all-flags evaluation.
type SnapshotRequest struct {
	IdentityID string            `json:"identityId,omitempty"`
	Context    EvaluationContext `json:"context,omitempty"`
}

type SnapshotResponse struct {
	Flags []EvaluatedFlag `json:"flags"`
}
