package transport

import (
	"errors"
	"fmt"
)

// AuthenticationError means the credential was rejected by the server.
type AuthenticationError struct {
	Body string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: credential rejected"
}

// APIError is any other non-success response, carrying status and raw body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
}

// TimeoutError means the per-request deadline was exceeded.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: deadline exceeded", e.Op)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// IsAuthentication reports whether err is a credential rejection.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsTimeout reports whether err is a deadline-exceeded failure.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
