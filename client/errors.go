package client

import (
	"errors"
	"fmt"

	"github.com/scr2em/kitbase-go/models"
)

// ErrClientClosed is returned by any operation after Close.
var ErrClientClosed = errors.New("client: closed")

// ValidationError signals caller misuse: a missing credential, base URL or
// flag key.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// TypeMismatchError means an accessor's requested type does not match the
// flag's declared value type. It signals a caller/configuration contract
// violation, unlike FLAG_NOT_FOUND which rides inside the result.
type TypeMismatchError struct {
	FlagKey   string
	Requested models.FlagType
	Declared  models.FlagType
}

func (e *TypeMismatchError) Error() string {
	if e.Declared != "" {
		return fmt.Sprintf("type mismatch: flag %q is declared %s, requested as %s",
			e.FlagKey, e.Declared, e.Requested)
	}
	return fmt.Sprintf("type mismatch: flag %q value is not %s", e.FlagKey, e.Requested)
}

// IsTypeMismatch reports whether err is a type-mismatch failure.
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}
