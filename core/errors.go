package core

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced chat or project that does not exist. Callers
// detect it with errors.Is after store-level wrapping.
var ErrNotFound = errors.New("not found")

// ModelError reports a failed language-model call (network, auth, quota or a
// malformed provider response). It aborts the remaining steps of a pipeline
// run; messages committed earlier in the same run stay persisted.
type ModelError struct {
	Provider string
	Model    string
	Err      error
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s/%s: %v", e.Provider, e.Model, e.Err)
}

// Unwrap exposes the underlying provider error for errors.Is/As chains.
func (e *ModelError) Unwrap() error { return e.Err }
