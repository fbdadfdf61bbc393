package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced project is absent.
	ErrNotFound = errors.New("not found")
	// ErrMissingCredential means no model API key is configured.
	ErrMissingCredential = errors.New("missing model credential")
	// ErrUpstream wraps any failure of the model call itself.
	ErrUpstream = errors.New("model call failed")
	// ErrShotNotFound means the named shot is not part of the project. It
	// also matches ErrNotFound.
	ErrShotNotFound = fmt.Errorf("shot %w", ErrNotFound)
)

// ShotNotFound is the per-item error text for an unknown shot id in a batch.
const ShotNotFound = "Shot not found"
