package annotate

import (
	"errors"
	"fmt"
)

// ErrInvalidGlossaryKey is returned (wrapped in a *GlossaryKeyError) when a
// glossary key is empty or collides with another key under case folding.
var ErrInvalidGlossaryKey = errors.New("invalid glossary key")

// GlossaryKeyError describes the offending glossary key.
type GlossaryKeyError struct {
	Key string
	// Other is the colliding key for duplicate-under-fold errors.
	Other  string
	Reason string
}

func (e *GlossaryKeyError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("invalid glossary key %q: %s with %q", e.Key, e.Reason, e.Other)
	}
	return fmt.Sprintf("invalid glossary key %q: %s", e.Key, e.Reason)
}

func (e *GlossaryKeyError) Unwrap() error { return ErrInvalidGlossaryKey }
