package sanitizer

import (
	"errors"
	"fmt"
	"strings"
)

// Engine names accepted by NewCleaner.
const (
	EngineBleach     = "bleach"
	EngineBluemonday = "bluemonday"
)

// ErrUnknownEngine is returned by NewCleaner for an unrecognized engine name.
var ErrUnknownEngine = errors.New("sanitizer: unknown engine")

// Cleaner applies a Policy to a piece of HTML.
type Cleaner interface {
	Clean(text string, p Policy) (string, error)
}

// CleanerFunc adapts a function to the Cleaner interface.
type CleanerFunc func(text string, p Policy) (string, error)

// Clean calls f(text, p).
func (f CleanerFunc) Clean(text string, p Policy) (string, error) { return f(text, p) }

// Default is the Cleaner used when callers pass nil.
var Default Cleaner = BleachCleaner{}

// NewCleaner returns the Cleaner registered under engine. An empty name
// selects the bleach-compatible engine.
func NewCleaner(engine string) (Cleaner, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineBleach:
		return BleachCleaner{}, nil
	case EngineBluemonday:
		return NewBluemondayCleaner(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Or returns c, or Default when c is nil.
func Or(c Cleaner) Cleaner {
	if c == nil {
		return Default
	}
	return c
}

// Clean runs the Default cleaner.
func Clean(text string, p Policy) (string, error) {
	return Default.Clean(text, p)
}
