package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model. Multiple files are merged in order.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Converter is the bridge between module exports, which are held as
// cty.Value, and the native Go values used by Go-defined modules.
type Converter interface {
	// ToCtyValue converts a native Go value (like a map[string]any returned by
	// a Go module) into its equivalent cty.Value.
	ToCtyValue(v any) (cty.Value, error)

	// FromCtyValue decodes a cty.Value into the Go value pointed to by target.
	FromCtyValue(val cty.Value, target any) error
}
