// Package render defines the renderer contracts and the dispatch registries
// that map interpreted forms onto concrete output surfaces.
package render

import (
	"context"

	"github.com/goliatone/go-jsform/pkg/model"
)

// Renderer converts an interpreted form into a byte representation (HTML,
// terminal output, etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.Form, options RenderOptions) ([]byte, error)
}

// FieldComponent renders a single field kind. Components receive the field
// descriptor plus its current state and own the markup for that input.
type FieldComponent interface {
	Render(ctx context.Context, field model.Field, state FieldState) ([]byte, error)
}

// FieldComponentFunc adapts a function to the FieldComponent interface.
type FieldComponentFunc func(ctx context.Context, field model.Field, state FieldState) ([]byte, error)

// Render implements FieldComponent.
func (f FieldComponentFunc) Render(ctx context.Context, field model.Field, state FieldState) ([]byte, error) {
	return f(ctx, field, state)
}

// FieldState is the per-request state a component renders with.
type FieldState struct {
	Value   any
	Error   string
	Touched bool
}
