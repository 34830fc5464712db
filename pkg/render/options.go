package render

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-jsform/pkg/model"
)

// RenderOptions describe per-request data renderers consume without mutating
// the interpretation pipeline.
type RenderOptions struct {
	// Values pre-populates rendered controls using dotted field paths.
	Values map[string]any
	// Errors surfaces validation feedback keyed by field path. Each field may
	// carry several messages; renderers show the first.
	Errors map[string][]string
	// Touched marks fields the user has interacted with, so renderers can
	// withhold error chrome on pristine inputs.
	Touched map[string]bool
	// FieldComponents overrides components per field type for this render
	// call only. They take precedence over registry contents and builtins.
	FieldComponents map[model.FieldType]FieldComponent
	// Theme configures visual chrome for renderers that support theming.
	Theme *theme.RendererConfig
}

// ValueFor reads the value for a dotted field path.
func (o RenderOptions) ValueFor(path string) any {
	if len(o.Values) == 0 {
		return nil
	}
	if value, ok := o.Values[path]; ok {
		return value
	}
	return nil
}

// StateFor assembles the field state for a path.
func (o RenderOptions) StateFor(path string) FieldState {
	state := FieldState{
		Value:   o.ValueFor(path),
		Touched: o.Touched[path],
	}
	if msgs := o.Errors[path]; len(msgs) > 0 {
		state.Error = msgs[0]
	}
	return state
}
