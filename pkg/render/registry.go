package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-jsform/pkg/model"
)

// Registry stores renderers by name, providing discovery and duplication
// safeguards. Implementations can embed or wrap this for dependency injection.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer by its Name(). Duplicate names return an error.
func (r *Registry) Register(renderer Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name := renderer.Name()
	if name == "" {
		return fmt.Errorf("render: renderer name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}

	r.renderers[name] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(renderer Renderer) {
	if err := r.Register(renderer); err != nil {
		panic(err)
	}
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// List returns a sorted list of renderer names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a renderer is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}

// FieldRegistry maps field types onto components. Resolution applies three
// tiers: per-call overrides, then components registered on the instance, then
// the builtin set supplied at construction.
type FieldRegistry struct {
	mu         sync.RWMutex
	components map[model.FieldType]FieldComponent
	builtin    map[model.FieldType]FieldComponent
}

// NewFieldRegistry creates a registry seeded with builtin components.
func NewFieldRegistry(builtin map[model.FieldType]FieldComponent) *FieldRegistry {
	seeded := make(map[model.FieldType]FieldComponent, len(builtin))
	for fieldType, component := range builtin {
		seeded[fieldType] = component
	}
	return &FieldRegistry{
		components: make(map[model.FieldType]FieldComponent),
		builtin:    seeded,
	}
}

// Register binds a component to a field type, replacing any previous binding
// on this registry. Builtins are left untouched.
func (r *FieldRegistry) Register(fieldType model.FieldType, component FieldComponent) error {
	if fieldType == "" {
		return fmt.Errorf("render: field type is required")
	}
	if component == nil {
		return fmt.Errorf("render: component is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.components[fieldType] = component
	return nil
}

// MustRegister panics on registration failure.
func (r *FieldRegistry) MustRegister(fieldType model.FieldType, component FieldComponent) {
	if err := r.Register(fieldType, component); err != nil {
		panic(err)
	}
}

// Resolve picks the component for a field. Per-call overrides win over
// registered components, which win over builtins. A field type nobody can
// serve is a configuration error.
func (r *FieldRegistry) Resolve(field model.Field, overrides map[model.FieldType]FieldComponent) (FieldComponent, error) {
	if component, ok := overrides[field.Type]; ok && component != nil {
		return component, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if component, ok := r.components[field.Type]; ok {
		return component, nil
	}
	if component, ok := r.builtin[field.Type]; ok {
		return component, nil
	}
	return nil, &ConfigError{Field: field.Name, Type: field.Type}
}

// Types returns the sorted union of registered and builtin field types.
func (r *FieldRegistry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[model.FieldType]struct{}, len(r.components)+len(r.builtin))
	for fieldType := range r.components {
		seen[fieldType] = struct{}{}
	}
	for fieldType := range r.builtin {
		seen[fieldType] = struct{}{}
	}

	out := make([]model.FieldType, 0, len(seen))
	for fieldType := range seen {
		out = append(out, fieldType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
