// Package html renders interpreted forms to HTML using pongo2 templates. The
// builtin templates are embedded; callers can point the engine at their own
// directory or override individual field components per render call.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/render"
)

// Option configures the renderer.
type Option func(*Renderer)

// WithEngine replaces the template engine. The default engine serves the
// embedded templates.
func WithEngine(engine *Engine) Option {
	return func(r *Renderer) {
		r.engine = engine
	}
}

// WithFieldRegistry replaces the component registry.
func WithFieldRegistry(registry *render.FieldRegistry) Option {
	return func(r *Renderer) {
		r.registry = registry
	}
}

// Renderer produces an HTML document fragment for a form. It implements
// render.Renderer.
type Renderer struct {
	engine   *Engine
	registry *render.FieldRegistry
}

// NewRenderer builds a renderer backed by the embedded templates unless
// options say otherwise.
func NewRenderer(options ...Option) (*Renderer, error) {
	r := &Renderer{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}

	if r.engine == nil {
		templates, err := fs.Sub(TemplatesFS(), "templates")
		if err != nil {
			return nil, fmt.Errorf("html: open embedded templates: %w", err)
		}
		engine, err := NewEngine(WithTemplateFS(templates))
		if err != nil {
			return nil, err
		}
		r.engine = engine
	}
	if r.registry == nil {
		r.registry = render.NewFieldRegistry(Components(r.engine))
	}
	return r, nil
}

// Name implements render.Renderer.
func (r *Renderer) Name() string { return "html" }

// ContentType implements render.Renderer.
func (r *Renderer) ContentType() string { return "text/html; charset=utf-8" }

// Render walks the form's visible fields and dispatches each to its
// component. Fieldsets are rendered inline with their children nested inside.
func (r *Renderer) Render(ctx context.Context, form model.Form, options render.RenderOptions) ([]byte, error) {
	entries, err := r.renderFields(ctx, form.VisibleFields(), "", options)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"title":       form.Title,
		"description": form.Description,
		"entries":     entries,
	}
	if options.Theme != nil {
		data["theme_name"] = options.Theme.Theme
		data["theme_style"] = themeStyle(options.Theme.CSSVars)
	}

	out, err := r.engine.RenderTemplate("form", data)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func (r *Renderer) renderFields(ctx context.Context, fieldList []model.Field, prefix string, options render.RenderOptions) ([]string, error) {
	entries := make([]string, 0, len(fieldList))
	for _, field := range fieldList {
		if field.IsFieldset() {
			entry, err := r.renderFieldset(ctx, field, prefix, options)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
			continue
		}

		path := joinPath(prefix, field.Name)
		component, err := r.registry.Resolve(field, options.FieldComponents)
		if err != nil {
			return nil, err
		}

		// Components see the full dotted path so nested controls post their
		// values where the state store expects them.
		addressed := field
		addressed.Name = path
		rendered, err := component.Render(ctx, addressed, options.StateFor(path))
		if err != nil {
			return nil, fmt.Errorf("html: render field %q: %w", path, err)
		}
		entries = append(entries, string(rendered))
	}
	return entries, nil
}

func (r *Renderer) renderFieldset(ctx context.Context, field model.Field, prefix string, options render.RenderOptions) (string, error) {
	childPrefix := prefix
	if field.Scoped() {
		childPrefix = joinPath(prefix, field.Name)
	}
	children, err := r.renderFields(ctx, field.Fields, childPrefix, options)
	if err != nil {
		return "", err
	}

	collapsed := false
	if value, ok := field.Meta["collapsed"].(bool); ok {
		collapsed = value
	}
	return r.engine.RenderTemplate("components/fieldset", map[string]any{
		"name":        joinPath(prefix, field.Name),
		"label":       field.Label,
		"description": field.Description,
		"collapsed":   collapsed,
		"entries":     children,
	})
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func themeStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+": "+vars[key])
	}
	return strings.Join(pairs, "; ")
}
