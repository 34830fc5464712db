// Package jsform turns JSON Schema form documents into interpreted forms and
// rendered output. The root package is a convenience facade over the pipeline
// packages: jsf parsing, interpretation, validation and rendering.
package jsform

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/render"
	"github.com/goliatone/go-jsform/pkg/renderers/html"
	"github.com/goliatone/go-jsform/pkg/renderers/tui"
)

// Version is the module release identifier.
const Version = "0.1.0"

// NewHTMLRenderer builds the default HTML renderer.
func NewHTMLRenderer(options ...html.Option) (*html.Renderer, error) {
	return html.NewRenderer(options...)
}

// NewTUIRenderer builds the terminal renderer.
func NewTUIRenderer(options ...tui.Option) (*tui.Renderer, error) {
	return tui.New(options...)
}

// RenderOptions describes per-request overrides renderers can use to prefill
// values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// Form is the interpreted form descriptor.
type Form = model.Form

// Field is a single interpreted input descriptor.
type Field = model.Field

// Request names the document, the value context and the renderer for one
// generation pass.
type Request struct {
	// Source locates the schema document. Ignored when Document is set.
	Source jsf.Source
	// Document supplies a pre-loaded schema, bypassing the loader.
	Document *jsf.Document
	// Values feed conditionals and computed attributes during interpretation.
	Values map[string]any
	// Renderer picks the registered renderer by name. Defaults to "html".
	Renderer string
	// Options carries per-request render state.
	Options RenderOptions
}

// Option configures a Generator.
type Option func(*Generator)

// WithLoader overrides the document loader.
func WithLoader(loader jsf.Loader) Option {
	return func(g *Generator) {
		if loader != nil {
			g.loader = loader
		}
	}
}

// WithRenderer registers an additional renderer.
func WithRenderer(renderer render.Renderer) Option {
	return func(g *Generator) {
		g.extra = append(g.extra, renderer)
	}
}

// WithInterpreterOptions forwards options to every interpreter the generator
// constructs.
func WithInterpreterOptions(options ...interpreter.Option) Option {
	return func(g *Generator) {
		g.interpOptions = append(g.interpOptions, options...)
	}
}

// Generator wires the pipeline end to end: load, interpret, render.
type Generator struct {
	loader        jsf.Loader
	renderers     *render.Registry
	extra         []render.Renderer
	interpOptions []interpreter.Option
}

// New builds a Generator with the HTML renderer registered by default.
func New(options ...Option) (*Generator, error) {
	g := &Generator{
		loader:    jsf.NewLoader(),
		renderers: render.NewRegistry(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(g)
		}
	}

	htmlRenderer, err := html.NewRenderer()
	if err != nil {
		return nil, err
	}
	if err := g.renderers.Register(htmlRenderer); err != nil {
		return nil, err
	}
	for _, renderer := range g.extra {
		if err := g.renderers.Register(renderer); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Renderers exposes the renderer registry for discovery.
func (g *Generator) Renderers() *render.Registry {
	return g.renderers
}

// Interpret loads the request's document and runs one interpretation pass.
func (g *Generator) Interpret(ctx context.Context, req Request) (model.Form, error) {
	interp, err := g.interpreter(ctx, req)
	if err != nil {
		return model.Form{}, err
	}
	return interp.Interpret(req.Values)
}

// Generate loads, interprets and renders in one call.
func (g *Generator) Generate(ctx context.Context, req Request) ([]byte, error) {
	form, err := g.Interpret(ctx, req)
	if err != nil {
		return nil, err
	}

	name := req.Renderer
	if name == "" {
		name = "html"
	}
	renderer, err := g.renderers.Get(name)
	if err != nil {
		return nil, err
	}

	options := req.Options
	if options.Values == nil {
		options.Values = req.Values
	}
	return renderer.Render(ctx, form, options)
}

func (g *Generator) interpreter(ctx context.Context, req Request) (*interpreter.Interpreter, error) {
	doc, err := g.document(ctx, req)
	if err != nil {
		return nil, err
	}
	interp, err := interpreter.New(ctx, doc, g.interpOptions...)
	if err != nil {
		return nil, fmt.Errorf("jsform: build interpreter: %w", err)
	}
	return interp, nil
}

func (g *Generator) document(ctx context.Context, req Request) (jsf.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return jsf.Document{}, errors.New("jsform: request needs a source or document")
	}
	return g.loader.Load(ctx, req.Source)
}

// GenerateHTML loads the schema, interprets it against the given values, and
// renders HTML. It is the simplest entry point for callers that just want
// markup.
func GenerateHTML(ctx context.Context, source jsf.Source, values map[string]any, options ...Option) ([]byte, error) {
	gen, err := New(options...)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, Request{Source: source, Values: values})
}

// GenerateHTMLFromDocument renders a form from a pre-loaded document,
// bypassing the loader stage.
func GenerateHTMLFromDocument(ctx context.Context, doc jsf.Document, values map[string]any, options ...Option) ([]byte, error) {
	gen, err := New(options...)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, Request{Document: &doc, Values: values})
}
