package html

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"
)

// EngineOption configures the template engine before construction.
type EngineOption func(*engineConfig)

type engineConfig struct {
	baseDir    string
	templates  fs.FS
	extension  string
	globalData map[string]any
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) EngineOption {
	return func(cfg *engineConfig) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithTemplateFS loads templates from an fs.FS.
func WithTemplateFS(files fs.FS) EngineOption {
	return func(cfg *engineConfig) {
		cfg.templates = files
	}
}

// WithExtension overrides the default template extension.
func WithExtension(ext string) EngineOption {
	return func(cfg *engineConfig) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithGlobalData seeds context values available to every template.
func WithGlobalData(data map[string]any) EngineOption {
	return func(cfg *engineConfig) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[key] = value
		}
	}
}

// WithGoTemplateOptions exists for compatibility with go-template based
// engine configuration and is currently a no-op.
func WithGoTemplateOptions(_ ...gotemplatepkg.Option) EngineOption {
	return func(*engineConfig) {}
}

// Engine renders pongo2 templates from an embedded or on-disk set, caching
// parsed templates per name.
type Engine struct {
	mu          sync.RWMutex
	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
	globalData  map[string]any
}

// NewEngine constructs an Engine from the provided options.
func NewEngine(options ...EngineOption) (*Engine, error) {
	cfg := &engineConfig{extension: ".tpl"}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("html: need a base dir or template fs")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("html: create template loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	return &Engine{
		templateSet: pongo2.NewSet("jsform", loaders...),
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
		globalData:  cfg.globalData,
	}, nil
}

// RenderTemplate executes a named template with the supplied data.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("html: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, e.tplExt) {
		path += e.tplExt
	}

	tmpl, err := e.template(path)
	if err != nil {
		return "", err
	}

	viewContext := pongo2.Context{}
	for key, value := range e.globalData {
		viewContext[key] = value
	}
	for key, value := range data {
		viewContext[key] = value
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(viewContext, &buf); err != nil {
		return "", fmt.Errorf("html: execute template %q: %w", path, err)
	}
	return buf.String(), nil
}

func (e *Engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("html: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}
