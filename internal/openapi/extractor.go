// Package openapi extracts form schemas from OpenAPI documents. Operations
// whose request bodies carry JSON schemas become form documents, with the
// x-jsf-* extension keys preserved verbatim.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-jsform/pkg/jsf"
)

// Options tune extraction behaviour.
type Options struct {
	// AllowExternalRefs lets the loader follow references outside the
	// document. Off by default.
	AllowExternalRefs bool
	// Validate runs structural validation on the document before extraction.
	Validate bool
}

// FormSource is one extracted form: the operation it came from plus the
// parsed schema document.
type FormSource struct {
	OperationID string
	Method      string
	Path        string
	Document    jsf.Document
}

// Extractor turns OpenAPI documents into form sources keyed by operation id.
type Extractor struct {
	options Options
}

// New constructs an Extractor.
func New(options Options) *Extractor {
	return &Extractor{options: options}
}

// Extract loads the document and returns a form source for every operation
// with a JSON request body schema.
func (e *Extractor) Extract(ctx context.Context, raw []byte) (map[string]FormSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: e.options.AllowExternalRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if e.options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate document: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	sources := make(map[string]FormSource)
	for path, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range operationsFor(item) {
			if err := e.collect(sources, method, path, operation); err != nil {
				return nil, err
			}
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("openapi: no form schemas extracted")
	}
	return sources, nil
}

func operationsFor(item *openapi3.PathItem) map[string]*openapi3.Operation {
	return map[string]*openapi3.Operation{
		"POST":  item.Post,
		"PUT":   item.Put,
		"PATCH": item.Patch,
	}
}

func (e *Extractor) collect(target map[string]FormSource, method, path string, operation *openapi3.Operation) error {
	if operation == nil {
		return nil
	}
	schema := requestSchema(operation.RequestBody)
	if schema == nil || schema.Value == nil {
		return nil
	}

	opID := operation.OperationID
	if opID == "" {
		opID = strings.ToLower(method) + ":" + path
	}

	payload, err := schema.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("openapi: marshal schema for %q: %w", opID, err)
	}
	doc, err := jsf.NewDocument(jsf.SourceFromFile(opID), payload)
	if err != nil {
		return fmt.Errorf("openapi: parse schema for %q: %w", opID, err)
	}

	target[opID] = FormSource{
		OperationID: opID,
		Method:      method,
		Path:        path,
		Document:    doc,
	}
	return nil
}

func requestSchema(requestBody *openapi3.RequestBodyRef) *openapi3.SchemaRef {
	if requestBody == nil || requestBody.Value == nil {
		return nil
	}
	content := requestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}
