package openapi

import (
	"context"
	"strings"
	"testing"
)

const specFixture = `{
	"openapi": "3.0.3",
	"info": {"title": "Employment API", "version": "1.0.0"},
	"paths": {
		"/employees": {
			"post": {
				"operationId": "createEmployee",
				"requestBody": {
					"content": {
						"application/json": {
							"schema": {
								"type": "object",
								"properties": {
									"full_name": {"type": "string", "title": "Full name"},
									"salary": {
										"type": "number",
										"x-jsf-presentation": {"inputType": "money"}
									}
								},
								"required": ["full_name"],
								"x-jsf-order": ["full_name", "salary"]
							}
						}
					}
				},
				"responses": {"201": {"description": "created"}}
			},
			"get": {
				"operationId": "listEmployees",
				"responses": {"200": {"description": "ok"}}
			}
		}
	}
}`

func TestExtractRequestSchemas(t *testing.T) {
	extractor := New(Options{})

	sources, err := extractor.Extract(context.Background(), []byte(specFixture))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("expected one form source, got %d: %v", len(sources), sources)
	}

	source, ok := sources["createEmployee"]
	if !ok {
		t.Fatalf("createEmployee missing: %v", sources)
	}
	if source.Method != "POST" || source.Path != "/employees" {
		t.Fatalf("operation metadata = %s %s", source.Method, source.Path)
	}

	payload := source.Document.Payload()
	order, ok := payload["x-jsf-order"].([]any)
	if !ok || len(order) != 2 || order[0] != "full_name" {
		t.Fatalf("x-jsf-order not preserved: %v", payload["x-jsf-order"])
	}
	properties, _ := payload["properties"].(map[string]any)
	if _, ok := properties["salary"]; !ok {
		t.Fatalf("properties not preserved: %v", payload)
	}
}

func TestExtractRejectsEmptyAndPathless(t *testing.T) {
	extractor := New(Options{})

	if _, err := extractor.Extract(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty payload")
	}

	_, err := extractor.Extract(context.Background(), []byte(`{"openapi": "3.0.3", "info": {"title": "x", "version": "1"}, "paths": {}}`))
	if err == nil || !strings.Contains(err.Error(), "paths") {
		t.Fatalf("expected paths error, got %v", err)
	}
}
