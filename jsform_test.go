package jsform

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/renderers/tui"
)

const facadeFixture = `{
	"title": "Employment details",
	"properties": {
		"contract_type": {
			"type": "string",
			"oneOf": [
				{"const": "employee", "title": "Employee"},
				{"const": "contractor", "title": "Contractor"}
			]
		},
		"salary": {"type": "number", "x-jsf-presentation": {"inputType": "money"}}
	},
	"required": ["contract_type"],
	"x-jsf-order": ["contract_type", "salary"],
	"allOf": [
		{
			"if": {"properties": {"contract_type": {"const": "employee"}}, "required": ["contract_type"]},
			"then": {"required": ["salary"]},
			"else": {"properties": {"salary": false}}
		}
	]
}`

func facadeDocument(t *testing.T) jsf.Document {
	t.Helper()
	doc, err := jsf.NewDocument(jsf.SourceFromFile("fixture.json"), []byte(facadeFixture))
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return doc
}

func TestGenerateHTMLFromDocument(t *testing.T) {
	doc := facadeDocument(t)

	out, err := GenerateHTMLFromDocument(context.Background(), doc, map[string]any{
		"contract_type": "employee",
	})
	if err != nil {
		t.Fatalf("GenerateHTMLFromDocument: %v", err)
	}

	html := string(out)
	if !strings.Contains(html, "Employment details") {
		t.Fatalf("title missing:\n%s", html)
	}
	if !strings.Contains(html, "name=\"salary\"") {
		t.Fatalf("conditional field missing:\n%s", html)
	}
}

func TestGenerateHidesConditionalBranch(t *testing.T) {
	doc := facadeDocument(t)

	out, err := GenerateHTMLFromDocument(context.Background(), doc, map[string]any{
		"contract_type": "contractor",
	})
	if err != nil {
		t.Fatalf("GenerateHTMLFromDocument: %v", err)
	}
	if strings.Contains(string(out), "name=\"salary\"") {
		t.Fatalf("hidden field rendered:\n%s", out)
	}
}

func TestGeneratorRegistersExtraRenderers(t *testing.T) {
	extra, err := tui.New()
	if err != nil {
		t.Fatalf("tui.New: %v", err)
	}
	gen, err := New(WithRenderer(extra))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	names := gen.Renderers().List()
	want := []string{"html", "tui"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("renderers = %v, want %v", names, want)
	}
}

func TestGenerateRequiresSourceOrDocument(t *testing.T) {
	gen, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := gen.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for missing source")
	}
}
