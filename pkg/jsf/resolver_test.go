package jsf

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resolveJSON(t *testing.T, raw string) (map[string]any, error) {
	t.Helper()
	doc := MustNewDocument(SourceFromFile("inline.json"), []byte(raw))
	return NewResolver(nil, ResolveOptions{}).Resolve(context.Background(), doc)
}

func TestResolveInternalRef(t *testing.T) {
	raw := `{
		"$defs": {"money": {"type": "number", "minimum": 0}},
		"properties": {
			"salary": {"$ref": "#/$defs/money", "title": "Annual salary"}
		}
	}`
	resolved, err := resolveJSON(t, raw)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	salary := resolved["properties"].(map[string]any)["salary"].(map[string]any)
	want := map[string]any{"type": "number", "minimum": float64(0), "title": "Annual salary"}
	if diff := cmp.Diff(want, salary); diff != "" {
		t.Fatalf("salary mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAnchorRef(t *testing.T) {
	raw := `{
		"$defs": {"country": {"$anchor": "country", "type": "string"}},
		"properties": {"home": {"$ref": "#country"}}
	}`
	resolved, err := resolveJSON(t, raw)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	home := resolved["properties"].(map[string]any)["home"].(map[string]any)
	if home["type"] != "string" {
		t.Fatalf("home.type = %v, want string", home["type"])
	}
}

func TestResolveRefCycle(t *testing.T) {
	raw := `{
		"$defs": {
			"a": {"$ref": "#/$defs/b"},
			"b": {"$ref": "#/$defs/a"}
		},
		"properties": {"x": {"$ref": "#/$defs/a"}}
	}`
	_, err := resolveJSON(t, raw)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("Resolve() error = %v, want cycle error", err)
	}
}

func TestResolveMissingPointer(t *testing.T) {
	_, err := resolveJSON(t, `{"properties": {"x": {"$ref": "#/$defs/nothing"}}}`)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("Resolve() error = %v, want not-found error", err)
	}
}

func TestResolveHTTPRefsDisabledByDefault(t *testing.T) {
	doc := MustNewDocument(SourceFromFile("inline.json"),
		[]byte(`{"properties": {"x": {"$ref": "https://example.com/schema.json#/x"}}}`))
	_, err := NewResolver(NewLoader(), ResolveOptions{}).Resolve(context.Background(), doc)
	if err == nil || !strings.Contains(err.Error(), "http refs disabled") {
		t.Fatalf("Resolve() error = %v, want http-disabled error", err)
	}
}

func TestResolvePointerEscapes(t *testing.T) {
	root := map[string]any{
		"a/b": map[string]any{"~odd": "value"},
	}
	got, err := resolvePointer(root, "/a~1b/~0odd")
	if err != nil {
		t.Fatalf("resolvePointer() error = %v", err)
	}
	if got != "value" {
		t.Fatalf("resolvePointer() = %v, want value", got)
	}
}
