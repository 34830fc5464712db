// Package testsupport carries helpers shared by the module's test suites:
// fixture loading, golden files and document construction.
package testsupport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/model"
)

// LoadDocument reads a schema fixture and builds a jsf.Document with a file
// source. Helpers fail the test on error to keep contract tests concise.
func LoadDocument(t *testing.T, path string) jsf.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T, so
// callers can wire fixtures in setup functions.
func LoadDocumentFromPath(path string) (jsf.Document, error) {
	if path == "" {
		return jsf.Document{}, errors.New("testsupport: document path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return jsf.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := jsf.NewDocument(jsf.SourceFromFile(path), data)
	if err != nil {
		return jsf.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// DocumentFromString builds a Document from inline schema text.
func DocumentFromString(t *testing.T, raw string) jsf.Document {
	t.Helper()

	doc, err := jsf.NewDocument(jsf.SourceFromFile("inline.json"), []byte(raw))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return doc
}

// MustLoadForm loads a JSON golden file into a Form structure.
func MustLoadForm(t *testing.T, path string) model.Form {
	t.Helper()

	form, err := LoadForm(path)
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	return form
}

// LoadForm reads a JSON fixture into a Form, returning an error for callers
// managing setup outside of *testing.T.
func LoadForm(path string) (model.Form, error) {
	if path == "" {
		return model.Form{}, errors.New("testsupport: form path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Form{}, fmt.Errorf("testsupport: read form: %w", err)
	}
	var out model.Form
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Form{}, fmt.Errorf("testsupport: unmarshal form: %w", err)
	}
	return out, nil
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is
// set in the environment.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
