package form

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/validation"
)

const composerFixture = `{
	"title": "Team member",
	"properties": {
		"name": {"type": "string", "minLength": 2},
		"salary": {"type": "number", "x-jsf-presentation": {"inputType": "money"}},
		"address": {
			"type": "object",
			"properties": {"city": {"type": "string"}},
			"required": ["city"]
		}
	},
	"required": ["name"],
	"x-jsf-order": ["name", "salary", "address"]
}`

func newComposer(t *testing.T, options ...ComposerOption) *Composer {
	t.Helper()
	doc := jsf.MustNewDocument(jsf.SourceFromFile("composer.json"), []byte(composerFixture))
	interp, err := interpreter.New(context.Background(), doc)
	if err != nil {
		t.Fatalf("interpreter.New() error = %v", err)
	}
	composer, err := NewComposer(interp, options...)
	if err != nil {
		t.Fatalf("NewComposer() error = %v", err)
	}
	t.Cleanup(composer.Close)
	return composer
}

func TestComposerSetValueCasts(t *testing.T) {
	composer := newComposer(t)

	if err := composer.SetValue("salary", "50000"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if value, _ := composer.State().Value("salary"); value != float64(50000) {
		t.Fatalf("salary = %v (%T), want cast float64", value, value)
	}

	if err := composer.SetValue("address.city", "Porto"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if value, _ := composer.State().Value("address.city"); value != "Porto" {
		t.Fatalf("address.city = %v", value)
	}
}

func TestComposerSubmitValidatesFully(t *testing.T) {
	composer := newComposer(t)

	values, result, err := composer.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Valid || values != nil {
		t.Fatal("submit with missing required name should fail validation")
	}
	if _, ok := result.Errors["name"]; !ok {
		t.Fatalf("errors = %v", result.Errors)
	}
	if _, ok := result.Errors["address.city"]; !ok {
		t.Fatalf("scoped fieldset error missing: %v", result.Errors)
	}

	composer.SetValue("name", "Ada")
	composer.SetValue("address.city", "Porto")
	// Wait out the debounced revalidation triggered by post-submit edits.
	time.Sleep(20 * time.Millisecond)

	values, result, err = composer.Submit()
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Valid {
		t.Fatalf("errors = %v", result.Errors)
	}
	if values["name"] != "Ada" {
		t.Fatalf("values = %v", values)
	}
}

func TestComposerDebouncedRevalidation(t *testing.T) {
	var validations atomic.Int32
	composer := newComposer(t,
		WithDebounce(15*time.Millisecond),
		WithOnValidate(func(validation.Result) { validations.Add(1) }),
	)

	// Before any submit, edits do not revalidate.
	composer.SetValue("name", "A")
	time.Sleep(40 * time.Millisecond)
	if got := validations.Load(); got != 0 {
		t.Fatalf("validations before submit = %d, want 0", got)
	}

	composer.Submit()

	// A burst of edits after the first submit collapses into one pass.
	composer.SetValue("name", "Ad")
	composer.SetValue("name", "Ada")
	composer.SetValue("name", "Ada L")
	time.Sleep(60 * time.Millisecond)
	if got := validations.Load(); got != 1 {
		t.Fatalf("validations after burst = %d, want 1", got)
	}
}

func TestComposerToggleAndComposeMeta(t *testing.T) {
	composer := newComposer(t)

	if !composer.Toggle("address") {
		t.Fatal("first toggle should collapse")
	}
	form, err := composer.Compose()
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	address, _ := form.Field("address")
	if collapsed, _ := address.Meta["collapsed"].(bool); !collapsed {
		t.Fatal("address should carry collapsed meta")
	}

	if composer.Toggle("address") {
		t.Fatal("second toggle should expand")
	}
}

func TestComposerCollapseStateField(t *testing.T) {
	fixture := `{
		"properties": {
			"show_address": {"type": "boolean", "x-jsf-presentation": {"inputType": "hidden"}},
			"address": {
				"type": "object",
				"properties": {"city": {"type": "string"}},
				"x-jsf-presentation": {
					"meta": {"stateField": "show_address", "defaultExpanded": false}
				}
			}
		}
	}`
	doc := jsf.MustNewDocument(jsf.SourceFromFile("collapse.json"), []byte(fixture))
	interp, err := interpreter.New(context.Background(), doc)
	if err != nil {
		t.Fatalf("interpreter.New() error = %v", err)
	}
	composer, err := NewComposer(interp)
	if err != nil {
		t.Fatalf("NewComposer() error = %v", err)
	}
	t.Cleanup(composer.Close)

	// The defaultExpanded hint decides the initial state.
	if !composer.Collapsed("address") {
		t.Fatal("address should start collapsed")
	}

	// The backing form value drives the flag directly.
	composer.State().SetValue("show_address", true)
	if composer.Collapsed("address") {
		t.Fatal("setting the state field should expand the fieldset")
	}

	// Toggling writes back through the state field instead of composer state.
	if !composer.Toggle("address") {
		t.Fatal("toggle should collapse again")
	}
	if value, _ := composer.State().Value("show_address"); value != false {
		t.Fatalf("show_address = %v, want false after toggle", value)
	}

	form, err := composer.Compose()
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	address, _ := form.Field("address")
	if collapsed, _ := address.Meta["collapsed"].(bool); !collapsed {
		t.Fatal("composed meta should carry the collapsed flag")
	}
}

func TestComposerCollapseDefaultExpandedHint(t *testing.T) {
	fixture := `{
		"properties": {
			"perks": {
				"type": "object",
				"properties": {"gym": {"type": "string"}},
				"x-jsf-presentation": {"meta": {"defaultExpanded": false}}
			}
		}
	}`
	doc := jsf.MustNewDocument(jsf.SourceFromFile("collapse.json"), []byte(fixture))
	interp, err := interpreter.New(context.Background(), doc)
	if err != nil {
		t.Fatalf("interpreter.New() error = %v", err)
	}
	composer, err := NewComposer(interp)
	if err != nil {
		t.Fatalf("NewComposer() error = %v", err)
	}
	t.Cleanup(composer.Close)

	if !composer.Collapsed("perks") {
		t.Fatal("perks should start collapsed when defaultExpanded is false")
	}
	if composer.Toggle("perks") {
		t.Fatal("toggle should expand")
	}
	if composer.Collapsed("perks") {
		t.Fatal("perks should stay expanded after toggle")
	}
}

func TestComposerDynamicProps(t *testing.T) {
	composer := newComposer(t, WithDynamicProps(func(field model.Field, values map[string]any) map[string]any {
		if field.Name == "salary" {
			return map[string]any{"currency": "EUR"}
		}
		return nil
	}))

	form, err := composer.Compose()
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	salary, _ := form.Field("salary")
	if salary.Meta["currency"] != "EUR" {
		t.Fatalf("salary meta = %v", salary.Meta)
	}
}
