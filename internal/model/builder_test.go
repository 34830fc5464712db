package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildJSON(t *testing.T, raw string) Form {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	form, err := New(Options{}).Build(payload)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return form
}

func TestBuildOrdering(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"zeta": {"type": "string"},
			"alpha": {"type": "string"},
			"mid": {"type": "string"}
		},
		"required": ["alpha"],
		"x-jsf-order": ["mid", "alpha"]
	}`)

	var names []string
	for _, field := range form.Fields {
		names = append(names, field.Name)
	}
	want := []string{"mid", "alpha", "zeta"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	alpha, _ := form.Field("alpha")
	if !alpha.Required {
		t.Fatal("alpha should be required")
	}
	if _, ok := alpha.Rule(RuleRequired); !ok {
		t.Fatal("alpha missing required rule")
	}
}

func TestBuildInputTypes(t *testing.T) {
	cases := []struct {
		name   string
		schema string
		want   FieldType
	}{
		{
			name:   "explicit presentation",
			schema: `{"type": "string", "x-jsf-presentation": {"inputType": "money"}}`,
			want:   FieldTypeMoney,
		},
		{
			name:   "boolean derives checkbox",
			schema: `{"type": "boolean"}`,
			want:   FieldTypeCheckbox,
		},
		{
			name:   "email format",
			schema: `{"type": "string", "format": "email"}`,
			want:   FieldTypeEmail,
		},
		{
			name:   "oneOf derives select",
			schema: `{"type": "string", "oneOf": [{"const": "a", "title": "A"}]}`,
			want:   FieldTypeSelect,
		},
		{
			name:   "object derives fieldset",
			schema: `{"type": "object", "properties": {}}`,
			want:   FieldTypeFieldset,
		},
		{
			name:   "array derives multi-select",
			schema: `{"type": "array", "items": {"anyOf": [{"const": "x"}]}}`,
			want:   FieldTypeMultiSelect,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := buildJSON(t, `{"properties": {"field": `+tc.schema+`}}`)
			if got := form.Fields[0].Type; got != tc.want {
				t.Fatalf("field type = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildUnknownInputType(t *testing.T) {
	var payload map[string]any
	raw := `{"properties": {"x": {"x-jsf-presentation": {"inputType": "hologram"}}}}`
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	_, err := New(Options{}).Build(payload)
	if err == nil || !strings.Contains(err.Error(), "unknown input type") {
		t.Fatalf("Build() error = %v, want unknown input type", err)
	}
}

func TestBuildOptionsAndLabels(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"contract_type": {
				"type": "string",
				"oneOf": [
					{"const": "full", "title": "Full time"},
					{"const": "part", "title": "Part time", "disabled": true},
					{"const": null, "title": "None"}
				]
			}
		}
	}`)

	field := form.Fields[0]
	if field.Label != "Contract Type" {
		t.Fatalf("derived label = %q, want Contract Type", field.Label)
	}
	want := []Option{
		{Value: "full", Label: "Full time"},
		{Value: "part", Label: "Part time", Disabled: true},
	}
	if diff := cmp.Diff(want, field.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMultiSelectOptionsFromItems(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"benefits": {
				"type": "array",
				"items": {"anyOf": [
					{"const": "health", "title": "Health"},
					{"const": "dental", "title": "Dental"}
				]}
			}
		}
	}`)

	field := form.Fields[0]
	if len(field.Options) != 2 || field.Options[0].Value != "health" {
		t.Fatalf("multi-select options = %+v", field.Options)
	}
}

func TestBuildMultipleCheckbox(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"benefits": {
				"type": "array",
				"x-jsf-presentation": {"inputType": "checkbox"},
				"items": {"anyOf": [
					{"const": "health", "title": "Health"},
					{"const": "dental", "title": "Dental"}
				]}
			},
			"regions": {
				"type": "string",
				"x-jsf-presentation": {"inputType": "select", "multiple": true},
				"oneOf": [{"const": "emea", "title": "EMEA"}]
			}
		}
	}`)

	benefits, _ := form.Field("benefits")
	if benefits.Type != FieldTypeCheckbox || !benefits.Multiple {
		t.Fatalf("benefits type = %q multiple = %v, want checkbox group", benefits.Type, benefits.Multiple)
	}
	if len(benefits.Options) != 2 || benefits.Options[1].Value != "dental" {
		t.Fatalf("checkbox group options = %+v", benefits.Options)
	}

	// A select with the multiple flag is promoted to a multi-select instead.
	regions, _ := form.Field("regions")
	if regions.Type != FieldTypeMultiSelect || regions.Multiple {
		t.Fatalf("regions type = %q multiple = %v, want multi-select", regions.Type, regions.Multiple)
	}
}

func TestBuildCountriesRegions(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"country": {
				"type": "string",
				"x-jsf-presentation": {
					"inputType": "countries",
					"meta": {"regions": {"Europe": ["PRT", "ESP"]}}
				},
				"oneOf": [
					{"const": "PRT", "title": "Portugal"},
					{"const": "ESP", "title": "Spain"},
					{"const": "BRA", "title": "Brazil"}
				]
			}
		}
	}`)

	field := form.Fields[0]
	if len(field.Groups) != 2 {
		t.Fatalf("groups = %+v, want Europe plus Other", field.Groups)
	}
	if field.Groups[0].Label != "Europe" || len(field.Groups[0].Options) != 2 {
		t.Fatalf("Europe group = %+v", field.Groups[0])
	}
	if field.Groups[1].Label != "Other" || field.Groups[1].Options[0].Value != "BRA" {
		t.Fatalf("Other group = %+v", field.Groups[1])
	}
}

func TestBuildValidationRules(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"username": {
				"type": "string",
				"minLength": 3,
				"maxLength": 20,
				"pattern": "^[a-z]+$",
				"x-jsf-errorMessage": {"minLength": "Too short"}
			},
			"start_date": {
				"type": "string",
				"format": "date",
				"x-jsf-presentation": {"inputType": "date", "minDate": "2026-01-01"}
			},
			"contract": {
				"type": "string",
				"x-jsf-presentation": {
					"inputType": "file",
					"maxFileSize": 20480,
					"accept": ".pdf,.png"
				}
			}
		},
		"required": ["username"]
	}`)

	username, _ := form.Field("username")
	minLen, ok := username.Rule(RuleMinLength)
	if !ok || minLen.Params["value"] != "3" || minLen.Message != "Too short" {
		t.Fatalf("minLength rule = %+v", minLen)
	}
	if _, ok := username.Rule(RuleRequired); !ok {
		t.Fatal("username missing required rule")
	}
	pattern, _ := username.Rule(RulePattern)
	if pattern.Params["pattern"] != "^[a-z]+$" {
		t.Fatalf("pattern rule = %+v", pattern)
	}

	start, _ := form.Field("start_date")
	minDate, ok := start.Rule(RuleMinDate)
	if !ok || minDate.Params["value"] != "2026-01-01" {
		t.Fatalf("minDate rule = %+v", minDate)
	}

	contract, _ := form.Field("contract")
	size, ok := contract.Rule(RuleMaxFileSize)
	if !ok || size.Params["value"] != "20480" {
		t.Fatalf("maxFileSize rule = %+v", size)
	}
	accept, _ := contract.Rule(RuleAccept)
	if accept.Params["value"] != ".pdf,.png" {
		t.Fatalf("accept rule = %+v", accept)
	}
}

func TestBuildFieldsetAndStatement(t *testing.T) {
	form := buildJSON(t, `{
		"properties": {
			"address": {
				"type": "object",
				"title": "Address",
				"properties": {
					"city": {"type": "string"},
					"zip": {"type": "string"}
				},
				"required": ["city"],
				"x-jsf-order": ["zip", "city"],
				"x-jsf-presentation": {
					"statement": {"title": "Heads up", "description": "Used for payroll", "severity": "warning"}
				}
			}
		}
	}`)

	address := form.Fields[0]
	if address.Type != FieldTypeFieldset || !address.Scoped() {
		t.Fatalf("address type = %q", address.Type)
	}
	if address.Statement == nil || address.Statement.Severity != "warning" {
		t.Fatalf("statement = %+v", address.Statement)
	}
	if len(address.Fields) != 2 || address.Fields[0].Name != "zip" {
		t.Fatalf("fieldset children = %+v", address.Fields)
	}
	if !address.Fields[1].Required {
		t.Fatal("city should be required inside fieldset")
	}
}

func TestFindFieldThroughFlatFieldset(t *testing.T) {
	form := Form{Fields: []Field{
		{
			Name: "perks",
			Type: FieldTypeFieldsetFlat,
			Fields: []Field{
				{Name: "meal_allowance", Type: FieldTypeNumber},
			},
		},
	}}
	if _, ok := form.Field("meal_allowance"); !ok {
		t.Fatal("flat fieldset child should be reachable by name")
	}
}

func TestDefaultLabel(t *testing.T) {
	cases := map[string]string{
		"contract_type":   "Contract Type",
		"start-date":      "Start Date",
		"salary":          "Salary",
		"":                "",
		"home.country":    "Home Country",
	}
	for in, want := range cases {
		if got := DefaultLabel(in); got != want {
			t.Fatalf("DefaultLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
