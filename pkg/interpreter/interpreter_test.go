package interpreter

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/model"
)

func newInterpreter(t *testing.T, raw string) *Interpreter {
	t.Helper()
	doc := jsf.MustNewDocument(jsf.SourceFromFile("fixture.json"), []byte(raw))
	it, err := New(context.Background(), doc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return it
}

const conditionalFixture = `{
	"title": "Employment details",
	"properties": {
		"contract_type": {
			"type": "string",
			"oneOf": [
				{"const": "employee", "title": "Employee"},
				{"const": "contractor", "title": "Contractor"}
			]
		},
		"salary": {"type": "number", "x-jsf-presentation": {"inputType": "money"}},
		"day_rate": {"type": "number", "x-jsf-presentation": {"inputType": "money"}}
	},
	"required": ["contract_type"],
	"x-jsf-order": ["contract_type", "salary", "day_rate"],
	"allOf": [
		{
			"if": {"properties": {"contract_type": {"const": "employee"}}, "required": ["contract_type"]},
			"then": {"required": ["salary"], "properties": {"day_rate": false}},
			"else": {"required": ["day_rate"], "properties": {"salary": false}}
		}
	]
}`

func TestInterpretConditionalBranches(t *testing.T) {
	it := newInterpreter(t, conditionalFixture)

	form, err := it.Interpret(map[string]any{"contract_type": "employee"})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	salary, _ := form.Field("salary")
	dayRate, _ := form.Field("day_rate")
	if !salary.Required || !salary.Visible {
		t.Fatalf("salary = {required: %v, visible: %v}, want required and visible", salary.Required, salary.Visible)
	}
	if dayRate.Visible {
		t.Fatal("day_rate should be hidden for employees")
	}
	if _, ok := salary.Rule(model.RuleRequired); !ok {
		t.Fatal("salary missing conditional required rule")
	}

	form, err = it.Interpret(map[string]any{"contract_type": "contractor"})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	salary, _ = form.Field("salary")
	dayRate, _ = form.Field("day_rate")
	if salary.Visible {
		t.Fatal("salary should be hidden for contractors")
	}
	if !dayRate.Required {
		t.Fatal("day_rate should be required for contractors")
	}
}

func TestInterpretElseAppliesWhenValueMissing(t *testing.T) {
	it := newInterpreter(t, conditionalFixture)

	// No contract type selected: the if clause fails its required check, so
	// the else branch applies.
	form, err := it.Interpret(map[string]any{})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	salary, _ := form.Field("salary")
	if salary.Visible {
		t.Fatal("salary should be hidden while contract_type is unset")
	}
}

func TestInterpretIsPureAndIdempotent(t *testing.T) {
	it := newInterpreter(t, conditionalFixture)
	values := map[string]any{"contract_type": "employee"}

	first, err := it.Interpret(values)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	second, err := it.Interpret(values)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated interpretation differs (-first +second):\n%s", diff)
	}

	// Mutating a returned form must not leak into later interpretations.
	first.Fields[0].Label = "mutated"
	third, err := it.Interpret(values)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if third.Fields[0].Label == "mutated" {
		t.Fatal("interpreter state leaked through returned form")
	}
}

func TestInterpretReturnedMapsAreIsolated(t *testing.T) {
	it := newInterpreter(t, `{
		"properties": {
			"start_date": {
				"type": "string",
				"x-jsf-presentation": {
					"inputType": "date",
					"meta": {"mot": 5}
				},
				"x-jsf-errorMessage": {"required": "Pick a start date"}
			}
		},
		"required": ["start_date"]
	}`)

	first, err := it.Interpret(nil)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	first.Fields[0].Meta["collapsed"] = true
	first.Fields[0].ErrorMessages["required"] = "mutated"

	second, err := it.Interpret(nil)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if _, leaked := second.Fields[0].Meta["collapsed"]; leaked {
		t.Fatal("Meta mutation on a returned form leaked into a later interpretation")
	}
	if second.Fields[0].ErrorMessages["required"] != "Pick a start date" {
		t.Fatal("ErrorMessages mutation on a returned form leaked into a later interpretation")
	}
}

func TestInterpretComputedValuesAndInterpolation(t *testing.T) {
	it := newInterpreter(t, `{
		"properties": {
			"salary": {"type": "number", "title": "Annual salary"},
			"bonus": {
				"type": "number",
				"title": "Bonus (up to {{max_bonus}})",
				"x-jsf-logic": {"computedAttrs": {"maximum": "max_bonus"}}
			}
		},
		"x-jsf-logic": {
			"computedValues": {
				"max_bonus": {"expression": "salary * 0.2", "label": "Maximum bonus"}
			}
		}
	}`)

	form, err := it.Interpret(map[string]any{"salary": float64(50000)})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	bonus, _ := form.Field("bonus")
	if bonus.Label != "Bonus (up to 10000)" {
		t.Fatalf("interpolated label = %q", bonus.Label)
	}
	if got := bonus.ComputedAttrs["maximum"]; got != float64(10000) {
		t.Fatalf("computed attr maximum = %v", got)
	}

	computed := it.ComputedValues(map[string]any{"salary": float64(1000)})
	if computed["max_bonus"] != float64(200) {
		t.Fatalf("ComputedValues() = %v", computed)
	}
}

func TestInterpretMissingInterpolationRendersEmpty(t *testing.T) {
	it := newInterpreter(t, `{
		"properties": {
			"note": {"type": "string", "title": "Note {{nothing}}"}
		}
	}`)
	form, err := it.Interpret(nil)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	if got := form.Fields[0].Label; got != "Note " {
		t.Fatalf("label = %q, want template stripped", got)
	}
}

func TestInterpretStatementSanitized(t *testing.T) {
	it := newInterpreter(t, `{
		"properties": {
			"ack": {
				"type": "boolean",
				"x-jsf-presentation": {
					"inputType": "checkbox",
					"statement": {
						"title": "Please note",
						"description": "<p>Stay safe</p><script>alert('x')</script>"
					}
				}
			}
		}
	}`)
	form, err := it.Interpret(nil)
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	st := form.Fields[0].Statement
	if st == nil {
		t.Fatal("statement missing")
	}
	if strings.Contains(st.Description, "script") {
		t.Fatalf("statement not sanitized: %q", st.Description)
	}
	if !strings.Contains(st.Description, "Stay safe") {
		t.Fatalf("statement over-sanitized: %q", st.Description)
	}
}

func TestInterpretConditionalRuleInjection(t *testing.T) {
	it := newInterpreter(t, `{
		"properties": {
			"hours": {"type": "number"},
			"reason": {"type": "string"}
		},
		"allOf": [
			{
				"if": {"properties": {"hours": {"minimum": 40}}},
				"then": {"properties": {"reason": {"minLength": 10, "title": "Overtime reason"}}}
			}
		]
	}`)

	form, err := it.Interpret(map[string]any{"hours": float64(45)})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	reason, _ := form.Field("reason")
	if reason.Label != "Overtime reason" {
		t.Fatalf("label = %q", reason.Label)
	}
	rule, ok := reason.Rule(model.RuleMinLength)
	if !ok || rule.Source != model.RuleSourceConditional || rule.Params["value"] != "10" {
		t.Fatalf("conditional rule = %+v", rule)
	}

	form, err = it.Interpret(map[string]any{"hours": float64(10)})
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}
	reason, _ = form.Field("reason")
	if _, ok := reason.Rule(model.RuleMinLength); ok {
		t.Fatal("conditional rule should be absent when condition fails")
	}
}

func TestNewRejectsMalformedDocuments(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{
			name:    "bad computed expression",
			raw:     `{"properties": {}, "x-jsf-logic": {"computedValues": {"x": {"expression": "a +"}}}}`,
			wantErr: "computed value",
		},
		{
			name:    "allOf without if",
			raw:     `{"properties": {}, "allOf": [{"then": {"required": ["x"]}}]}`,
			wantErr: "missing an if",
		},
		{
			name:    "branch requires and hides same field",
			raw:     `{"properties": {"x": {"type": "string"}}, "allOf": [{"if": {"required": ["x"]}, "then": {"required": ["x"], "properties": {"x": false}}}]}`,
			wantErr: "requires and hides",
		},
		{
			name:    "unknown input type",
			raw:     `{"properties": {"x": {"x-jsf-presentation": {"inputType": "warp"}}}}`,
			wantErr: "unknown input type",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := jsf.MustNewDocument(jsf.SourceFromFile("bad.json"), []byte(tc.raw))
			_, err := New(context.Background(), doc)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("New() error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
