package validation

import (
	"strings"
	"testing"

	"github.com/goliatone/go-jsform/pkg/model"
)

func textField(name string, rules ...model.ValidationRule) model.Field {
	return model.Field{
		Name:        name,
		Type:        model.FieldTypeText,
		Visible:     true,
		Validations: rules,
	}
}

func rule(kind string, params map[string]string) model.ValidationRule {
	return model.ValidationRule{Kind: kind, Params: params}
}

func TestValidateRequired(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		textField("name", rule(model.RuleRequired, nil)),
	}}
	r := New()

	result := r.Validate(form, map[string]any{}, ModeFull)
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if msg, _ := result.Error("name"); msg != "Required field" {
		t.Fatalf("error = %q", msg)
	}

	result = r.Validate(form, map[string]any{"name": "Ada"}, ModeFull)
	if !result.Valid {
		t.Fatalf("expected valid result, got %v", result.Errors)
	}

	// Whitespace does not satisfy required.
	result = r.Validate(form, map[string]any{"name": "   "}, ModeFull)
	if result.Valid {
		t.Fatal("whitespace should not satisfy required")
	}
}

func TestValidatePartialSkipsAbsentFields(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		textField("name", rule(model.RuleRequired, nil)),
		textField("email", rule(model.RuleFormat, map[string]string{"format": "email"})),
	}}
	r := New()

	result := r.Validate(form, map[string]any{"email": "not-an-email"}, ModePartial)
	if _, ok := result.Errors["name"]; ok {
		t.Fatal("partial mode should skip absent name")
	}
	if _, ok := result.Errors["email"]; !ok {
		t.Fatal("partial mode should validate provided email")
	}
}

func TestValidateCustomMessage(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		textField("code", model.ValidationRule{
			Kind:    model.RuleMinLength,
			Params:  map[string]string{"value": "5"},
			Message: "Code is too short",
		}),
	}}
	result := New().Validate(form, map[string]any{"code": "ab"}, ModeFull)
	if msg, _ := result.Error("code"); msg != "Code is too short" {
		t.Fatalf("error = %q", msg)
	}
}

func TestValidateCollectsAllMessages(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		textField("username",
			rule(model.RuleMinLength, map[string]string{"value": "5"}),
			rule(model.RulePattern, map[string]string{"pattern": "^[a-z]+$"}),
		),
	}}
	result := New().Validate(form, map[string]any{"username": "AB"}, ModeFull)

	msgs := result.Errors["username"]
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want one per failing rule", msgs)
	}
	if msgs[0] != "Please insert at least 5 characters" {
		t.Fatalf("first message = %q", msgs[0])
	}
	if msgs[1] != "The value does not match the expected format" {
		t.Fatalf("second message = %q", msgs[1])
	}
	if msg, ok := result.Error("username"); !ok || msg != msgs[0] {
		t.Fatalf("Error() = %q, %v", msg, ok)
	}
}

func TestValidateBounds(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "salary", Type: model.FieldTypeNumber, Visible: true,
			Validations: []model.ValidationRule{
				rule(model.RuleMinimum, map[string]string{"value": "1000"}),
				rule(model.RuleMaximum, map[string]string{"value": "100000"}),
			},
		},
	}}
	r := New()

	cases := []struct {
		value  any
		errMsg string
	}{
		{value: float64(500), errMsg: "Must be greater or equal to 1000"},
		{value: float64(200000), errMsg: "Must be smaller or equal to 100000"},
		{value: "2500", errMsg: ""},
		{value: float64(1000), errMsg: ""},
	}
	for _, tc := range cases {
		result := r.Validate(form, map[string]any{"salary": tc.value}, ModeFull)
		got, _ := result.Error("salary")
		if got != tc.errMsg {
			t.Fatalf("salary=%v: error = %q, want %q", tc.value, got, tc.errMsg)
		}
	}
}

func TestValidateInvisibleAndDeprecatedSkipped(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "hidden_req", Type: model.FieldTypeText, Visible: false,
			Validations: []model.ValidationRule{rule(model.RuleRequired, nil)},
		},
		{
			Name: "old_field", Type: model.FieldTypeText, Visible: true, Deprecated: true,
			Validations: []model.ValidationRule{rule(model.RuleRequired, nil)},
		},
	}}
	result := New().Validate(form, map[string]any{}, ModeFull)
	if !result.Valid {
		t.Fatalf("invisible and deprecated fields should not produce errors: %v", result.Errors)
	}
}

func TestValidateScopedFieldsetPaths(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "address", Type: model.FieldTypeFieldset, Visible: true,
			Fields: []model.Field{
				textField("city", rule(model.RuleRequired, nil)),
			},
		},
		{
			Name: "perks", Type: model.FieldTypeFieldsetFlat, Visible: true,
			Fields: []model.Field{
				textField("meal", rule(model.RuleRequired, nil)),
			},
		},
	}}
	result := New().Validate(form, map[string]any{
		"address": map[string]any{"city": ""},
	}, ModeFull)

	if _, ok := result.Errors["address.city"]; !ok {
		t.Fatalf("scoped fieldset error key missing: %v", result.Errors)
	}
	if _, ok := result.Errors["meal"]; !ok {
		t.Fatalf("flat fieldset child should use top-level key: %v", result.Errors)
	}
}

func TestValidateDates(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "start", Type: model.FieldTypeDate, Visible: true,
			Validations: []model.ValidationRule{
				rule(model.RuleMinDate, map[string]string{"value": "2026-03-01"}),
				rule(model.RuleMaxDate, map[string]string{"value": "2026-12-31"}),
			},
		},
	}}
	r := New()

	cases := []struct {
		value  string
		errMsg string
	}{
		{value: "2026-02-01", errMsg: "The date must be 2026-03-01 or after"},
		{value: "2027-01-15", errMsg: "The date must be 2026-12-31 or before"},
		{value: "garbage", errMsg: "Please enter a valid date"},
		{value: "2026-06-15", errMsg: ""},
	}
	for _, tc := range cases {
		result := r.Validate(form, map[string]any{"start": tc.value}, ModeFull)
		if got, _ := result.Error("start"); got != tc.errMsg {
			t.Fatalf("start=%q: error = %q, want %q", tc.value, got, tc.errMsg)
		}
	}
}

func TestValidateFileRules(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "contract", Type: model.FieldTypeFile, Visible: true,
			Validations: []model.ValidationRule{
				rule(model.RuleMaxFileSize, map[string]string{"value": "20480"}),
				rule(model.RuleAccept, map[string]string{"value": ".pdf,.png"}),
			},
		},
	}}
	r := New()

	big := model.FileValue{Name: "contract.pdf", Size: 30 << 20}
	result := r.Validate(form, map[string]any{"contract": big}, ModeFull)
	if msg, _ := result.Error("contract"); msg != "contract.pdf is too large. The file is 30 MB and the limit is 20 MB." {
		t.Fatalf("size error = %q", msg)
	}

	// Exactly at the limit passes; one byte over does not.
	exact := model.FileValue{Name: "contract.pdf", Size: 20 << 20}
	result = r.Validate(form, map[string]any{"contract": exact}, ModeFull)
	if !result.Valid {
		t.Fatalf("file at the limit rejected: %v", result.Errors)
	}
	over := model.FileValue{Name: "contract.pdf", Size: 20<<20 + 1}
	result = r.Validate(form, map[string]any{"contract": over}, ModeFull)
	if msg, _ := result.Error("contract"); !strings.Contains(msg, "contract.pdf") || !strings.Contains(msg, "20 MB") {
		t.Fatalf("boundary error = %q", msg)
	}

	wrongType := model.FileValue{Name: "contract.exe", Size: 100}
	result = r.Validate(form, map[string]any{"contract": wrongType}, ModeFull)
	if msg, _ := result.Error("contract"); msg != "Unsupported file format. The accepted formats are .pdf,.png." {
		t.Fatalf("accept error = %q", msg)
	}

	ok := model.FileValue{Name: "contract.pdf", Size: 1 << 20}
	result = r.Validate(form, map[string]any{"contract": ok}, ModeFull)
	if !result.Valid {
		t.Fatalf("valid file rejected: %v", result.Errors)
	}
}

func TestValidateMultiSelectItems(t *testing.T) {
	form := model.Form{Fields: []model.Field{
		{
			Name: "benefits", Type: model.FieldTypeMultiSelect, Visible: true,
			Validations: []model.ValidationRule{
				rule(model.RuleMinItems, map[string]string{"value": "2"}),
			},
		},
	}}
	result := New().Validate(form, map[string]any{"benefits": []any{"health"}}, ModeFull)
	if msg, _ := result.Error("benefits"); msg != "Select at least 2 options" {
		t.Fatalf("error = %q", msg)
	}
}
