package jsf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrder(t *testing.T) {
	schema := map[string]any{
		ExtOrder: []any{"name", " email ", 7, ""},
	}
	got := Order(schema)
	want := []string{"name", "email"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Order() mismatch (-want +got):\n%s", diff)
	}

	if Order(map[string]any{}) != nil {
		t.Fatal("Order() on empty schema should be nil")
	}
}

func TestPresentationHelpers(t *testing.T) {
	schema := map[string]any{
		ExtPresentation: map[string]any{
			"inputType": "countries",
			"meta": map[string]any{
				"regions": map[string]any{"Europe": []any{"PRT", "ESP"}},
			},
		},
	}

	if got := PresentationString(schema, "inputType"); got != "countries" {
		t.Fatalf("PresentationString() = %q, want countries", got)
	}
	meta := PresentationMeta(schema)
	if meta == nil {
		t.Fatal("PresentationMeta() = nil")
	}
	if _, ok := meta["regions"]; !ok {
		t.Fatal("PresentationMeta() missing regions")
	}
	if PresentationString(map[string]any{}, "inputType") != "" {
		t.Fatal("PresentationString() on empty schema should be empty")
	}
}

func TestErrorMessages(t *testing.T) {
	schema := map[string]any{
		ExtErrorMessage: map[string]any{
			"required": "Required field",
			"blank":    "   ",
			"number":   42,
		},
	}
	got := ErrorMessages(schema)
	want := map[string]string{"required": "Required field"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ErrorMessages() mismatch (-want +got):\n%s", diff)
	}
}

func TestLogic(t *testing.T) {
	payload := map[string]any{
		ExtLogic: map[string]any{
			"computedValues": map[string]any{
				"annual_total": map[string]any{
					"expression": "salary * 12",
					"label":      "Annual total",
				},
			},
		},
	}
	spec, err := Logic(payload)
	if err != nil {
		t.Fatalf("Logic() error = %v", err)
	}
	cv, ok := spec.ComputedValues["annual_total"]
	if !ok {
		t.Fatal("Logic() missing annual_total")
	}
	if cv.Expression != "salary * 12" || cv.Label != "Annual total" {
		t.Fatalf("Logic() computed value = %+v", cv)
	}
}

func TestLogicMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		wantErr string
	}{
		{
			name:    "block not object",
			payload: map[string]any{ExtLogic: "nope"},
			wantErr: "must be an object",
		},
		{
			name: "computed values not object",
			payload: map[string]any{ExtLogic: map[string]any{
				"computedValues": []any{"x"},
			}},
			wantErr: "computedValues must be an object",
		},
		{
			name: "missing expression",
			payload: map[string]any{ExtLogic: map[string]any{
				"computedValues": map[string]any{
					"total": map[string]any{"label": "Total"},
				},
			}},
			wantErr: "missing an expression",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Logic(tc.payload)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Logic() error = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}
