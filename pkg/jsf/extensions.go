package jsf

import (
	"fmt"
	"strings"
)

// Extension keys recognised throughout the pipeline.
const (
	ExtOrder        = "x-jsf-order"
	ExtPresentation = "x-jsf-presentation"
	ExtLogic        = "x-jsf-logic"
	ExtErrorMessage = "x-jsf-errorMessage"
)

// Order extracts the x-jsf-order field list from a schema node. Returns nil
// when absent so callers can fall back to lexical ordering.
func Order(schema map[string]any) []string {
	raw, ok := schema[ExtOrder]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		name, ok := entry.(string)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Presentation returns the x-jsf-presentation block of a schema node, or nil.
func Presentation(schema map[string]any) map[string]any {
	raw, ok := schema[ExtPresentation]
	if !ok {
		return nil
	}
	block, _ := raw.(map[string]any)
	return block
}

// PresentationString reads a string entry from the presentation block.
func PresentationString(schema map[string]any, key string) string {
	block := Presentation(schema)
	if block == nil {
		return ""
	}
	return readString(block, key)
}

// PresentationMeta returns the presentation meta object, used for field level
// parameters such as the minimum-onboarding-time bound or country regions.
func PresentationMeta(schema map[string]any) map[string]any {
	block := Presentation(schema)
	if block == nil {
		return nil
	}
	meta, _ := block["meta"].(map[string]any)
	return meta
}

// ErrorMessages returns the x-jsf-errorMessage block mapping rule keyword to
// a custom message.
func ErrorMessages(schema map[string]any) map[string]string {
	raw, ok := schema[ExtErrorMessage]
	if !ok {
		return nil
	}
	block, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(block))
	for key, value := range block {
		if msg, ok := value.(string); ok && strings.TrimSpace(msg) != "" {
			out[key] = msg
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// LogicSpec captures the document-level x-jsf-logic block. Computed values are
// named expressions over current form values, evaluated eagerly on every
// interpretation pass.
type LogicSpec struct {
	ComputedValues map[string]ComputedValue
}

// ComputedValue is one named derivation: an expression plus an optional label
// used when the value is surfaced as a computed attribute.
type ComputedValue struct {
	Name       string
	Expression string
	Label      string
}

// Logic extracts and validates the x-jsf-logic block from the document root.
// A malformed block is a construction error, not a silent drop.
func Logic(payload map[string]any) (LogicSpec, error) {
	spec := LogicSpec{}
	raw, ok := payload[ExtLogic]
	if !ok {
		return spec, nil
	}
	block, ok := raw.(map[string]any)
	if !ok {
		return spec, fmt.Errorf("jsf: %s must be an object", ExtLogic)
	}

	computedRaw, ok := block["computedValues"]
	if !ok {
		return spec, nil
	}
	computed, ok := computedRaw.(map[string]any)
	if !ok {
		return spec, fmt.Errorf("jsf: %s.computedValues must be an object", ExtLogic)
	}

	spec.ComputedValues = make(map[string]ComputedValue, len(computed))
	for name, entryRaw := range computed {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			return LogicSpec{}, fmt.Errorf("jsf: computed value %q must be an object", name)
		}
		expression := strings.TrimSpace(readString(entry, "expression"))
		if expression == "" {
			return LogicSpec{}, fmt.Errorf("jsf: computed value %q is missing an expression", name)
		}
		spec.ComputedValues[name] = ComputedValue{
			Name:       name,
			Expression: expression,
			Label:      strings.TrimSpace(readString(entry, "label")),
		}
	}
	return spec, nil
}
