// Package fields adapts raw user input into the value shapes each field type
// expects. Renderers hand string-ish input here before validation so numeric
// comparisons and submissions operate on typed values.
package fields

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-jsform/pkg/model"
)

// moneyMaxDigits caps money input length before parsing so pathological
// strings never reach float conversion.
const moneyMaxDigits = 12

// Option configures the caster.
type Option func(*Caster)

// WithNow overrides the clock used for date bound derivation.
func WithNow(now func() time.Time) Option {
	return func(c *Caster) {
		if now != nil {
			c.now = now
		}
	}
}

// Caster converts raw values field by field.
type Caster struct {
	now func() time.Time
}

// NewCaster constructs a Caster.
func NewCaster(options ...Option) *Caster {
	c := &Caster{now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Cast walks the form and returns a new value map with every present value
// converted to its field's canonical shape. Values held by invisible or
// deprecated fields are dropped from the output; values without a matching
// field pass through untouched so extra keys survive round trips.
func (c *Caster) Cast(form model.Form, values map[string]any) map[string]any {
	return c.castFields(form.Fields, values)
}

func (c *Caster) castFields(fields []model.Field, values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = value
	}

	for _, field := range fields {
		if !field.Visible || field.Deprecated {
			dropFieldValues(field, out)
			continue
		}
		if field.Type == model.FieldTypeFieldsetFlat {
			out = c.castFields(field.Fields, out)
			continue
		}
		if field.Type == model.FieldTypeFieldset {
			if nested, ok := out[field.Name].(map[string]any); ok {
				out[field.Name] = c.castFields(field.Fields, nested)
			}
			continue
		}

		raw, ok := values[field.Name]
		if !ok {
			continue
		}
		out[field.Name] = c.CastValue(field, raw)
	}
	return out
}

// dropFieldValues removes a hidden field's contribution from the value map.
// Flat fieldsets keep their children's values at the enclosing level, so the
// drop recurses through them.
func dropFieldValues(field model.Field, values map[string]any) {
	if field.Type == model.FieldTypeFieldsetFlat {
		for _, child := range field.Fields {
			dropFieldValues(child, values)
		}
		return
	}
	delete(values, field.Name)
}

// CastValue converts one raw value. Unconvertible input is returned unchanged
// so validation can report it instead of the cast swallowing it.
func (c *Caster) CastValue(field model.Field, raw any) any {
	switch field.Type {
	case model.FieldTypeNumber:
		return castNumber(raw)
	case model.FieldTypeMoney:
		return castMoney(raw)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		return castOptionValue(field, raw)
	case model.FieldTypeMultiSelect, model.FieldTypeCountries:
		return castArray(field, raw)
	case model.FieldTypeCheckbox:
		return castCheckbox(field, raw)
	case model.FieldTypeDate:
		return castDate(raw)
	case model.FieldTypeFile:
		return castFile(raw)
	default:
		return raw
	}
}

func castNumber(raw any) any {
	switch v := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return num
		}
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return raw
	}
}

func castMoney(raw any) any {
	if str, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(str)
		if len(trimmed) > moneyMaxDigits {
			trimmed = trimmed[:moneyMaxDigits]
		}
		return castNumber(trimmed)
	}
	return castNumber(raw)
}

// castOptionValue aligns the raw value with the type of the field's option
// values, so numeric selects submit numbers even when the control yields
// strings.
func castOptionValue(field model.Field, raw any) any {
	str, ok := raw.(string)
	if !ok {
		return raw
	}
	if str == "" {
		return nil
	}
	if optionsAreNumeric(field.Options) {
		if num, err := strconv.ParseFloat(str, 64); err == nil {
			return num
		}
	}
	return str
}

func optionsAreNumeric(options []model.Option) bool {
	if len(options) == 0 {
		return false
	}
	for _, opt := range options {
		if _, ok := opt.Value.(float64); !ok {
			return false
		}
	}
	return true
}

func castArray(field model.Field, raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		out := make([]any, 0, len(v))
		for _, entry := range v {
			out = append(out, castOptionValue(field, entry))
		}
		return out
	case []string:
		out := make([]any, 0, len(v))
		for _, entry := range v {
			out = append(out, castOptionValue(field, entry))
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return []any{castOptionValue(field, v)}
	default:
		return raw
	}
}

// castCheckbox supports the three checkbox modes: boolean checkboxes yield
// true/false, const-valued checkboxes yield the const when checked and nil
// when not, and multiple-mode checkboxes hold an array of option values.
func castCheckbox(field model.Field, raw any) any {
	if field.Multiple {
		return castArray(field, raw)
	}
	constValue, hasConst := checkboxConst(field)

	checked := false
	switch v := raw.(type) {
	case bool:
		checked = v
	case string:
		trimmed := strings.TrimSpace(v)
		if hasConst && trimmed == constValue {
			checked = true
		} else if parsed, err := strconv.ParseBool(trimmed); err == nil {
			checked = parsed
		} else {
			checked = trimmed != ""
		}
	case nil:
		checked = false
	default:
		checked = true
	}

	if hasConst {
		if checked {
			return constValue
		}
		return nil
	}
	return checked
}

// CheckboxValue maps a checked flag onto the field's value shape. Multiple
// mode needs the option being toggled, so it goes through CheckboxToggle.
func CheckboxValue(field model.Field, checked bool) any {
	if constValue, ok := checkboxConst(field); ok {
		if checked {
			return constValue
		}
		return nil
	}
	return checked
}

// CheckboxToggle returns the next value of one checkbox in a multiple-mode
// group: checking adds the option's value once, unchecking filters it out.
// Single-mode fields ignore the option and current value.
func CheckboxToggle(field model.Field, current any, option any, checked bool) any {
	if !field.Multiple {
		return CheckboxValue(field, checked)
	}
	out := make([]any, 0, 4)
	for _, item := range valueList(current) {
		if sameValue(item, option) {
			continue
		}
		out = append(out, item)
	}
	if checked {
		out = append(out, option)
	}
	return out
}

// CheckboxChecked reports whether a stored value represents a checked box.
// A multiple-mode value counts as checked when any option is selected.
func CheckboxChecked(field model.Field, value any) bool {
	if field.Multiple {
		return len(valueList(value)) > 0
	}
	if constValue, ok := checkboxConst(field); ok {
		str, isStr := value.(string)
		return isStr && str == constValue
	}
	checked, _ := value.(bool)
	return checked
}

// CheckboxOptionChecked reports whether a multiple-mode value includes the
// option.
func CheckboxOptionChecked(value any, option any) bool {
	for _, item := range valueList(value) {
		if sameValue(item, option) {
			return true
		}
	}
	return false
}

func valueList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return []any{v}
	}
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func checkboxConst(field model.Field) (string, bool) {
	if rule, ok := field.Rule(model.RuleConst); ok {
		return rule.Params["value"], true
	}
	if field.ComputedAttrs != nil {
		if raw, ok := field.ComputedAttrs["const"]; ok {
			if str, isStr := raw.(string); isStr {
				return str, true
			}
		}
	}
	return "", false
}

func castDate(raw any) any {
	switch v := raw.(type) {
	case time.Time:
		return v.Format("2006-01-02")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return trimmed
	default:
		return raw
	}
}
