package model

// FieldType is the closed set of input kinds the pipeline understands. Schema
// nodes declare their kind through x-jsf-presentation.inputType; nodes without
// one fall back to a derivation from the JSON Schema type.
type FieldType string

const (
	FieldTypeText         FieldType = "text"
	FieldTypeTextarea     FieldType = "textarea"
	FieldTypeNumber       FieldType = "number"
	FieldTypeMoney        FieldType = "money"
	FieldTypeEmail        FieldType = "email"
	FieldTypeSelect       FieldType = "select"
	FieldTypeMultiSelect  FieldType = "multi-select"
	FieldTypeRadio        FieldType = "radio"
	FieldTypeDate         FieldType = "date"
	FieldTypeCheckbox     FieldType = "checkbox"
	FieldTypeFile         FieldType = "file"
	FieldTypeCountries    FieldType = "countries"
	FieldTypeHidden       FieldType = "hidden"
	FieldTypeWorkSchedule FieldType = "work-schedule"
	FieldTypeFieldset     FieldType = "fieldset"
	FieldTypeFieldsetFlat FieldType = "fieldset-flat"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:         {},
	FieldTypeTextarea:     {},
	FieldTypeNumber:       {},
	FieldTypeMoney:        {},
	FieldTypeEmail:        {},
	FieldTypeSelect:       {},
	FieldTypeMultiSelect:  {},
	FieldTypeRadio:        {},
	FieldTypeDate:         {},
	FieldTypeCheckbox:     {},
	FieldTypeFile:         {},
	FieldTypeCountries:    {},
	FieldTypeHidden:       {},
	FieldTypeWorkSchedule: {},
	FieldTypeFieldset:     {},
	FieldTypeFieldsetFlat: {},
}

// KnownFieldType reports whether the type belongs to the closed set.
func KnownFieldType(t FieldType) bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// Rule kinds. Numeric and length bounds carry their threshold in
// Params["value"]; pattern keeps the expression in Params["pattern"].
const (
	RuleRequired    = "required"
	RuleMinLength   = "minLength"
	RuleMaxLength   = "maxLength"
	RuleMinimum     = "minimum"
	RuleMaximum     = "maximum"
	RulePattern     = "pattern"
	RuleFormat      = "format"
	RuleMinItems    = "minItems"
	RuleMaxItems    = "maxItems"
	RuleConst       = "const"
	RuleMinDate     = "minDate"
	RuleMaxDate     = "maxDate"
	RuleMaxFileSize = "maxFileSize"
	RuleAccept      = "accept"
)

// RuleSource distinguishes rules declared on the base schema from rules
// injected by a matched conditional branch. Conditional rules are replaced
// wholesale on every interpretation pass.
type RuleSource string

const (
	RuleSourceBase        RuleSource = "base"
	RuleSourceConditional RuleSource = "conditional"
)

// ValidationRule is one constraint on a field value.
type ValidationRule struct {
	Kind    string            `json:"kind"`
	Params  map[string]string `json:"params,omitempty"`
	Message string            `json:"message,omitempty"`
	Source  RuleSource        `json:"source,omitempty"`
}

// Option is one selectable choice, extracted from oneOf/anyOf branches.
type Option struct {
	Value    any            `json:"value"`
	Label    string         `json:"label"`
	Disabled bool           `json:"disabled,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// OptionGroup clusters options under a heading, used by the countries field
// when the schema carries region metadata.
type OptionGroup struct {
	Label   string   `json:"label"`
	Options []Option `json:"options"`
}

// Statement is an informational callout attached to a field through
// presentation metadata. It renders near the input but carries no value.
type Statement struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
}

// Field is the renderer-facing descriptor for a single input.
type Field struct {
	Name        string     `json:"name"`
	Type        FieldType  `json:"type"`
	Label       string     `json:"label,omitempty"`
	Description string     `json:"description,omitempty"`
	Statement   *Statement `json:"statement,omitempty"`

	Required   bool `json:"required"`
	Visible    bool `json:"visible"`
	Deprecated bool `json:"deprecated,omitempty"`

	// Multiple marks a checkbox whose value is an array of option values
	// rather than a single boolean: checking adds the option, unchecking
	// filters it out.
	Multiple bool `json:"multiple,omitempty"`

	Default       any               `json:"default,omitempty"`
	Options       []Option          `json:"options,omitempty"`
	Groups        []OptionGroup     `json:"groups,omitempty"`
	Validations   []ValidationRule  `json:"validations,omitempty"`
	ErrorMessages map[string]string `json:"errorMessages,omitempty"`
	Meta          map[string]any    `json:"meta,omitempty"`
	ComputedAttrs map[string]any    `json:"computedAttrs,omitempty"`

	// Fields holds the children of a fieldset. A flat fieldset contributes
	// its children at the top level of the value map; a scoped one nests them
	// under its own name.
	Fields []Field `json:"fields,omitempty"`
}

// IsFieldset reports whether the field groups child fields.
func (f Field) IsFieldset() bool {
	return f.Type == FieldTypeFieldset || f.Type == FieldTypeFieldsetFlat
}

// Scoped reports whether the fieldset nests its children's values under the
// fieldset name.
func (f Field) Scoped() bool {
	return f.Type == FieldTypeFieldset
}

// Rule returns the first validation rule of the given kind, if any.
func (f Field) Rule(kind string) (ValidationRule, bool) {
	for _, rule := range f.Validations {
		if rule.Kind == kind {
			return rule, true
		}
	}
	return ValidationRule{}, false
}

// FileValue is the value shape file inputs produce: enough metadata to
// validate size and extension without holding file contents.
type FileValue struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Form is the interpreted document: ordered field descriptors plus the
// document-level metadata renderers surface as chrome.
type Form struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field finds a top-level field by name. Children of flat fieldsets are
// reachable as well since their values live at the top level.
func (m Form) Field(name string) (Field, bool) {
	return findField(m.Fields, name)
}

func findField(fields []Field, name string) (Field, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
		if field.Type == FieldTypeFieldsetFlat {
			if found, ok := findField(field.Fields, name); ok {
				return found, true
			}
		}
	}
	return Field{}, false
}

// VisibleFields returns the fields currently shown, recursing into fieldsets.
func (m Form) VisibleFields() []Field {
	return visibleFields(m.Fields)
}

func visibleFields(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, field := range fields {
		if !field.Visible {
			continue
		}
		if field.IsFieldset() {
			field.Fields = visibleFields(field.Fields)
		}
		out = append(out, field)
	}
	return out
}
