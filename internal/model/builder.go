package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-jsform/pkg/jsf"
)

// Builder converts resolved JSF schema nodes into field descriptors. It reads
// the base schema only; conditional branches are applied by the interpreter on
// top of the descriptors built here.
type Builder struct {
	opts Options
}

// New creates a Builder with the supplied options.
func New(options Options) *Builder {
	opts := defaultOptions()
	if options.Labeler != nil {
		opts.Labeler = options.Labeler
	}
	return &Builder{opts: opts}
}

// Build walks the root schema object and returns the ordered field list plus
// the document title and description.
func (b *Builder) Build(payload map[string]any) (Form, error) {
	if payload == nil {
		return Form{}, fmt.Errorf("model builder: payload is nil")
	}

	form := Form{
		Title:       readString(payload, "title"),
		Description: readString(payload, "description"),
	}

	fields, err := b.fieldsFromObject(payload)
	if err != nil {
		return Form{}, err
	}
	form.Fields = fields
	return form, nil
}

func (b *Builder) fieldsFromObject(schema map[string]any) ([]Field, error) {
	properties, _ := schema["properties"].(map[string]any)
	if len(properties) == 0 {
		return nil, nil
	}

	requiredSet := requiredNames(schema)
	names := orderedNames(schema, properties)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		node, ok := properties[name].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("model builder: property %q is not an object", name)
		}
		_, isRequired := requiredSet[name]
		field, err := b.fieldFromSchema(name, node, isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// orderedNames applies x-jsf-order; properties the order omits are appended
// lexically so their position is at least stable.
func orderedNames(schema map[string]any, properties map[string]any) []string {
	seen := make(map[string]struct{}, len(properties))
	names := make([]string, 0, len(properties))

	for _, name := range jsf.Order(schema) {
		if _, ok := properties[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	rest := make([]string, 0, len(properties))
	for name := range properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func requiredNames(schema map[string]any) map[string]struct{} {
	raw, _ := schema["required"].([]any)
	out := make(map[string]struct{}, len(raw))
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			out[name] = struct{}{}
		}
	}
	return out
}

func (b *Builder) fieldFromSchema(name string, node map[string]any, required bool) (Field, error) {
	fieldType, err := b.fieldTypeFor(name, node)
	if err != nil {
		return Field{}, err
	}

	field := Field{
		Name:        name,
		Type:        fieldType,
		Label:       readString(node, "title"),
		Description: readString(node, "description"),
		Required:    required,
		Visible:     true,
		Default:     node["default"],
	}
	if field.Label == "" {
		field.Label = b.opts.Labeler(name)
	}

	if deprecated, _ := node["deprecated"].(bool); deprecated {
		field.Deprecated = true
	}

	presentation := jsf.Presentation(node)
	if presentation != nil {
		if _, ok := presentation["deprecated"]; ok {
			field.Deprecated = true
		}
		field.Statement = statementFrom(presentation)
	}
	field.Meta = jsf.PresentationMeta(node)
	field.ErrorMessages = jsf.ErrorMessages(node)
	field.ComputedAttrs = computedAttrsFrom(node)

	if multipleFrom(node, presentation) {
		switch fieldType {
		case FieldTypeSelect:
			fieldType = FieldTypeMultiSelect
			field.Type = fieldType
		case FieldTypeCheckbox:
			field.Multiple = true
		}
	}
	// An array-typed checkbox is a checkbox group even without the flag.
	if fieldType == FieldTypeCheckbox && readString(node, "type") == "array" {
		field.Multiple = true
	}

	switch {
	case field.IsFieldset():
		children, err := b.fieldsFromObject(node)
		if err != nil {
			return Field{}, fmt.Errorf("model builder: fieldset %q: %w", name, err)
		}
		field.Fields = children
	case fieldType == FieldTypeMultiSelect || fieldType == FieldTypeCountries || field.Multiple:
		field.Options = optionsFromArrayNode(node)
	default:
		field.Options = optionsFrom(node)
	}

	if fieldType == FieldTypeCountries {
		field.Groups = regionGroups(field.Meta, field.Options)
	}

	field.Validations = rulesFrom(node, presentation, required, field.ErrorMessages)
	return field, nil
}

// fieldTypeFor resolves the input type: explicit presentation wins, otherwise
// a derivation from the JSON Schema shape. Unknown explicit types are a
// construction error so typos fail loudly.
func (b *Builder) fieldTypeFor(name string, node map[string]any) (FieldType, error) {
	if explicit := jsf.PresentationString(node, "inputType"); explicit != "" {
		t := FieldType(explicit)
		if !KnownFieldType(t) {
			return "", fmt.Errorf("model builder: field %q has unknown input type %q", name, explicit)
		}
		return t, nil
	}

	switch readString(node, "type") {
	case "object":
		return FieldTypeFieldset, nil
	case "number", "integer":
		return FieldTypeNumber, nil
	case "boolean":
		return FieldTypeCheckbox, nil
	case "array":
		return FieldTypeMultiSelect, nil
	default:
		if readString(node, "format") == "email" {
			return FieldTypeEmail, nil
		}
		if readString(node, "format") == "date" {
			return FieldTypeDate, nil
		}
		if _, ok := node["oneOf"]; ok {
			return FieldTypeSelect, nil
		}
		return FieldTypeText, nil
	}
}

// computedAttrsFrom reads the per-field x-jsf-logic computedAttrs block. The
// values are expression names or templates that the interpreter replaces with
// evaluated results on every pass.
func computedAttrsFrom(node map[string]any) map[string]any {
	block, ok := node[jsf.ExtLogic].(map[string]any)
	if !ok {
		return nil
	}
	attrs, ok := block["computedAttrs"].(map[string]any)
	if !ok || len(attrs) == 0 {
		return nil
	}
	return attrs
}

func statementFrom(presentation map[string]any) *Statement {
	raw, ok := presentation["statement"].(map[string]any)
	if !ok {
		return nil
	}
	st := &Statement{
		Title:       readString(raw, "title"),
		Description: readString(raw, "description"),
		Severity:    readString(raw, "severity"),
	}
	if st.Title == "" && st.Description == "" {
		return nil
	}
	if st.Severity == "" {
		st.Severity = "info"
	}
	return st
}

// optionsFrom reads oneOf branches into options. Branches without a const are
// skipped; a null const marks the empty choice and is skipped too.
func optionsFrom(node map[string]any) []Option {
	branches, _ := node["oneOf"].([]any)
	if len(branches) == 0 {
		branches, _ = node["anyOf"].([]any)
	}
	return optionsFromBranches(branches)
}

// optionsFromArrayNode reads the options of an array-typed field from its
// items' anyOf/oneOf branches.
func optionsFromArrayNode(node map[string]any) []Option {
	items, ok := node["items"].(map[string]any)
	if !ok {
		return optionsFrom(node)
	}
	return optionsFrom(items)
}

func optionsFromBranches(branches []any) []Option {
	if len(branches) == 0 {
		return nil
	}
	out := make([]Option, 0, len(branches))
	for _, raw := range branches {
		branch, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		value, hasConst := branch["const"]
		if !hasConst || value == nil {
			continue
		}
		opt := Option{
			Value: value,
			Label: readString(branch, "title"),
		}
		if opt.Label == "" {
			opt.Label = fmt.Sprint(value)
		}
		if disabled, _ := branch["disabled"].(bool); disabled {
			opt.Disabled = true
		}
		if meta, ok := branch["meta"].(map[string]any); ok {
			opt.Meta = meta
		}
		out = append(out, opt)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// regionGroups clusters country options by the $meta.regions mapping. Options
// not claimed by any region land in a trailing Other group so nothing is
// silently dropped.
func regionGroups(meta map[string]any, options []Option) []OptionGroup {
	if meta == nil || len(options) == 0 {
		return nil
	}
	regions, ok := meta["regions"].(map[string]any)
	if !ok || len(regions) == 0 {
		return nil
	}

	byValue := make(map[string]Option, len(options))
	for _, opt := range options {
		if code, ok := opt.Value.(string); ok {
			byValue[code] = opt
		}
	}

	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)

	claimed := make(map[string]struct{}, len(byValue))
	groups := make([]OptionGroup, 0, len(names)+1)
	for _, name := range names {
		codes, _ := regions[name].([]any)
		group := OptionGroup{Label: name}
		for _, raw := range codes {
			code, ok := raw.(string)
			if !ok {
				continue
			}
			opt, ok := byValue[code]
			if !ok {
				continue
			}
			group.Options = append(group.Options, opt)
			claimed[code] = struct{}{}
		}
		if len(group.Options) > 0 {
			groups = append(groups, group)
		}
	}

	var rest []Option
	for _, opt := range options {
		code, _ := opt.Value.(string)
		if _, ok := claimed[code]; !ok {
			rest = append(rest, opt)
		}
	}
	if len(rest) > 0 {
		groups = append(groups, OptionGroup{Label: "Other", Options: rest})
	}
	return groups
}

// RulesFromSchema extracts validation rules from a schema node. The
// interpreter reuses it for conditional branches, tagging results with the
// conditional source.
func RulesFromSchema(node map[string]any, source RuleSource) []ValidationRule {
	presentation := jsf.Presentation(node)
	messages := jsf.ErrorMessages(node)
	rules := rulesFrom(node, presentation, false, messages)
	for i := range rules {
		rules[i].Source = source
	}
	return rules
}

func rulesFrom(node map[string]any, presentation map[string]any, required bool, messages map[string]string) []ValidationRule {
	var rules []ValidationRule
	add := func(kind string, params map[string]string) {
		rules = append(rules, ValidationRule{
			Kind:    kind,
			Params:  params,
			Message: messages[kind],
			Source:  RuleSourceBase,
		})
	}

	if required {
		add(RuleRequired, nil)
	}
	for _, kind := range []string{RuleMinLength, RuleMaxLength, RuleMinimum, RuleMaximum, RuleMinItems, RuleMaxItems} {
		if num, ok := numberParam(node[kind]); ok {
			add(kind, map[string]string{"value": num})
		}
	}
	if pattern := readString(node, "pattern"); pattern != "" {
		add(RulePattern, map[string]string{"pattern": pattern})
	}
	if format := readString(node, "format"); format != "" {
		add(RuleFormat, map[string]string{"format": format})
	}
	if value, ok := node["const"]; ok && value != nil {
		add(RuleConst, map[string]string{"value": fmt.Sprint(value)})
	}

	if presentation != nil {
		if minDate := readString(presentation, "minDate"); minDate != "" {
			add(RuleMinDate, map[string]string{"value": minDate})
		}
		if maxDate := readString(presentation, "maxDate"); maxDate != "" {
			add(RuleMaxDate, map[string]string{"value": maxDate})
		}
		if size, ok := numberParam(presentation["maxFileSize"]); ok {
			add(RuleMaxFileSize, map[string]string{"value": size})
		}
		if accept := readString(presentation, "accept"); accept != "" {
			add(RuleAccept, map[string]string{"value": accept})
		}
	}
	return rules
}

func multipleFrom(node map[string]any, presentation map[string]any) bool {
	if multi, _ := node["multiple"].(bool); multi {
		return true
	}
	if presentation != nil {
		if multi, _ := presentation["multiple"].(bool); multi {
			return true
		}
	}
	return false
}

func numberParam(raw any) (string, bool) {
	switch v := raw.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return "", false
		}
		return v, true
	default:
		return "", false
	}
}

func readString(node map[string]any, key string) string {
	value, _ := node[key].(string)
	return value
}
