// Package interpreter turns a JSF document into renderable field descriptors.
// Interpretation is pure: given the same document and values it always yields
// the same form, so callers re-run it on every value change.
package interpreter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-jsform/internal/logic"
	internalmodel "github.com/goliatone/go-jsform/internal/model"
	"github.com/goliatone/go-jsform/pkg/jsf"
	"github.com/goliatone/go-jsform/pkg/model"
)

// Option configures interpreter construction.
type Option func(*config)

type config struct {
	loader    jsf.Loader
	resolve   jsf.ResolveOptions
	labeler   func(string) string
	sanitizer func(string) string
}

// WithLoader supplies the loader used for external $ref resolution.
func WithLoader(loader jsf.Loader) Option {
	return func(c *config) { c.loader = loader }
}

// WithResolveOptions overrides $ref resolution limits.
func WithResolveOptions(opts jsf.ResolveOptions) Option {
	return func(c *config) { c.resolve = opts }
}

// WithLabeler overrides default label derivation.
func WithLabeler(labeler func(string) string) Option {
	return func(c *config) { c.labeler = labeler }
}

// WithSanitizer overrides the HTML sanitizer applied to statement bodies.
func WithSanitizer(sanitizer func(string) string) Option {
	return func(c *config) { c.sanitizer = sanitizer }
}

// Interpreter holds the compiled document: base field descriptors,
// conditional branches, and computed value expressions.
type Interpreter struct {
	base         model.Form
	conditionals []conditional
	computed     map[string]compiledComputed
	sanitize     func(string) string
}

type compiledComputed struct {
	expr  *logic.Expr
	label string
}

// New resolves, validates, and compiles the document. Malformed schemas,
// unknown input types, unparsable expressions, and contradictory conditionals
// all fail here so Interpret never has to.
func New(ctx context.Context, doc jsf.Document, options ...Option) (*Interpreter, error) {
	cfg := config{sanitizer: sanitizeHTML}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	payload, err := jsf.NewResolver(cfg.loader, cfg.resolve).Resolve(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("interpreter: resolve document: %w", err)
	}

	base, err := internalmodel.New(internalmodel.Options{Labeler: cfg.labeler}).Build(payload)
	if err != nil {
		return nil, fmt.Errorf("interpreter: build fields: %w", err)
	}

	conditionals, err := compileConditionals(payload)
	if err != nil {
		return nil, err
	}

	logicSpec, err := jsf.Logic(payload)
	if err != nil {
		return nil, fmt.Errorf("interpreter: %w", err)
	}
	computed := make(map[string]compiledComputed, len(logicSpec.ComputedValues))
	for name, cv := range logicSpec.ComputedValues {
		expr, err := logic.Parse(cv.Expression)
		if err != nil {
			return nil, fmt.Errorf("interpreter: computed value %q: %w", name, err)
		}
		computed[name] = compiledComputed{expr: expr, label: cv.Label}
	}

	return &Interpreter{
		base:         base,
		conditionals: conditionals,
		computed:     computed,
		sanitize:     cfg.sanitizer,
	}, nil
}

// Interpret evaluates the document against the supplied values and returns
// the resulting form. The receiver is safe for concurrent use; the returned
// form shares no mutable state with the interpreter.
func (it *Interpreter) Interpret(values map[string]any) (model.Form, error) {
	if it == nil {
		return model.Form{}, fmt.Errorf("interpreter: interpreter is nil")
	}

	computedVals := it.computeValues(values)
	scope := mergeScope(values, computedVals)

	form := model.Form{
		Title:       it.interpolate(it.base.Title, scope),
		Description: it.interpolate(it.base.Description, scope),
		Fields:      copyFields(it.base.Fields),
	}

	for _, cond := range it.conditionals {
		if cond.condition.matches(values) {
			form.Fields = cond.then.apply(form.Fields)
		} else {
			form.Fields = cond.otherwise.apply(form.Fields)
		}
	}

	it.decorateFields(form.Fields, scope, computedVals)
	return form, nil
}

// ComputedValues evaluates the document's computed values alone, without
// building the full form.
func (it *Interpreter) ComputedValues(values map[string]any) map[string]any {
	return it.computeValues(values)
}

func (it *Interpreter) computeValues(values map[string]any) map[string]any {
	if len(it.computed) == 0 {
		return nil
	}
	out := make(map[string]any, len(it.computed))
	for name, cv := range it.computed {
		out[name] = cv.expr.Eval(values)
	}
	return out
}

func mergeScope(values, computed map[string]any) map[string]any {
	if len(computed) == 0 {
		return values
	}
	scope := make(map[string]any, len(values)+len(computed))
	for key, value := range values {
		scope[key] = value
	}
	for key, value := range computed {
		scope[key] = value
	}
	return scope
}

func (it *Interpreter) decorateFields(fields []model.Field, scope, computedVals map[string]any) {
	for i := range fields {
		field := &fields[i]
		field.Label = it.interpolate(field.Label, scope)
		field.Description = it.interpolate(field.Description, scope)

		if field.Statement != nil {
			st := *field.Statement
			st.Title = it.interpolate(st.Title, scope)
			st.Description = it.sanitize(it.interpolate(st.Description, scope))
			field.Statement = &st
		}

		if len(field.ComputedAttrs) > 0 {
			resolved := make(map[string]any, len(field.ComputedAttrs))
			for attr, raw := range field.ComputedAttrs {
				resolved[attr] = it.resolveComputedAttr(raw, scope, computedVals)
			}
			field.ComputedAttrs = resolved
		}

		if len(field.Fields) > 0 {
			it.decorateFields(field.Fields, scope, computedVals)
		}
	}
}

// resolveComputedAttr maps an attribute reference to its current value: a
// bare computed-value name yields the value itself, a template string is
// interpolated, anything else passes through untouched.
func (it *Interpreter) resolveComputedAttr(raw any, scope, computedVals map[string]any) any {
	str, ok := raw.(string)
	if !ok {
		return raw
	}
	if value, ok := computedVals[str]; ok {
		return value
	}
	return it.interpolate(str, scope)
}

var interpolationPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.]*)\s*\}\}`)

// interpolate substitutes {{name}} references with current scope values.
// Unknown names render as empty strings rather than leaking the template.
func (it *Interpreter) interpolate(input string, scope map[string]any) string {
	if input == "" || !strings.Contains(input, "{{") {
		return input
	}
	return interpolationPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		value, ok := scope[name]
		if !ok {
			return ""
		}
		return formatValue(value)
	})
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func internalRules(node map[string]any) []model.ValidationRule {
	return internalmodel.RulesFromSchema(node, model.RuleSourceConditional)
}

func copyFields(fields []model.Field) []model.Field {
	out := make([]model.Field, len(fields))
	for i, field := range fields {
		out[i] = copyField(field)
	}
	return out
}

func copyField(field model.Field) model.Field {
	out := field
	out.Options = append([]model.Option(nil), field.Options...)
	out.Validations = append([]model.ValidationRule(nil), field.Validations...)
	if field.Groups != nil {
		out.Groups = make([]model.OptionGroup, len(field.Groups))
		for i, group := range field.Groups {
			out.Groups[i] = model.OptionGroup{
				Label:   group.Label,
				Options: append([]model.Option(nil), group.Options...),
			}
		}
	}
	if field.ComputedAttrs != nil {
		attrs := make(map[string]any, len(field.ComputedAttrs))
		for key, value := range field.ComputedAttrs {
			attrs[key] = value
		}
		out.ComputedAttrs = attrs
	}
	if field.Meta != nil {
		meta := make(map[string]any, len(field.Meta))
		for key, value := range field.Meta {
			meta[key] = value
		}
		out.Meta = meta
	}
	if field.ErrorMessages != nil {
		messages := make(map[string]string, len(field.ErrorMessages))
		for key, value := range field.ErrorMessages {
			messages[key] = value
		}
		out.ErrorMessages = messages
	}
	if field.Statement != nil {
		st := *field.Statement
		out.Statement = &st
	}
	if field.Fields != nil {
		out.Fields = copyFields(field.Fields)
	}
	return out
}
