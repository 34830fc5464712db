package form

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-jsform/pkg/fields"
	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/validation"
)

// DynamicPropsFunc lets hosts inject presentation attributes per field on
// every composition pass, keyed off the current values.
type DynamicPropsFunc func(field model.Field, values map[string]any) map[string]any

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithDebounce sets the quiet period for post-submit revalidation.
func WithDebounce(delay time.Duration) ComposerOption {
	return func(c *Composer) { c.debouncer = NewDebouncer(delay) }
}

// WithDynamicProps installs the per-field attribute hook.
func WithDynamicProps(fn DynamicPropsFunc) ComposerOption {
	return func(c *Composer) { c.dynamicProps = fn }
}

// WithValidator overrides the validation resolver.
func WithValidator(v *validation.Resolver) ComposerOption {
	return func(c *Composer) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithCaster overrides the value caster.
func WithCaster(caster *fields.Caster) ComposerOption {
	return func(c *Composer) {
		if caster != nil {
			c.caster = caster
		}
	}
}

// WithInitialValues seeds the state.
func WithInitialValues(values map[string]any) ComposerOption {
	return func(c *Composer) { c.state = NewState(values) }
}

// WithOnValidate registers the sink for revalidation results.
func WithOnValidate(fn func(validation.Result)) ComposerOption {
	return func(c *Composer) { c.onValidate = fn }
}

// Composer ties the interpreter, state, and validator together into the
// interactive form surface: values flow in through SetValue, descriptors flow
// out through Compose, and validation runs eagerly on submit and debounced
// afterwards.
type Composer struct {
	interp       *interpreter.Interpreter
	validator    *validation.Resolver
	caster       *fields.Caster
	state        *State
	debouncer    *Debouncer
	dynamicProps DynamicPropsFunc
	onValidate   func(validation.Result)

	mu         sync.Mutex
	collapsed  map[string]bool
	lastResult validation.Result
}

// NewComposer assembles a composer around an interpreter.
func NewComposer(interp *interpreter.Interpreter, options ...ComposerOption) (*Composer, error) {
	if interp == nil {
		return nil, fmt.Errorf("form: interpreter is required")
	}
	c := &Composer{
		interp:     interp,
		validator:  validation.New(),
		caster:     fields.NewCaster(),
		state:      NewState(nil),
		debouncer:  NewDebouncer(300 * time.Millisecond),
		collapsed:  map[string]bool{},
		lastResult: validation.Result{Valid: true},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// State exposes the underlying value store.
func (c *Composer) State() *State { return c.state }

// Compose interprets the current values and decorates the result with
// dynamic props and collapse flags.
func (c *Composer) Compose() (model.Form, error) {
	values := c.state.Values()
	form, err := c.interp.Interpret(values)
	if err != nil {
		return model.Form{}, err
	}
	c.decorate(form.Fields, values)
	return form, nil
}

func (c *Composer) decorate(fieldList []model.Field, values map[string]any) {
	for i := range fieldList {
		field := &fieldList[i]
		if field.IsFieldset() {
			if field.Meta == nil {
				field.Meta = map[string]any{}
			}
			field.Meta["collapsed"] = c.collapsedFor(*field)
			c.decorate(field.Fields, values)
		}
		if c.dynamicProps != nil {
			if props := c.dynamicProps(*field, values); len(props) > 0 {
				if field.Meta == nil {
					field.Meta = map[string]any{}
				}
				for key, value := range props {
					field.Meta[key] = value
				}
			}
		}
	}
}

// SetValue casts and stores one value. After the first submission attempt it
// also schedules a debounced full revalidation so error chrome tracks input
// without flickering per keystroke.
func (c *Composer) SetValue(path string, raw any) error {
	form, err := c.interp.Interpret(c.state.Values())
	if err != nil {
		return err
	}

	value := raw
	if field, ok := fieldAtPath(form.Fields, path); ok {
		value = c.caster.CastValue(field, raw)
	}
	c.state.SetValue(path, value)

	if c.state.SubmitCount() > 0 {
		c.debouncer.Schedule(func() {
			c.revalidate()
		})
	}
	return nil
}

// Toggle flips a fieldset's collapsed flag and reports the new value. When
// the fieldset declares a backing state field, the flip is written to that
// form value so it survives recomposition and shows up in the payload.
func (c *Composer) Toggle(name string) bool {
	field, ok := c.fieldsetNamed(name)
	if !ok {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.collapsed[name] = !c.collapsed[name]
		return c.collapsed[name]
	}

	collapsed := !c.collapsedFor(field)
	if stateField := collapseStateField(field); stateField != "" {
		c.state.SetValue(stateField, !collapsed)
		return collapsed
	}
	c.mu.Lock()
	c.collapsed[name] = collapsed
	c.mu.Unlock()
	return collapsed
}

// Collapsed reports whether a fieldset is collapsed.
func (c *Composer) Collapsed(name string) bool {
	if field, ok := c.fieldsetNamed(name); ok {
		return c.collapsedFor(field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed[name]
}

// collapsedFor resolves one fieldset's collapsed flag. A fieldset with a
// backing state field follows that boolean form value, falling back to the
// defaultExpanded hint until the value is set; fieldsets without one are
// tracked locally, seeded from the same hint.
func (c *Composer) collapsedFor(field model.Field) bool {
	if stateField := collapseStateField(field); stateField != "" {
		if value, ok := c.state.Value(stateField); ok {
			if expanded, isBool := value.(bool); isBool {
				return !expanded
			}
		}
		return !defaultExpanded(field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if collapsed, ok := c.collapsed[field.Name]; ok {
		return collapsed
	}
	return !defaultExpanded(field)
}

func (c *Composer) fieldsetNamed(name string) (model.Field, bool) {
	form, err := c.interp.Interpret(c.state.Values())
	if err != nil {
		return model.Field{}, false
	}
	field, ok := fieldAtPath(form.Fields, name)
	if !ok || !field.IsFieldset() {
		return model.Field{}, false
	}
	return field, true
}

func collapseStateField(field model.Field) string {
	name, _ := field.Meta["stateField"].(string)
	return name
}

func defaultExpanded(field model.Field) bool {
	if expanded, ok := field.Meta["defaultExpanded"].(bool); ok {
		return expanded
	}
	return true
}

// Submit runs a full validation pass, records the attempt, and returns the
// cast values when the form is valid.
func (c *Composer) Submit() (map[string]any, validation.Result, error) {
	form, err := c.interp.Interpret(c.state.Values())
	if err != nil {
		return nil, validation.Result{}, err
	}

	values := c.caster.Cast(form, c.state.Values())
	result := c.validator.Validate(form, values, validation.ModeFull)

	c.state.RecordSubmit()
	c.storeResult(result)

	if !result.Valid {
		return nil, result, nil
	}
	return values, result, nil
}

// Trigger runs an immediate full validation pass, bypassing the debouncer.
func (c *Composer) Trigger() validation.Result {
	c.revalidate()
	return c.Validation()
}

// Validation returns the most recent validation result.
func (c *Composer) Validation() validation.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResult
}

// Close releases the debouncer.
func (c *Composer) Close() {
	c.debouncer.Close()
}

func (c *Composer) revalidate() {
	form, err := c.interp.Interpret(c.state.Values())
	if err != nil {
		return
	}
	values := c.caster.Cast(form, c.state.Values())
	result := c.validator.Validate(form, values, validation.ModeFull)
	c.storeResult(result)

	if c.onValidate != nil {
		c.onValidate(result)
	}
}

func (c *Composer) storeResult(result validation.Result) {
	c.mu.Lock()
	c.lastResult = result
	c.mu.Unlock()
}

// fieldAtPath resolves a dotted path against the field tree. Children of
// flat fieldsets are transparent; scoped fieldsets consume one path segment.
func fieldAtPath(fieldList []model.Field, path string) (model.Field, bool) {
	parts := strings.Split(path, ".")
	current := fieldList
	for idx, part := range parts {
		field, ok := findNamed(current, part)
		if !ok {
			return model.Field{}, false
		}
		if idx == len(parts)-1 {
			return field, true
		}
		if !field.Scoped() {
			return model.Field{}, false
		}
		current = field.Fields
	}
	return model.Field{}, false
}

func findNamed(fieldList []model.Field, name string) (model.Field, bool) {
	for _, field := range fieldList {
		if field.Name == name {
			return field, true
		}
		if field.Type == model.FieldTypeFieldsetFlat {
			if found, ok := findNamed(field.Fields, name); ok {
				return found, true
			}
		}
	}
	return model.Field{}, false
}
