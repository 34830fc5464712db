package interpreter

import (
	"fmt"
	"regexp"

	"github.com/goliatone/go-jsform/internal/logic"
	"github.com/goliatone/go-jsform/pkg/model"
)

// conditional is one compiled allOf entry: a predicate over form values plus
// the branch applied when it matches and the branch applied when it does not.
type conditional struct {
	condition condition
	then      *branch
	otherwise *branch
}

type condition struct {
	required []string
	props    []propCheck
}

type propCheck struct {
	name     string
	hasConst bool
	constVal any
	enum     []any
	minimum  *float64
	maximum  *float64
	pattern  *regexp.Regexp
}

// branch is the effect of a matched (or unmatched) conditional arm.
type branch struct {
	required []string
	hidden   []string
	merges   map[string]map[string]any
}

// compileConditionals validates and compiles the root allOf block. Structural
// problems are construction errors so malformed schemas fail at New rather
// than misbehaving per keystroke.
func compileConditionals(payload map[string]any) ([]conditional, error) {
	raw, ok := payload["allOf"].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]conditional, 0, len(raw))
	for idx, entryRaw := range raw {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("interpreter: allOf[%d] is not an object", idx)
		}
		ifRaw, ok := entry["if"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("interpreter: allOf[%d] is missing an if clause", idx)
		}

		cond, err := compileCondition(idx, ifRaw)
		if err != nil {
			return nil, err
		}

		compiled := conditional{condition: cond}
		if thenRaw, ok := entry["then"]; ok {
			compiled.then, err = compileBranch(idx, "then", thenRaw)
			if err != nil {
				return nil, err
			}
		}
		if elseRaw, ok := entry["else"]; ok {
			compiled.otherwise, err = compileBranch(idx, "else", elseRaw)
			if err != nil {
				return nil, err
			}
		}
		if compiled.then == nil && compiled.otherwise == nil {
			return nil, fmt.Errorf("interpreter: allOf[%d] has neither then nor else", idx)
		}
		if err := checkBranchConflict(idx, compiled.then); err != nil {
			return nil, err
		}
		if err := checkBranchConflict(idx, compiled.otherwise); err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

func compileCondition(idx int, ifRaw map[string]any) (condition, error) {
	cond := condition{}
	if names, ok := ifRaw["required"].([]any); ok {
		for _, raw := range names {
			if name, ok := raw.(string); ok && name != "" {
				cond.required = append(cond.required, name)
			}
		}
	}

	props, _ := ifRaw["properties"].(map[string]any)
	for name, raw := range props {
		sub, ok := raw.(map[string]any)
		if !ok {
			return condition{}, fmt.Errorf("interpreter: allOf[%d] if.properties.%s is not an object", idx, name)
		}
		check := propCheck{name: name}
		if value, ok := sub["const"]; ok {
			check.hasConst = true
			check.constVal = value
		}
		if list, ok := sub["enum"].([]any); ok {
			check.enum = list
		}
		if num, ok := floatValue(sub["minimum"]); ok {
			check.minimum = &num
		}
		if num, ok := floatValue(sub["maximum"]); ok {
			check.maximum = &num
		}
		if pattern, ok := sub["pattern"].(string); ok && pattern != "" {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				return condition{}, fmt.Errorf("interpreter: allOf[%d] if.properties.%s pattern: %w", idx, name, err)
			}
			check.pattern = compiled
		}
		cond.props = append(cond.props, check)
	}
	return cond, nil
}

func compileBranch(idx int, arm string, raw any) (*branch, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		// "then": false disables the branch entirely; treat a bare false as
		// hiding nothing rather than erroring, matching draft semantics of an
		// always-failing subschema only loosely but predictably.
		if b, isBool := raw.(bool); isBool && !b {
			return &branch{}, nil
		}
		return nil, fmt.Errorf("interpreter: allOf[%d] %s is not an object", idx, arm)
	}

	out := &branch{merges: map[string]map[string]any{}}
	if names, ok := node["required"].([]any); ok {
		for _, raw := range names {
			if name, ok := raw.(string); ok && name != "" {
				out.required = append(out.required, name)
			}
		}
	}

	props, _ := node["properties"].(map[string]any)
	for name, sub := range props {
		switch typed := sub.(type) {
		case bool:
			if !typed {
				out.hidden = append(out.hidden, name)
			}
		case map[string]any:
			out.merges[name] = typed
		default:
			return nil, fmt.Errorf("interpreter: allOf[%d] %s.properties.%s must be an object or false", idx, arm, name)
		}
	}
	return out, nil
}

// checkBranchConflict rejects a branch that both requires and hides the same
// field, which would make the form unsatisfiable.
func checkBranchConflict(idx int, b *branch) error {
	if b == nil {
		return nil
	}
	hidden := make(map[string]struct{}, len(b.hidden))
	for _, name := range b.hidden {
		hidden[name] = struct{}{}
	}
	for _, name := range b.required {
		if _, ok := hidden[name]; ok {
			return fmt.Errorf("interpreter: allOf[%d] requires and hides %q in the same branch", idx, name)
		}
	}
	return nil
}

// matches evaluates the condition against current values. Every required name
// must hold a present value and every property check must pass; a missing
// value fails any property check.
func (c condition) matches(values map[string]any) bool {
	for _, name := range c.required {
		if !present(values[name]) {
			return false
		}
	}
	for _, check := range c.props {
		if !check.matches(values[check.name]) {
			return false
		}
	}
	return true
}

func (p propCheck) matches(value any) bool {
	if p.hasConst {
		if !logicEqual(value, p.constVal) {
			return false
		}
	}
	if len(p.enum) > 0 {
		found := false
		for _, candidate := range p.enum {
			if logicEqual(value, candidate) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if p.minimum != nil {
		num, ok := logic.Number(value)
		if !ok || num < *p.minimum {
			return false
		}
	}
	if p.maximum != nil {
		num, ok := logic.Number(value)
		if !ok || num > *p.maximum {
			return false
		}
	}
	if p.pattern != nil {
		str, ok := value.(string)
		if !ok || !p.pattern.MatchString(str) {
			return false
		}
	}
	return true
}

// logicEqual compares with the evaluator's coercion rules so "2500" matches
// the numeric const 2500 the same way expressions do.
func logicEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if lb, ok := left.(bool); ok {
		rb, rok := right.(bool)
		return rok && lb == rb
	}
	ln, lok := logic.Number(left)
	rn, rok := logic.Number(right)
	if lok && rok {
		return ln == rn
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func present(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []any:
		return len(v) > 0
	default:
		return true
	}
}

func floatValue(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// apply folds the branch into the working field set.
func (b *branch) apply(fields []model.Field) []model.Field {
	if b == nil {
		return fields
	}
	for _, name := range b.required {
		updateField(fields, name, func(f *model.Field) {
			f.Required = true
			f.Visible = true
			ensureRequiredRule(f)
		})
	}
	for _, name := range b.hidden {
		updateField(fields, name, func(f *model.Field) {
			f.Visible = false
		})
	}
	for name, node := range b.merges {
		node := node
		updateField(fields, name, func(f *model.Field) {
			mergeSchemaInto(f, node)
		})
	}
	return fields
}

func updateField(fields []model.Field, name string, fn func(*model.Field)) bool {
	for i := range fields {
		if fields[i].Name == name {
			fn(&fields[i])
			return true
		}
	}
	// Conditionals can target children of flat fieldsets since their values
	// live at the top level.
	for i := range fields {
		if fields[i].Type == model.FieldTypeFieldsetFlat {
			if updateField(fields[i].Fields, name, fn) {
				return true
			}
		}
	}
	return false
}

func ensureRequiredRule(f *model.Field) {
	if _, ok := f.Rule(model.RuleRequired); ok {
		return
	}
	f.Validations = append(f.Validations, model.ValidationRule{
		Kind:    model.RuleRequired,
		Message: f.ErrorMessages[model.RuleRequired],
		Source:  model.RuleSourceConditional,
	})
}

// mergeSchemaInto layers a conditional subschema over the field: metadata
// overrides plus injected validation rules tagged as conditional.
func mergeSchemaInto(f *model.Field, node map[string]any) {
	if title, ok := node["title"].(string); ok && title != "" {
		f.Label = title
	}
	if desc, ok := node["description"].(string); ok && desc != "" {
		f.Description = desc
	}
	if value, ok := node["default"]; ok {
		f.Default = value
	}
	if value, ok := node["const"]; ok && value != nil {
		if f.ComputedAttrs == nil {
			f.ComputedAttrs = map[string]any{}
		}
		f.ComputedAttrs["const"] = value
	}
	f.Validations = append(f.Validations, internalRules(node)...)
}
