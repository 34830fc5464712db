package html

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-jsform/pkg/fields"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/render"
	"github.com/goliatone/go-jsform/pkg/schedule"
)

var scheduleDays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Components builds the builtin component set backed by the engine's
// templates. Every leaf field type resolves to one of these unless the caller
// overrides it.
func Components(engine *Engine) map[model.FieldType]render.FieldComponent {
	return map[model.FieldType]render.FieldComponent{
		model.FieldTypeText:         inputComponent(engine, "text"),
		model.FieldTypeNumber:       inputComponent(engine, "number"),
		model.FieldTypeMoney:        inputComponent(engine, "number"),
		model.FieldTypeEmail:        inputComponent(engine, "email"),
		model.FieldTypeDate:         inputComponent(engine, "date"),
		model.FieldTypeFile:         inputComponent(engine, "file"),
		model.FieldTypeTextarea:     templateComponent(engine, "components/textarea", nil),
		model.FieldTypeSelect:       selectComponent(engine, false),
		model.FieldTypeCountries:    selectComponent(engine, false),
		model.FieldTypeMultiSelect:  selectComponent(engine, true),
		model.FieldTypeRadio:        radioComponent(engine),
		model.FieldTypeCheckbox:     checkboxComponent(engine),
		model.FieldTypeHidden:       hiddenComponent(engine),
		model.FieldTypeWorkSchedule: scheduleComponent(engine),
	}
}

func templateComponent(engine *Engine, name string, extend func(model.Field, render.FieldState, map[string]any)) render.FieldComponent {
	return render.FieldComponentFunc(func(_ context.Context, field model.Field, state render.FieldState) ([]byte, error) {
		data := baseViewData(field, state)
		if extend != nil {
			extend(field, state, data)
		}
		out, err := engine.RenderTemplate(name, data)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	})
}

func inputComponent(engine *Engine, inputType string) render.FieldComponent {
	return templateComponent(engine, "components/input", func(field model.Field, state render.FieldState, data map[string]any) {
		data["kind"] = string(field.Type)
		data["input_type"] = inputType
		data["min"] = effectiveBound(field, model.RuleMinimum, model.RuleMinDate)
		data["max"] = effectiveBound(field, model.RuleMaximum, model.RuleMaxDate)
		data["minlength"] = ruleParam(field, model.RuleMinLength, "value")
		data["maxlength"] = ruleParam(field, model.RuleMaxLength, "value")
		data["pattern"] = ruleParam(field, model.RulePattern, "pattern")
		data["accept"] = ruleParam(field, model.RuleAccept, "value")
	})
}

func hiddenComponent(engine *Engine) render.FieldComponent {
	return templateComponent(engine, "components/hidden", nil)
}

func selectComponent(engine *Engine, multiple bool) render.FieldComponent {
	return templateComponent(engine, "components/select", func(field model.Field, state render.FieldState, data map[string]any) {
		selected := selectedValues(state.Value)
		data["multiple"] = multiple
		data["options"] = optionViews(field.Options, selected)
		if len(field.Groups) > 0 {
			groups := make([]map[string]any, 0, len(field.Groups))
			for _, group := range field.Groups {
				groups = append(groups, map[string]any{
					"Label":   group.Label,
					"Options": optionViews(group.Options, selected),
				})
			}
			data["groups"] = groups
		}
	})
}

func radioComponent(engine *Engine) render.FieldComponent {
	return templateComponent(engine, "components/radio", func(field model.Field, state render.FieldState, data map[string]any) {
		data["options"] = optionViews(field.Options, selectedValues(state.Value))
	})
}

func checkboxComponent(engine *Engine) render.FieldComponent {
	return templateComponent(engine, "components/checkbox", func(field model.Field, state render.FieldState, data map[string]any) {
		data["checked"] = fields.CheckboxChecked(field, state.Value)
		data["multiple"] = field.Multiple
		if field.Multiple {
			data["options"] = optionViews(field.Options, selectedValues(state.Value))
		}
		if rule, ok := field.Rule(model.RuleConst); ok {
			data["const"] = rule.Params["value"]
		}
	})
}

func scheduleComponent(engine *Engine) render.FieldComponent {
	return templateComponent(engine, "components/schedule", func(field model.Field, state render.FieldState, data map[string]any) {
		entries := scheduleEntries(state.Value)
		rows := make([]map[string]any, 0, len(scheduleDays))
		for _, day := range scheduleDays {
			entry := entryFor(entries, day)
			rows = append(rows, map[string]any{
				"Day":          day,
				"Checked":      entry.Checked,
				"Start":        entry.Start,
				"End":          entry.End,
				"BreakMinutes": entry.BreakMinutes,
			})
		}
		summary := schedule.Summarize(entries)
		data["rows"] = rows
		data["summary"] = summary.Text()
		data["total"] = summary.TotalHours
	})
}

func baseViewData(field model.Field, state render.FieldState) map[string]any {
	return map[string]any{
		"id":          controlID(field.Name),
		"name":        field.Name,
		"label":       field.Label,
		"description": field.Description,
		"required":    field.Required,
		"value":       displayValue(state.Value),
		"error":       state.Error,
		"touched":     state.Touched,
		"statement":   field.Statement,
	}
}

func controlID(name string) string {
	return "jsform-" + strings.NewReplacer(".", "-", "_", "-").Replace(name)
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func ruleParam(field model.Field, kind, param string) string {
	if rule, ok := field.Rule(kind); ok {
		return rule.Params[param]
	}
	return ""
}

// effectiveBound prefers the numeric rule and falls back to the date rule so
// number and date inputs share one template.
func effectiveBound(field model.Field, numericKind, dateKind string) string {
	if value := ruleParam(field, numericKind, "value"); value != "" {
		return value
	}
	return ruleParam(field, dateKind, "value")
}

func selectedValues(value any) map[string]bool {
	selected := make(map[string]bool)
	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			selected[displayValue(item)] = true
		}
	case []string:
		for _, item := range v {
			selected[item] = true
		}
	default:
		selected[displayValue(v)] = true
	}
	return selected
}

func optionViews(options []model.Option, selected map[string]bool) []map[string]any {
	out := make([]map[string]any, 0, len(options))
	for _, option := range options {
		out = append(out, map[string]any{
			"Value":    option.Value,
			"Label":    option.Label,
			"Disabled": option.Disabled,
			"Selected": selected[displayValue(option.Value)],
		})
	}
	return out
}

func scheduleEntries(value any) []schedule.Entry {
	tracked, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	entries := make([]schedule.Entry, 0, len(tracked))
	for _, day := range scheduleDays {
		raw, ok := tracked[day].(map[string]any)
		if !ok {
			continue
		}
		entry := schedule.Entry{Day: day}
		entry.Checked, _ = raw["checked"].(bool)
		entry.Start, _ = raw["start"].(string)
		entry.End, _ = raw["end"].(string)
		if minutes, ok := raw["break"].(float64); ok {
			entry.BreakMinutes = minutes
		}
		entries = append(entries, entry)
	}
	return entries
}

func entryFor(entries []schedule.Entry, day string) schedule.Entry {
	for _, entry := range entries {
		if entry.Day == day {
			return entry
		}
	}
	return schedule.Entry{Day: day}
}
