// Package tui collects form values through terminal prompts. The survey
// driver backs interactive sessions; tests and embedders can supply their own
// PromptDriver.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-jsform/pkg/fields"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/render"
	"github.com/goliatone/go-jsform/pkg/schedule"
	"github.com/goliatone/go-jsform/pkg/validation"
)

var scheduleDays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Renderer implements render.Renderer for terminal sessions. Rendering a form
// walks its visible fields, prompts for each and serializes the collected
// values in the configured output format.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	caster       *fields.Caster
	validator    *validation.Resolver
}

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
		caster:       fields.NewCaster(),
		validator:    validation.New(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.driver == nil {
		r.driver = newSurveyDriver()
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every visible field and returns the serialized values.
// Prefilled values from opts become prompt defaults.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	values := make(map[string]any, len(opts.Values))
	for key, value := range opts.Values {
		values[key] = value
	}

	if form.Title != "" {
		_ = r.driver.Info(ctx, form.Title)
	}

	if err := r.promptFields(ctx, form.VisibleFields(), "", values); err != nil {
		return nil, err
	}
	return r.serialize(values)
}

func (r *Renderer) promptFields(ctx context.Context, fieldList []model.Field, prefix string, values map[string]any) error {
	for _, field := range fieldList {
		if err := r.promptField(ctx, field, joinPath(prefix, field.Name), values); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, path string, values map[string]any) error {
	if field.Statement != nil && field.Statement.Title != "" {
		_ = r.driver.Info(ctx, field.Statement.Title)
	}

	switch field.Type {
	case model.FieldTypeHidden:
		// Hidden fields keep their prefilled value; nothing to ask.
		if field.Default != nil {
			if _, ok := values[path]; !ok {
				values[path] = field.Default
			}
		}
		return nil
	case model.FieldTypeFieldset, model.FieldTypeFieldsetFlat:
		return r.promptFieldset(ctx, field, path, values)
	case model.FieldTypeCheckbox:
		return r.promptCheckbox(ctx, field, path, values)
	case model.FieldTypeSelect, model.FieldTypeRadio, model.FieldTypeCountries:
		return r.promptSelect(ctx, field, path, values)
	case model.FieldTypeMultiSelect:
		return r.promptMultiSelect(ctx, field, path, values)
	case model.FieldTypeTextarea:
		return r.promptTextArea(ctx, field, path, values)
	case model.FieldTypeWorkSchedule:
		return r.promptSchedule(ctx, field, path, values)
	default:
		return r.promptInput(ctx, field, path, values)
	}
}

func (r *Renderer) promptFieldset(ctx context.Context, field model.Field, path string, values map[string]any) error {
	if field.Label != "" {
		_ = r.driver.Info(ctx, field.Label)
	}
	if !field.Scoped() {
		// Flat fieldsets contribute children at the parent level.
		parent := strings.TrimSuffix(path, field.Name)
		parent = strings.TrimSuffix(parent, ".")
		return r.promptFields(ctx, field.Fields, parent, values)
	}

	scoped, _ := values[path].(map[string]any)
	if scoped == nil {
		scoped = make(map[string]any)
	}
	for _, child := range field.Fields {
		if err := r.promptField(ctx, child, child.Name, scoped); err != nil {
			return err
		}
	}
	values[path] = scoped
	return nil
}

func (r *Renderer) promptInput(ctx context.Context, field model.Field, path string, values map[string]any) error {
	for {
		raw, err := r.driver.Input(ctx, InputConfig{
			Message: displayLabel(field),
			Default: displayString(values[path], field.Default),
			Help:    field.Description,
		})
		if err != nil {
			return err
		}

		value := r.caster.CastValue(field, raw)
		if message, ok := r.check(field, value); !ok {
			_ = r.driver.Info(ctx, message)
			continue
		}
		values[path] = value
		return nil
	}
}

func (r *Renderer) promptTextArea(ctx context.Context, field model.Field, path string, values map[string]any) error {
	for {
		raw, err := r.driver.TextArea(ctx, TextAreaConfig{
			Message: displayLabel(field),
			Default: displayString(values[path], field.Default),
			Help:    field.Description,
		})
		if err != nil {
			return err
		}
		if message, ok := r.check(field, raw); !ok {
			_ = r.driver.Info(ctx, message)
			continue
		}
		values[path] = raw
		return nil
	}
}

func (r *Renderer) promptCheckbox(ctx context.Context, field model.Field, path string, values map[string]any) error {
	// A checkbox group holds an array of option values, so it prompts the
	// same way a multi-select does.
	if field.Multiple {
		return r.promptMultiSelect(ctx, field, path, values)
	}

	checked, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: displayLabel(field),
		Default: fields.CheckboxChecked(field, values[path]),
		Help:    field.Description,
	})
	if err != nil {
		return err
	}

	value := fields.CheckboxValue(field, checked)
	if message, ok := r.check(field, value); !ok {
		_ = r.driver.Info(ctx, message)
		return r.promptCheckbox(ctx, field, path, values)
	}
	values[path] = value
	return nil
}

func (r *Renderer) promptSelect(ctx context.Context, field model.Field, path string, values map[string]any) error {
	options := flattenOptions(field)
	labels := optionLabels(options)
	defaultIdx := optionIndex(options, values[path])

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(field),
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         field.Description,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			_ = r.driver.Info(ctx, fmt.Sprintf("Invalid %s selection", path))
			continue
		}

		value := options[idx].Value
		if message, ok := r.check(field, value); !ok {
			_ = r.driver.Info(ctx, message)
			continue
		}
		values[path] = value
		return nil
	}
}

func (r *Renderer) promptMultiSelect(ctx context.Context, field model.Field, path string, values map[string]any) error {
	options := flattenOptions(field)
	labels := optionLabels(options)
	defaults := selectedIndices(options, values[path])

	for {
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  displayLabel(field),
			Options:  labels,
			Defaults: defaults,
			Help:     field.Description,
		})
		if err != nil {
			return err
		}

		selected := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(options) {
				selected = append(selected, options[idx].Value)
			}
		}
		if message, ok := r.check(field, selected); !ok {
			_ = r.driver.Info(ctx, message)
			continue
		}
		values[path] = selected
		return nil
	}
}

func (r *Renderer) promptSchedule(ctx context.Context, field model.Field, path string, values map[string]any) error {
	week, _ := values[path].(map[string]any)
	if week == nil {
		week = make(map[string]any)
	}

	entries := make([]schedule.Entry, 0, len(scheduleDays))
	for _, day := range scheduleDays {
		existing, _ := week[day].(map[string]any)
		label := titleCase(day)
		checked, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Work on %s?", label),
			Default: existing["checked"] == true,
		})
		if err != nil {
			return err
		}
		if !checked {
			week[day] = map[string]any{"checked": false}
			continue
		}

		entry := schedule.Entry{Day: day, Checked: true}
		entry.Start, err = r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s start (HH:MM)", label),
			Default: displayString(existing["start"], "09:00"),
		})
		if err != nil {
			return err
		}
		entry.End, err = r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s end (HH:MM)", label),
			Default: displayString(existing["end"], "17:00"),
		})
		if err != nil {
			return err
		}
		breakRaw, err := r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s break (minutes)", label),
			Default: displayString(existing["break"], "0"),
		})
		if err != nil {
			return err
		}
		if minutes, err := strconv.ParseFloat(strings.TrimSpace(breakRaw), 64); err == nil {
			entry.BreakMinutes = minutes
		}

		week[day] = map[string]any{
			"checked": true,
			"start":   entry.Start,
			"end":     entry.End,
			"break":   entry.BreakMinutes,
		}
		entries = append(entries, entry)
	}

	summary := schedule.Summarize(entries)
	if text := summary.Text(); text != "" {
		_ = r.driver.Info(ctx, fmt.Sprintf("%s (%.4gh/week)", text, summary.TotalHours))
	}
	values[path] = week
	return nil
}

// check runs the field's validation rules against a candidate value and
// returns the first error message if the value fails.
func (r *Renderer) check(field model.Field, value any) (string, bool) {
	single := model.Form{Fields: []model.Field{field}}
	result := r.validator.Validate(single, map[string]any{field.Name: value}, validation.ModeFull)
	if result.Valid {
		return "", true
	}
	if message, ok := result.Error(field.Name); ok {
		return message, false
	}
	for _, messages := range result.Errors {
		if len(messages) > 0 {
			return messages[0], false
		}
	}
	return "invalid value", false
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func displayString(value, fallback any) string {
	if value != nil {
		return fmt.Sprint(value)
	}
	if fallback != nil {
		return fmt.Sprint(fallback)
	}
	return ""
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func flattenOptions(field model.Field) []model.Option {
	if len(field.Groups) == 0 {
		return field.Options
	}
	var out []model.Option
	for _, group := range field.Groups {
		out = append(out, group.Options...)
	}
	return out
}

func optionLabels(options []model.Option) []string {
	out := make([]string, len(options))
	for i, option := range options {
		if option.Label != "" {
			out[i] = option.Label
		} else {
			out[i] = fmt.Sprint(option.Value)
		}
	}
	return out
}

func optionIndex(options []model.Option, value any) int {
	if value == nil {
		return -1
	}
	want := fmt.Sprint(value)
	for i, option := range options {
		if fmt.Sprint(option.Value) == want {
			return i
		}
	}
	return -1
}

func selectedIndices(options []model.Option, value any) []int {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[fmt.Sprint(item)] = struct{}{}
	}
	var out []int
	for i, option := range options {
		if _, ok := seen[fmt.Sprint(option.Value)]; ok {
			out = append(out, i)
		}
	}
	return out
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	flattenInto("", values, flattened)
	return flattened.Encode()
}

func flattenInto(prefix string, value any, out url.Values) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			flattenInto(next, val, out)
		}
	case []any:
		for _, val := range v {
			out.Add(prefix+"[]", fmt.Sprint(val))
		}
	default:
		out.Set(prefix, fmt.Sprint(v))
	}
}

func prettyPrint(values map[string]any) string {
	var b strings.Builder
	writePretty(&b, "", values)
	return b.String()
}

func writePretty(b *strings.Builder, prefix string, value any) {
	switch v := value.(type) {
	case map[string]any:
		for key, val := range v {
			next := key
			if prefix != "" {
				next = prefix + "." + key
			}
			writePretty(b, next, val)
		}
	case []any:
		for idx, val := range v {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
	default:
		if prefix != "" {
			fmt.Fprintf(b, "%s=%v\n", prefix, v)
		}
	}
}
