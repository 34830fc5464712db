// Package validation checks form values against interpreted field
// descriptors. It runs in two modes: full, used on submission, and partial,
// used while typing, which only judges fields the caller has provided.
// Invisible and deprecated fields never produce errors.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-jsform/internal/logic"
	"github.com/goliatone/go-jsform/pkg/model"
)

// Mode selects how absent values are judged.
type Mode string

const (
	// ModeFull validates every visible field, flagging missing required ones.
	ModeFull Mode = "full"
	// ModePartial validates only fields present in the value map.
	ModePartial Mode = "partial"
)

const dateLayout = "2006-01-02"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Result is the outcome of one validation pass. Errors are keyed by field
// path and hold every failing rule's message in rule order; children of
// scoped fieldsets use dotted paths.
type Result struct {
	Valid  bool
	Errors map[string][]string
}

// Error returns the first message for a field path, if any.
func (r Result) Error(path string) (string, bool) {
	msgs := r.Errors[path]
	if len(msgs) == 0 {
		return "", false
	}
	return msgs[0], true
}

// Resolver validates values against a form.
type Resolver struct {
	now func() time.Time
}

// Option configures the resolver.
type Option func(*Resolver)

// WithNow overrides the clock used for date comparisons.
func WithNow(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Resolver.
func New(options ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Validate runs one pass over the form.
func (r *Resolver) Validate(form model.Form, values map[string]any, mode Mode) Result {
	errors := map[string][]string{}
	r.validateFields("", form.Fields, values, mode, errors)
	if len(errors) == 0 {
		return Result{Valid: true}
	}
	return Result{Valid: false, Errors: errors}
}

func (r *Resolver) validateFields(prefix string, fields []model.Field, values map[string]any, mode Mode, errors map[string][]string) {
	for _, field := range fields {
		if !field.Visible || field.Deprecated {
			continue
		}

		if field.IsFieldset() {
			r.validateFieldset(prefix, field, values, mode, errors)
			continue
		}

		path := prefix + field.Name
		value, provided := values[field.Name]
		if mode == ModePartial && !provided {
			continue
		}
		if msgs := r.validateValue(field, value); len(msgs) > 0 {
			errors[path] = msgs
		}
	}
}

func (r *Resolver) validateFieldset(prefix string, field model.Field, values map[string]any, mode Mode, errors map[string][]string) {
	if field.Scoped() {
		nested, _ := values[field.Name].(map[string]any)
		if nested == nil {
			nested = map[string]any{}
			if mode == ModePartial {
				if _, provided := values[field.Name]; !provided {
					return
				}
			}
		}
		r.validateFields(prefix+field.Name+".", field.Fields, nested, mode, errors)
		return
	}
	// Flat fieldsets read their children from the enclosing value map.
	r.validateFields(prefix, field.Fields, values, mode, errors)
}

// validateValue collects every failing rule's message so callers can surface
// all problems with a value at once, not just the first.
func (r *Resolver) validateValue(field model.Field, value any) []string {
	if empty(value) {
		if rule, ok := field.Rule(model.RuleRequired); ok {
			return []string{message(rule, "Required field")}
		}
		return nil
	}

	var msgs []string
	for _, rule := range field.Validations {
		if msg := r.checkRule(field, rule, value); msg != "" {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (r *Resolver) checkRule(field model.Field, rule model.ValidationRule, value any) string {
	switch rule.Kind {
	case model.RuleRequired:
		return ""
	case model.RuleMinLength:
		limit := intParam(rule, "value")
		if len([]rune(stringValue(value))) < limit {
			return message(rule, fmt.Sprintf("Please insert at least %d characters", limit))
		}
	case model.RuleMaxLength:
		limit := intParam(rule, "value")
		if len([]rune(stringValue(value))) > limit {
			return message(rule, fmt.Sprintf("Please insert up to %d characters", limit))
		}
	case model.RuleMinimum:
		bound := floatParam(rule, "value")
		num, ok := logic.Number(value)
		if !ok || num < bound {
			return message(rule, fmt.Sprintf("Must be greater or equal to %s", rule.Params["value"]))
		}
	case model.RuleMaximum:
		bound := floatParam(rule, "value")
		num, ok := logic.Number(value)
		if !ok || num > bound {
			return message(rule, fmt.Sprintf("Must be smaller or equal to %s", rule.Params["value"]))
		}
	case model.RulePattern:
		pattern, err := regexp.Compile(rule.Params["pattern"])
		if err != nil || !pattern.MatchString(stringValue(value)) {
			return message(rule, "The value does not match the expected format")
		}
	case model.RuleFormat:
		return r.checkFormat(rule, value)
	case model.RuleConst:
		if fmt.Sprint(value) != rule.Params["value"] {
			return message(rule, fmt.Sprintf("The only accepted value is %s", rule.Params["value"]))
		}
	case model.RuleMinItems:
		limit := intParam(rule, "value")
		if itemCount(value) < limit {
			return message(rule, fmt.Sprintf("Select at least %d options", limit))
		}
	case model.RuleMaxItems:
		limit := intParam(rule, "value")
		if itemCount(value) > limit {
			return message(rule, fmt.Sprintf("Select up to %d options", limit))
		}
	case model.RuleMinDate:
		return r.checkDate(rule, value, true)
	case model.RuleMaxDate:
		return r.checkDate(rule, value, false)
	case model.RuleMaxFileSize:
		return checkFileSize(rule, value)
	case model.RuleAccept:
		return checkFileAccept(rule, value)
	}
	return ""
}

func (r *Resolver) checkFormat(rule model.ValidationRule, value any) string {
	switch rule.Params["format"] {
	case "email":
		if !emailPattern.MatchString(stringValue(value)) {
			return message(rule, "Please enter a valid email address")
		}
	case "date":
		if _, err := time.Parse(dateLayout, stringValue(value)); err != nil {
			return message(rule, "Please enter a valid date")
		}
	}
	return ""
}

func (r *Resolver) checkDate(rule model.ValidationRule, value any, isMin bool) string {
	bound, err := time.Parse(dateLayout, rule.Params["value"])
	if err != nil {
		return ""
	}
	date, err := time.Parse(dateLayout, stringValue(value))
	if err != nil {
		return message(rule, "Please enter a valid date")
	}
	if isMin && date.Before(bound) {
		return message(rule, fmt.Sprintf("The date must be %s or after", rule.Params["value"]))
	}
	if !isMin && date.After(bound) {
		return message(rule, fmt.Sprintf("The date must be %s or before", rule.Params["value"]))
	}
	return ""
}

// checkFileSize enforces the limit carried in KB. The message names the
// offending file and reports both sizes rounded to whole MB, the way users
// expect to read them.
func checkFileSize(rule model.ValidationRule, value any) string {
	limitKB := floatParam(rule, "value")
	if limitKB <= 0 {
		return ""
	}
	limitBytes := int64(limitKB * 1024)
	for _, file := range fileValues(value) {
		if file.Size > limitBytes {
			limitMB := int64(math.Round(limitKB / 1024))
			actualMB := int64(math.Round(float64(file.Size) / (1 << 20)))
			return message(rule, fmt.Sprintf("%s is too large. The file is %d MB and the limit is %d MB.", file.Name, actualMB, limitMB))
		}
	}
	return ""
}

func checkFileAccept(rule model.ValidationRule, value any) string {
	accept := rule.Params["value"]
	if accept == "" {
		return ""
	}
	exts := strings.Split(accept, ",")
	for _, file := range fileValues(value) {
		ok := false
		lower := strings.ToLower(file.Name)
		for _, ext := range exts {
			if strings.HasSuffix(lower, strings.ToLower(strings.TrimSpace(ext))) {
				ok = true
				break
			}
		}
		if !ok {
			return message(rule, fmt.Sprintf("Unsupported file format. The accepted formats are %s.", accept))
		}
	}
	return ""
}

func fileValues(value any) []model.FileValue {
	switch v := value.(type) {
	case model.FileValue:
		return []model.FileValue{v}
	case *model.FileValue:
		if v == nil {
			return nil
		}
		return []model.FileValue{*v}
	case []model.FileValue:
		return v
	case []any:
		out := make([]model.FileValue, 0, len(v))
		for _, entry := range v {
			if file, ok := entry.(model.FileValue); ok {
				out = append(out, file)
			}
		}
		return out
	default:
		return nil
	}
}

func message(rule model.ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func empty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []model.FileValue:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func itemCount(value any) int {
	switch v := value.(type) {
	case []any:
		return len(v)
	case []string:
		return len(v)
	default:
		return 0
	}
}

func intParam(rule model.ValidationRule, key string) int {
	n, _ := strconv.Atoi(rule.Params[key])
	return n
}

func floatParam(rule model.ValidationRule, key string) float64 {
	f, _ := strconv.ParseFloat(rule.Params[key], 64)
	return f
}
