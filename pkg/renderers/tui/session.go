package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-jsform/pkg/interpreter"
	"github.com/goliatone/go-jsform/pkg/model"
	"github.com/goliatone/go-jsform/pkg/validation"
)

// Session drives an interactive fill of a dynamic form. The form is
// re-interpreted after every answer, so fields revealed by conditionals are
// prompted and fields a branch hides are skipped.
type Session struct {
	interp   *interpreter.Interpreter
	renderer *Renderer
}

// NewSession wires an interpreter to a prompting renderer.
func NewSession(interp *interpreter.Interpreter, options ...Option) (*Session, error) {
	if interp == nil {
		return nil, errors.New("tui: interpreter is required")
	}
	renderer, err := New(options...)
	if err != nil {
		return nil, err
	}
	return &Session{interp: interp, renderer: renderer}, nil
}

// Run prompts until every visible field has an answer and the collected
// values pass full validation, then returns the cast payload.
func (s *Session) Run(ctx context.Context, initial map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(initial))
	for key, value := range initial {
		values[key] = value
	}
	answered := make(map[string]bool)

	for {
		form, err := s.interp.Interpret(values)
		if err != nil {
			return nil, err
		}

		field, path, ok := nextUnanswered(form.VisibleFields(), "", answered)
		if ok {
			if err := s.renderer.promptField(ctx, field, path, values); err != nil {
				return nil, err
			}
			answered[path] = true
			continue
		}

		cast := s.renderer.caster.Cast(form, values)
		result := s.renderer.validator.Validate(form, cast, validation.ModeFull)
		if result.Valid {
			return cast, nil
		}

		for errPath, messages := range result.Errors {
			_ = s.renderer.driver.Info(ctx, errPath+": "+strings.Join(messages, "; "))
			delete(answered, topSegment(errPath))
		}
		values = cast
	}
}

// nextUnanswered finds the first visible prompt target in document order.
// Scoped fieldsets are prompted as a unit; flat fieldsets are transparent.
func nextUnanswered(fieldList []model.Field, prefix string, answered map[string]bool) (model.Field, string, bool) {
	for _, field := range fieldList {
		path := joinPath(prefix, field.Name)
		if field.IsFieldset() && !field.Scoped() {
			if found, foundPath, ok := nextUnanswered(field.Fields, prefix, answered); ok {
				return found, foundPath, ok
			}
			continue
		}
		if !answered[path] {
			return field, path, true
		}
	}
	return model.Field{}, "", false
}

func topSegment(path string) string {
	if idx := strings.Index(path, "."); idx >= 0 {
		return path[:idx]
	}
	return path
}
