package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-jsform/pkg/model"
)

// ConfigError reports a field whose type has no component bound at any tier.
// It distinguishes wiring mistakes from user validation failures.
type ConfigError struct {
	Field string
	Type  model.FieldType
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("render: no component for field %q of type %q", e.Field, e.Type)
}

// ErrorMapping splits a server error payload into field-level and form-level
// messages keyed by the dotted field paths used throughout the pipeline.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// NormalizeFieldErrors maps server error payloads (JSON pointer paths, bracket
// notation, wrapper prefixes) onto the form's dotted field identifiers.
// Unknown paths become form-level errors so messages are never lost.
func NormalizeFieldErrors(form model.Form, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	fieldPaths := make(map[string]struct{})
	collectFieldPaths(form.Fields, "", fieldPaths)

	for rawPath, messages := range payload {
		cleaned := cleanMessages(messages)
		if len(cleaned) == 0 {
			continue
		}
		if path, ok := matchFieldPath(rawPath, fieldPaths); ok {
			mapping.Fields[path] = append(mapping.Fields[path], cleaned...)
			continue
		}
		mapping.Form = append(mapping.Form, cleaned...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

func cleanMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		trimmed := strings.TrimSpace(msg)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// matchFieldPath normalises the raw path and finds the longest prefix that
// names a real field. Wrapper segments such as body/data and numeric array
// indexes are dropped before matching.
func matchFieldPath(raw string, fieldPaths map[string]struct{}) (string, bool) {
	segments := splitErrorPath(raw)
	if len(segments) == 0 {
		return "", false
	}

	candidates := [][]string{segments, dropWrappers(segments), dropIndexes(dropWrappers(segments))}
	for _, candidate := range candidates {
		for end := len(candidate); end > 0; end-- {
			path := strings.Join(candidate[:end], ".")
			if _, ok := fieldPaths[path]; ok {
				return path, true
			}
		}
	}
	return "", false
}

func splitErrorPath(raw string) []string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "#")
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrappers(segments []string) []string {
	wrappers := map[string]struct{}{
		"body": {}, "request": {}, "payload": {}, "data": {}, "attributes": {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func collectFieldPaths(fields []model.Field, prefix string, dest map[string]struct{}) {
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		switch {
		case field.Type == model.FieldTypeFieldsetFlat:
			dest[joinPath(prefix, name)] = struct{}{}
			collectFieldPaths(field.Fields, prefix, dest)
		case field.Type == model.FieldTypeFieldset:
			path := joinPath(prefix, name)
			dest[path] = struct{}{}
			collectFieldPaths(field.Fields, path, dest)
		default:
			dest[joinPath(prefix, name)] = struct{}{}
		}
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}
