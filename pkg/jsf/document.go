package jsf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document wraps a raw JSF payload (JSON Schema draft 2020-12 plus x-jsf-*
// extensions) together with its origin and the parsed object tree.
type Document struct {
	source  Source
	raw     []byte
	payload map[string]any
}

// NewDocument parses the raw bytes (JSON or YAML) and validates the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("jsf: source is required")
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Document{}, errors.New("jsf: raw document is empty")
	}

	payload, err := parsePayload(trimmed)
	if err != nil {
		return Document{}, err
	}

	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone, payload: payload}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source { return d.source }

// Raw returns a defensive copy of the payload bytes.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Payload returns a deep copy of the parsed object tree so callers can mutate
// it without aliasing the document.
func (d Document) Payload() map[string]any {
	cloned, _ := cloneAny(d.payload).(map[string]any)
	return cloned
}

func parsePayload(trimmed []byte) (map[string]any, error) {
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return nil, fmt.Errorf("jsf: parse document: %w", err)
		}
		if payload == nil {
			return nil, errors.New("jsf: document is null")
		}
		return payload, nil
	}

	var node any
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, fmt.Errorf("jsf: parse yaml document: %w", err)
	}
	normalized, err := normalizeYAML(node)
	if err != nil {
		return nil, err
	}
	payload, ok := normalized.(map[string]any)
	if !ok {
		return nil, errors.New("jsf: yaml document root is not an object")
	}
	return payload, nil
}

// normalizeYAML rewrites yaml.v3 decoded nodes into the map[string]any shape
// the rest of the pipeline traverses.
func normalizeYAML(node any) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			converted, err := normalizeYAML(value)
			if err != nil {
				return nil, err
			}
			out[key] = converted
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			str, ok := key.(string)
			if !ok {
				return nil, fmt.Errorf("jsf: non-string yaml key %v", key)
			}
			converted, err := normalizeYAML(value)
			if err != nil {
				return nil, err
			}
			out[str] = converted
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(typed))
		for _, value := range typed {
			converted, err := normalizeYAML(value)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
		return out, nil
	case int:
		return float64(typed), nil
	case int64:
		return float64(typed), nil
	default:
		return typed, nil
	}
}

func cloneAny(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = cloneAny(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, val := range typed {
			out[idx] = cloneAny(val)
		}
		return out
	default:
		return typed
	}
}
