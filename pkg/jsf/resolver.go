package jsf

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultMaxRefDepth  = 64
	defaultMaxDocuments = 32
)

// ResolveOptions configures $ref expansion.
type ResolveOptions struct {
	// AllowHTTPRefs toggles resolution of http/https refs through the loader.
	AllowHTTPRefs bool
	// MaxRefDepth caps the depth of $ref resolution chains.
	MaxRefDepth int
	// MaxDocuments caps the number of unique external documents loaded.
	MaxDocuments int
}

// Resolver expands JSON Schema $ref references with cycle and depth guards.
type Resolver struct {
	loader Loader
	opts   ResolveOptions
}

// NewResolver constructs a resolver backed by the supplied loader. A nil
// loader restricts resolution to in-document fragments.
func NewResolver(loader Loader, opts ResolveOptions) *Resolver {
	if opts.MaxRefDepth <= 0 {
		opts.MaxRefDepth = defaultMaxRefDepth
	}
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = defaultMaxDocuments
	}
	return &Resolver{loader: loader, opts: opts}
}

// Resolve returns a copy of the document payload with every $ref expanded.
// Unresolvable refs, cycles, and depth overruns surface as errors so malformed
// schemas fail at construction time rather than dropping fields.
func (r *Resolver) Resolve(ctx context.Context, doc Document) (map[string]any, error) {
	if r == nil {
		return nil, errors.New("jsf resolver: resolver is nil")
	}
	payload := doc.Payload()
	if payload == nil {
		return nil, errors.New("jsf resolver: document payload is nil")
	}

	session := &resolveSession{
		resolver: r,
		root:     payload,
		anchors:  map[string]string{},
		external: map[string]map[string]any{},
	}
	if err := indexAnchors(payload, "#", session.anchors); err != nil {
		return nil, err
	}

	state := &refState{inStack: map[string]struct{}{}}
	resolved, err := session.resolveNode(ctx, payload, state)
	if err != nil {
		return nil, err
	}
	out, ok := resolved.(map[string]any)
	if !ok {
		return nil, errors.New("jsf resolver: resolved root is not an object")
	}
	return out, nil
}

type resolveSession struct {
	resolver *Resolver
	root     map[string]any
	anchors  map[string]string
	external map[string]map[string]any
}

type refState struct {
	stack   []string
	inStack map[string]struct{}
}

func (s *refState) push(ref string) { s.stack = append(s.stack, ref); s.inStack[ref] = struct{}{} }
func (s *refState) pop() {
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inStack, last)
}
func (s *refState) contains(ref string) bool { _, ok := s.inStack[ref]; return ok }

func (s *resolveSession) resolveNode(ctx context.Context, node any, state *refState) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		if ref := strings.TrimSpace(readString(typed, "$ref")); ref != "" {
			if len(state.stack) >= s.resolver.opts.MaxRefDepth {
				return nil, fmt.Errorf("jsf resolver: ref depth exceeds %d", s.resolver.opts.MaxRefDepth)
			}
			if state.contains(ref) {
				return nil, fmt.Errorf("jsf resolver: ref cycle detected at %s", ref)
			}
			target, err := s.resolveRef(ctx, ref)
			if err != nil {
				return nil, err
			}
			merged, err := mergeRefSiblings(target, typed)
			if err != nil {
				return nil, err
			}
			state.push(ref)
			resolved, err := s.resolveNode(ctx, merged, state)
			state.pop()
			return resolved, err
		}

		resolved := make(map[string]any, len(typed))
		for key, value := range typed {
			child, err := s.resolveNode(ctx, value, state)
			if err != nil {
				return nil, err
			}
			resolved[key] = child
		}
		return resolved, nil
	case []any:
		out := make([]any, 0, len(typed))
		for _, entry := range typed {
			child, err := s.resolveNode(ctx, entry, state)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	default:
		return node, nil
	}
}

func (s *resolveSession) resolveRef(ctx context.Context, ref string) (any, error) {
	refPath, fragment := splitRef(ref)
	if refPath == "" {
		return s.resolveFragment(s.root, s.anchors, fragment)
	}

	parsed, err := url.Parse(refPath)
	if err != nil {
		return nil, fmt.Errorf("jsf resolver: invalid ref %q", ref)
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("jsf resolver: unsupported ref scheme %q", parsed.Scheme)
	}
	if parsed.Scheme != "" && !s.resolver.opts.AllowHTTPRefs {
		return nil, fmt.Errorf("jsf resolver: http refs disabled (%s)", ref)
	}
	if s.resolver.loader == nil {
		return nil, fmt.Errorf("jsf resolver: external ref %q requires a loader", ref)
	}

	payload, ok := s.external[refPath]
	if !ok {
		if len(s.external) >= s.resolver.opts.MaxDocuments {
			return nil, fmt.Errorf("jsf resolver: exceeded max documents (%d)", s.resolver.opts.MaxDocuments)
		}
		src := SourceFromFile(refPath)
		if parsed.Scheme != "" {
			src = SourceFromURL(refPath)
		}
		doc, err := s.resolver.loader.Load(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("jsf resolver: load ref %q: %w", ref, err)
		}
		payload = doc.Payload()
		s.external[refPath] = payload
	}

	anchors := map[string]string{}
	if err := indexAnchors(payload, "#", anchors); err != nil {
		return nil, err
	}
	return s.resolveFragment(payload, anchors, fragment)
}

func (s *resolveSession) resolveFragment(root map[string]any, anchors map[string]string, fragment string) (any, error) {
	fragment = strings.TrimPrefix(fragment, "#")
	if fragment == "" {
		return cloneAny(root), nil
	}
	if strings.HasPrefix(fragment, "/") {
		return resolvePointer(root, fragment)
	}
	pointer, ok := anchors[fragment]
	if !ok {
		return nil, fmt.Errorf("jsf resolver: anchor %q not found", fragment)
	}
	return resolvePointer(root, strings.TrimPrefix(pointer, "#"))
}

func splitRef(ref string) (string, string) {
	parts := strings.SplitN(ref, "#", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}

func resolvePointer(root any, pointer string) (any, error) {
	if pointer == "" {
		return cloneAny(root), nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("jsf resolver: invalid json pointer %q", pointer)
	}

	current := root
	for _, part := range strings.Split(pointer, "/")[1:] {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, err
		}
		decoded = strings.ReplaceAll(decoded, "~1", "/")
		decoded = strings.ReplaceAll(decoded, "~0", "~")

		switch typed := current.(type) {
		case map[string]any:
			value, ok := typed[decoded]
			if !ok {
				return nil, fmt.Errorf("jsf resolver: pointer %q not found", pointer)
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(decoded)
			if err != nil || idx < 0 || idx >= len(typed) {
				return nil, fmt.Errorf("jsf resolver: pointer %q out of range", pointer)
			}
			current = typed[idx]
		default:
			return nil, fmt.Errorf("jsf resolver: pointer %q invalid", pointer)
		}
	}
	return cloneAny(current), nil
}

func indexAnchors(node any, pointer string, anchors map[string]string) error {
	switch typed := node.(type) {
	case map[string]any:
		if raw, ok := typed["$anchor"]; ok {
			name, _ := raw.(string)
			name = strings.TrimSpace(name)
			if name != "" {
				if _, exists := anchors[name]; exists {
					return fmt.Errorf("jsf resolver: duplicate anchor %q", name)
				}
				anchors[name] = pointer
			}
		}
		for key, value := range typed {
			if strings.HasPrefix(key, "x-") {
				continue
			}
			if err := indexAnchors(value, pointer+"/"+key, anchors); err != nil {
				return err
			}
		}
	case []any:
		for idx, value := range typed {
			if err := indexAnchors(value, pointer+"/"+strconv.Itoa(idx), anchors); err != nil {
				return err
			}
		}
	}
	return nil
}

func mergeRefSiblings(target any, refObj map[string]any) (any, error) {
	merged := cloneAny(target)
	mergedMap, ok := merged.(map[string]any)
	if !ok {
		for key := range refObj {
			if key != "$ref" {
				return nil, errors.New("jsf resolver: $ref target is not an object")
			}
		}
		return merged, nil
	}
	for key, value := range refObj {
		if key == "$ref" {
			continue
		}
		mergedMap[key] = value
	}
	return mergedMap, nil
}

func readString(payload map[string]any, key string) string {
	value, ok := payload[key]
	if !ok {
		return ""
	}
	str, _ := value.(string)
	return str
}
