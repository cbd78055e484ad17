package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map is a configuration tree node. Values are either scalars
// (string, int, float64, bool, nil), []any sequences, or nested Map values.
type Map map[string]any

// KeyNotFoundError is returned by Get when a dotted path does not exist.
type KeyNotFoundError struct {
	Path string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("configuration key %q not found", e.Path)
}

// Parse decodes a YAML document into a Map. An empty document yields an
// empty Map; any other non-mapping root is rejected.
func Parse(data []byte) (Map, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if root == nil {
		return Map{}, nil
	}
	m, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top-level YAML node must be a mapping, got %T", root)
	}
	return normalize(m).(Map), nil
}

// ParseValue decodes a single scalar or inline YAML value, as supplied by a
// key=value command-line override. "8" becomes an int, "0.5" a float,
// "true" a bool, "[1,2,3]" a sequence; anything else stays a string.
func ParseValue(raw string) any {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return normalize(v)
}

// Merge combines base and override without mutating either. Mapping values
// merge recursively by key; scalar and sequence values from override replace
// the base value wholesale.
func Merge(base, override Map) Map {
	out := base.Clone()
	for k, v := range override {
		baseMap, baseOK := out[k].(Map)
		overrideMap, overrideOK := v.(Map)
		if baseOK && overrideOK {
			out[k] = Merge(baseMap, overrideMap)
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

// Get returns the value at a dotted path, e.g. "training.batch_size".
func (m Map) Get(path string) (any, error) {
	parts := strings.Split(path, ".")
	var current any = m
	for i, part := range parts {
		node, ok := current.(Map)
		if !ok {
			return nil, &KeyNotFoundError{Path: strings.Join(parts[:i+1], ".")}
		}
		current, ok = node[part]
		if !ok {
			return nil, &KeyNotFoundError{Path: strings.Join(parts[:i+1], ".")}
		}
	}
	return current, nil
}

// Set writes a value at a dotted path, creating intermediate mappings as
// needed. Setting through an existing non-mapping value is an error.
func (m Map) Set(path string, value any) error {
	if path == "" {
		return fmt.Errorf("empty configuration path")
	}
	parts := strings.Split(path, ".")
	current := m
	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		next, exists := current[part]
		if !exists {
			child := Map{}
			current[part] = child
			current = child
			continue
		}
		child, ok := next.(Map)
		if !ok {
			return fmt.Errorf("configuration key %q is not a mapping", strings.Join(parts[:i+1], "."))
		}
		current = child
	}
	current[parts[len(parts)-1]] = deepCopy(value)
	return nil
}

// Clone returns a deep copy of the tree.
func (m Map) Clone() Map {
	return deepCopy(m).(Map)
}

// normalize rewrites the raw yaml.v3 decode result so that every nested
// mapping is a Map, giving the rest of the module a single node vocabulary.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case Map:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case Map:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case map[string]any:
		out := make(Map, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
