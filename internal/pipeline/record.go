package pipeline

import (
	"strings"
)

// DefaultTagsField holds the status tags of a record.
const DefaultTagsField = "tags"

// Record is one decoded JSON object flowing through the pipeline.
type Record map[string]any

// ParseFieldRef splits a field reference into its path. A reference is a
// plain name ("user") or a bracketed path ("[process][uid]").
func ParseFieldRef(ref string) []string {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, "[") || !strings.HasSuffix(ref, "]") {
		return []string{ref}
	}

	inner := strings.TrimSuffix(strings.TrimPrefix(ref, "["), "]")
	return strings.Split(inner, "][")
}

// Get returns the value at ref.
func (r Record) Get(ref string) (any, bool) {
	var current any = map[string]any(r)
	for _, key := range ParseFieldRef(ref) {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set stores value at ref, creating intermediate objects as needed. An
// intermediate value that is not an object is replaced.
func (r Record) Set(ref string, value any) {
	path := ParseFieldRef(ref)
	current := map[string]any(r)
	for _, key := range path[:len(path)-1] {
		next, ok := asMap(current[key])
		if !ok {
			next = make(map[string]any)
			current[key] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}

// AppendTag appends tag to the list at field, creating the list when the
// field is absent and promoting a scalar value to a one-element list.
func (r Record) AppendTag(field, tag string) {
	existing, ok := r.Get(field)
	if !ok || existing == nil {
		r.Set(field, []any{tag})
		return
	}

	switch tags := existing.(type) {
	case []any:
		r.Set(field, append(tags, tag))
	case []string:
		list := make([]any, 0, len(tags)+1)
		for _, t := range tags {
			list = append(list, t)
		}
		r.Set(field, append(list, tag))
	default:
		r.Set(field, []any{tags, tag})
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}
