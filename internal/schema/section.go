package schema

import (
	"fmt"
	"iter"
	"slices"
)

// RawEntry is one named element of a section in document order.
type RawEntry struct {
	Name  string
	Value map[string]any
}

// RawSection is the order-preserving raw form of a section. Project stores
// produce it when decoding so that entry order survives a round trip; plain
// map[string]any sections are accepted too and are ordered by name.
type RawSection []RawEntry

// Section is an insertion-ordered collection of named records.
type Section[T any] struct {
	keys  []string
	items map[string]T
}

// NewSection returns an empty section.
func NewSection[T any]() *Section[T] {
	return &Section[T]{items: make(map[string]T)}
}

// Len returns the number of entries.
func (s *Section[T]) Len() int {
	return len(s.keys)
}

// Has reports whether name is present.
func (s *Section[T]) Has(name string) bool {
	_, ok := s.items[name]
	return ok
}

// Get returns the entry for name.
func (s *Section[T]) Get(name string) (T, bool) {
	v, ok := s.items[name]
	return v, ok
}

// Set assigns name. New names are appended; existing names keep their position.
func (s *Section[T]) Set(name string, v T) {
	if _, ok := s.items[name]; !ok {
		s.keys = append(s.keys, name)
	}
	s.items[name] = v
}

// Delete removes name and returns the position it occupied, or -1.
func (s *Section[T]) Delete(name string) int {
	if _, ok := s.items[name]; !ok {
		return -1
	}
	idx := slices.Index(s.keys, name)
	s.keys = slices.Delete(s.keys, idx, idx+1)
	delete(s.items, name)
	return idx
}

// Insert puts name back at position idx. Used to undo a Delete.
func (s *Section[T]) Insert(idx int, name string, v T) {
	if _, ok := s.items[name]; ok {
		s.items[name] = v
		return
	}
	idx = max(0, min(idx, len(s.keys)))
	s.keys = slices.Insert(s.keys, idx, name)
	s.items[name] = v
}

// Names returns entry names in insertion order.
func (s *Section[T]) Names() []string {
	return slices.Clone(s.keys)
}

// All iterates entries in insertion order.
func (s *Section[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, k := range s.keys {
			if !yield(k, s.items[k]) {
				return
			}
		}
	}
}

// decodeSection builds a section from raw using the element constructor.
func decodeSection[T any](schemaName, fieldName string, raw any, build func(name string, raw map[string]any) (T, error)) (*Section[T], error) {
	sec := NewSection[T]()
	var entries RawSection
	switch v := raw.(type) {
	case nil:
		return sec, nil
	case RawSection:
		entries = v
	case map[string]any:
		for _, k := range sortedKeys(v) {
			m, ok := v[k].(map[string]any)
			if v[k] != nil && !ok {
				return nil, &SchemaValidationError{
					Schema: schemaName,
					Field:  fieldName + "." + k,
					Reason: fmt.Sprintf("expected mapping, got %T", v[k]),
				}
			}
			entries = append(entries, RawEntry{Name: k, Value: m})
		}
	default:
		return nil, &SchemaValidationError{Schema: schemaName, Field: fieldName, Reason: fmt.Sprintf("expected section, got %T", raw)}
	}

	for _, e := range entries {
		if sec.Has(e.Name) {
			return nil, &SchemaValidationError{Schema: schemaName, Field: fieldName + "." + e.Name, Reason: "duplicate name"}
		}
		item, err := build(e.Name, e.Value)
		if err != nil {
			return nil, prefixed(err, schemaName, fieldName+"."+e.Name)
		}
		sec.Set(e.Name, item)
	}
	return sec, nil
}

// encodeSection is the inverse of decodeSection.
func encodeSection[T any](sec *Section[T], enc func(T) map[string]any) RawSection {
	out := make(RawSection, 0, sec.Len())
	for name, v := range sec.All() {
		out = append(out, RawEntry{Name: name, Value: enc(v)})
	}
	return out
}
