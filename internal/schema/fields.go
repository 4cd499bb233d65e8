package schema

import (
	"fmt"
	"math"
	"sort"
)

// fieldKind is the declared value type of a schema field.
type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
	kindMap     // free-form string-keyed mapping, contents not checked
	kindList    // sequence
	kindSection // named collection of nested records
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindInt:
		return "int"
	case kindBool:
		return "bool"
	case kindMap:
		return "mapping"
	case kindList:
		return "list"
	case kindSection:
		return "section"
	default:
		return "unknown"
	}
}

// field declares one named field of a schema.
type field struct {
	name     string
	kind     fieldKind
	internal bool
}

// checkFields validates raw against fields. Unknown keys are rejected, nil
// values are treated as absent.
func checkFields(schemaName string, raw map[string]any, fields []field) error {
	known := make(map[string]field, len(fields))
	for _, f := range fields {
		known[f.name] = f
	}

	for _, key := range sortedKeys(raw) {
		f, ok := known[key]
		if !ok {
			return &SchemaValidationError{Schema: schemaName, Field: key, Reason: "unknown field"}
		}
		v := raw[key]
		if v == nil {
			continue
		}
		if !f.kind.accepts(v) {
			return &SchemaValidationError{
				Schema: schemaName,
				Field:  key,
				Reason: fmt.Sprintf("expected %s, got %T", f.kind, v),
			}
		}
	}
	return nil
}

func (k fieldKind) accepts(v any) bool {
	switch k {
	case kindString:
		_, ok := v.(string)
		return ok
	case kindInt:
		_, ok := toInt(v)
		return ok
	case kindBool:
		_, ok := v.(bool)
		return ok
	case kindMap:
		_, ok := v.(map[string]any)
		return ok
	case kindList:
		switch v.(type) {
		case []any, []string, []map[string]any:
			return true
		}
		return false
	case kindSection:
		switch v.(type) {
		case map[string]any, RawSection:
			return true
		}
		return false
	}
	return false
}

// toInt accepts the integer shapes produced by YAML and JSON decoders.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func intField(raw map[string]any, key string, def int) int {
	if n, ok := toInt(raw[key]); ok {
		return n
	}
	return def
}

func boolField(raw map[string]any, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

// mapField returns a shallow copy so callers cannot alias the input document.
func mapField(raw map[string]any, key string) map[string]any {
	m, ok := raw[key].(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	return copyMap(m)
}

func listField(raw map[string]any, key string) []any {
	switch l := raw[key].(type) {
	case []any:
		return l
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out
	}
	return nil
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
