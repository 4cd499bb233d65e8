package schema

import (
	"errors"
	"fmt"
)

// ErrSchemaValidation matches every *SchemaValidationError via errors.Is.
var ErrSchemaValidation = errors.New("schema validation failed")

// SchemaValidationError reports a field that violates its declared type.
type SchemaValidationError struct {
	// Schema is the record being constructed (source, model, project, ...).
	Schema string
	// Field is the offending key; dotted for nested records (sources.voc.url).
	Field  string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s: field %q: %s", e.Schema, e.Field, e.Reason)
}

// Is reports whether target is ErrSchemaValidation.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// prefixed returns a copy of err with its field nested under prefix.
// Errors of other types are returned unchanged.
func prefixed(err error, schemaName, prefix string) error {
	var sve *SchemaValidationError
	if !errors.As(err, &sve) {
		return err
	}
	return &SchemaValidationError{
		Schema: schemaName,
		Field:  prefix + "." + sve.Field,
		Reason: sve.Reason,
	}
}
