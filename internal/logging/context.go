// internal/logging/context.go
package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 4)

	if op := OperationFromContext(ctx); op != nil {
		fields = append(fields,
			zap.String("op.id", op.ID),
			zap.String("op.name", op.Name),
		)
	}

	if dir := ProjectDirFromContext(ctx); dir != "" {
		fields = append(fields, zap.String("project.dir", dir))
	}

	if name := SourceFromContext(ctx); name != "" {
		fields = append(fields, zap.String("source.name", name))
	}

	return fields
}

// Context key types
type operationCtxKey struct{}
type projectCtxKey struct{}
type sourceCtxKey struct{}

// Operation identifies one registry operation so its log lines, including
// rollback steps, can be correlated.
type Operation struct {
	ID   string
	Name string
}

// WithOperation starts a new operation with a fresh ID.
// An operation already in ctx is kept, so nested calls share one ID.
func WithOperation(ctx context.Context, name string) context.Context {
	if OperationFromContext(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, operationCtxKey{}, &Operation{
		ID:   uuid.NewString(),
		Name: name,
	})
}

// OperationFromContext extracts the current operation.
func OperationFromContext(ctx context.Context) *Operation {
	if op, ok := ctx.Value(operationCtxKey{}).(*Operation); ok {
		return op
	}
	return nil
}

// WithProjectDir adds the project directory to context.
func WithProjectDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, projectCtxKey{}, dir)
}

// ProjectDirFromContext extracts the project directory from context.
func ProjectDirFromContext(ctx context.Context) string {
	if d, ok := ctx.Value(projectCtxKey{}).(string); ok {
		return d
	}
	return ""
}

// WithSource adds the source name being operated on.
func WithSource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, sourceCtxKey{}, name)
}

// SourceFromContext extracts the source name from context.
func SourceFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(sourceCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
