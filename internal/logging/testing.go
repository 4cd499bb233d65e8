// internal/logging/testing.go
package logging

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger wraps Logger with test observation capabilities.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger creates a logger for testing with full observation.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger: &Logger{
			zap:    zap.New(core),
			config: NewDefaultConfig(),
		},
		observed: observed,
	}
}

// All returns all logged entries.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// FilterMessage returns entries matching message substring.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessage(msg)
}

// Reset clears all logged entries.
func (t *TestLogger) Reset() {
	t.observed.TakeAll()
}

// AssertLogged verifies a log at level containing message was logged.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	for _, entry := range t.observed.All() {
		if entry.Level == level && strings.Contains(entry.Message, msgContains) {
			return
		}
	}
	tb.Errorf("expected log at %v containing %q, logs: %+v", level, msgContains, t.observed.All())
}

// AssertNotLogged verifies no log at level containing message was logged.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msgContains string) {
	tb.Helper()
	for _, entry := range t.observed.All() {
		if entry.Level == level && strings.Contains(entry.Message, msgContains) {
			tb.Errorf("unexpected log at %v containing %q", level, msgContains)
		}
	}
}

// AssertField verifies a field with key and value exists in message.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected interface{}) {
	tb.Helper()
	for _, entry := range t.observed.FilterMessage(msg).All() {
		for _, field := range entry.Context {
			if field.Key == key {
				// Compare based on field type
				if field.Type == zapcore.StringType && field.String == expected {
					return
				}
				if reflect.DeepEqual(field.Interface, expected) {
					return
				}
			}
		}
	}
	tb.Errorf("field %q=%v not found in message %q", key, expected, msg)
}

// urlPassword matches the user:password@ part of a URL. Masked URLs
// (scheme://***@host) do not match.
var urlPassword = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^/@\s:]+:[^/@\s]+@`)

// AssertNoSecrets fails if a message or field value carries a password in a
// URL, a bearer token, or an unredacted value under a sensitive key such as
// git.password.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	sensitiveKeys := []string{"password", "secret", "token", "authorization", "credential"}
	patterns := []*regexp.Regexp{
		urlPassword,
		regexp.MustCompile(`(?i)bearer\s+\S+`),
	}
	leaks := func(s string) bool {
		for _, re := range patterns {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}

	for _, entry := range t.observed.All() {
		if leaks(entry.Message) {
			tb.Errorf("secret in message: %q", entry.Message)
		}
		for _, field := range entry.Context {
			var value string
			switch field.Type {
			case zapcore.StringType:
				value = field.String
			case zapcore.ErrorType:
				if err, ok := field.Interface.(error); ok {
					value = err.Error()
				}
			default:
				continue
			}

			key := strings.ToLower(field.Key)
			for _, sensitive := range sensitiveKeys {
				if strings.Contains(key, sensitive) && value != "" && !strings.Contains(value, "[REDACTED]") {
					tb.Errorf("field %q of %q not redacted", field.Key, entry.Message)
				}
			}
			if leaks(value) {
				tb.Errorf("secret in field %q of %q: %q", field.Key, entry.Message, value)
			}
		}
	}
}

// AssertOperation verifies every entry matching msg carries op.id.
func (t *TestLogger) AssertOperation(tb testing.TB, msg string) {
	tb.Helper()
	entries := t.observed.FilterMessage(msg).All()
	if len(entries) == 0 {
		tb.Errorf("no entries for message %q", msg)
	}
	for _, entry := range entries {
		found := false
		for _, field := range entry.Context {
			if field.Key == "op.id" && field.String != "" {
				found = true
			}
		}
		if !found {
			tb.Errorf("message %q missing op.id", msg)
		}
	}
}
