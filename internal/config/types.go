package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a non-negative time.Duration read from text such as "90s".
// git.timeout and DSPROJ_GIT_TIMEOUT use it; koanf decodes it through
// UnmarshalText.
type Duration time.Duration

// UnmarshalText parses a Go duration string and rejects negative values.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	if parsed < 0 {
		return fmt.Errorf("duration cannot be negative: %s", text)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText writes the duration back in the form UnmarshalText accepts.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration().String()), nil
}

// Duration returns d as a time.Duration, ready for context.WithTimeout.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

const redacted = "[REDACTED]"

// Secret holds git.password. Every formatting and encoding path prints
// [REDACTED]; only Value returns the password, for the git transport.
type Secret string

// String returns [REDACTED], or "" when unset.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

// GoString keeps %#v from printing the password.
func (s Secret) GoString() string {
	return "Secret(" + redacted + ")"
}

// Value returns the password for building git basic auth.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether a password was configured.
func (s Secret) IsSet() bool {
	return s != ""
}

// MarshalJSON encodes the redacted form.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalText encodes the redacted form, which also covers YAML output.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText stores the raw password read from config.yaml or
// DSPROJ_GIT_PASSWORD.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
