// Package verify checks that a source location holds data of its declared
// format. It does not interpret dataset contents beyond what is needed to
// accept or reject them.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"go.uber.org/zap"
)

var (
	// ErrVerification matches every error returned by Verify.
	ErrVerification = errors.New("verification failed")

	// ErrUnknownFormat indicates the format is not in the catalog.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrNoItems indicates the location holds nothing the format recognizes.
	ErrNoItems = errors.New("no dataset items found")

	// ErrInvalidOption indicates a format option has the wrong type.
	ErrInvalidOption = errors.New("invalid format option")
)

// Error describes a failed verification.
type Error struct {
	Format   string
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s source at %s: %v", ErrVerification, e.Format, e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrVerification for every verification error.
func (e *Error) Is(target error) bool { return target == ErrVerification }

// Verifier loads a location as a dataset of the given format.
type Verifier interface {
	Verify(ctx context.Context, location, format string, options map[string]any) error
}

// CheckFunc inspects location and returns nil if it holds a dataset.
type CheckFunc func(ctx context.Context, location string, options map[string]any) error

// Catalog is a Verifier backed by named format checks.
type Catalog struct {
	checks map[string]CheckFunc
	logger *logging.Logger
}

// NewCatalog returns a catalog holding the builtin formats.
func NewCatalog(logger *logging.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Catalog{
		checks: make(map[string]CheckFunc),
		logger: logger.Named("verify"),
	}
	registerBuiltins(c)
	return c
}

// Register adds a format. It fails if the name is taken.
func (c *Catalog) Register(name string, check CheckFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("format name cannot be empty")
	}
	if _, ok := c.checks[name]; ok {
		return fmt.Errorf("format %q already registered", name)
	}
	c.checks[name] = check
	return nil
}

// Has reports whether format is known.
func (c *Catalog) Has(format string) bool {
	_, ok := c.checks[format]
	return ok
}

// Formats returns the known format names in sorted order.
func (c *Catalog) Formats() []string {
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Verify checks location against format.
func (c *Catalog) Verify(ctx context.Context, location, format string, options map[string]any) error {
	check, ok := c.checks[format]
	if !ok {
		return &Error{Format: format, Location: location, Err: fmt.Errorf("%w: %q", ErrUnknownFormat, format)}
	}
	if _, err := os.Stat(location); err != nil {
		return &Error{Format: format, Location: location, Err: err}
	}

	c.logger.Debug(ctx, "verifying source", zap.String("format", format), zap.String("location", location))
	if err := check(ctx, location, options); err != nil {
		return &Error{Format: format, Location: location, Err: err}
	}
	return nil
}

// stringOption reads an optional string option.
func stringOption(options map[string]any, key, def string) (string, error) {
	v, ok := options[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidOption, key, v)
	}
	return s, nil
}
