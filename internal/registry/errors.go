package registry

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
)

// Errors for registry operations.
var (
	ErrNameConflict      = errors.New("source name already exists")
	ErrSourceNotFound    = errors.New("source not found")
	ErrDestinationExists = errors.New("destination already exists")
	ErrNotVCS            = errors.New("source is not vcs-tracked")
	ErrNoAdapter         = errors.New("no vcs adapter configured")
	ErrInvalidName       = errors.New("invalid name: must be alphanumeric with hyphens/underscores/dots")
	ErrPathTraversal     = errors.New("path traversal detected")
)

// namePattern validates source names.
// Allows alphanumeric, hyphens, underscores, and dots.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateName checks if a source name is safe to use as a directory name
// under the project's sources directory.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if len(name) > 255 {
		return fmt.Errorf("%w: name too long (max 255)", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return ErrPathTraversal
	}
	for _, c := range name {
		if c == '/' || c == '\\' || c == '\x00' {
			return ErrPathTraversal
		}
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if filepath.Clean(name) != name {
		return ErrPathTraversal
	}
	return nil
}
