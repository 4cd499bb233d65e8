// Package vcs tracks sources that live in remote git repositories.
//
// A tracked source has an entry in a machine-managed index file under the
// project's env directory and, once checked out, a worktree under the
// project's sources directory. The registry calls the Adapter; the Adapter
// never calls back.
package vcs

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrVCS matches every error returned by an Adapter.
	ErrVCS = errors.New("vcs error")

	// ErrAlreadyTracked indicates a source name is already in the index.
	ErrAlreadyTracked = errors.New("source is already tracked")

	// ErrNotTracked indicates a source name is not in the index.
	ErrNotTracked = errors.New("source is not tracked")

	// ErrDirtyWorktree indicates uncommitted changes block an untrack.
	ErrDirtyWorktree = errors.New("worktree has uncommitted changes")

	// ErrNotCheckedOut indicates a tracked source has no worktree yet.
	ErrNotCheckedOut = errors.New("source is not checked out")
)

// Error describes a failed adapter operation.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrVCS, e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports ErrVCS for every adapter error.
func (e *Error) Is(target error) bool { return target == ErrVCS }

// Adapter registers, materializes and removes VCS-tracked sources.
type Adapter interface {
	HasTracked(name string) bool
	Track(ctx context.Context, name, url, branch string) error
	Checkout(ctx context.Context, name string) error
	Untrack(ctx context.Context, name string, force bool) error
	Status(ctx context.Context) ([]SourceStatus, error)
	CheckUpdates(ctx context.Context, remote string, names []string) ([]UpdateStatus, error)
}

// SourceStatus is the local state of one tracked source.
type SourceStatus struct {
	Name       string
	URL        string
	Branch     string
	CheckedOut bool
	Head       string
	Clean      bool
}

// UpdateStatus compares a tracked source with its remote.
type UpdateStatus struct {
	Name            string
	Local           string
	Remote          string
	UpdateAvailable bool
	Err             error
}
