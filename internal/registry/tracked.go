package registry

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"github.com/fyrsmithlabs/dsproj/internal/vcs"
)

// Checkout clones a vcs-tracked source whose checkout was deferred and
// verifies its data. The source stays registered when verification fails.
func (r *Registry) Checkout(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	ctx = r.opContext(ctx, "source.checkout", name)
	if err := r.requireAdapter(); err != nil {
		return err
	}
	src, ok := r.project.Sources.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	if src.StorageMode != schema.StorageVCS {
		return fmt.Errorf("%w: %q is %s", ErrNotVCS, name, src.StorageMode)
	}
	if err := r.vcs.Checkout(ctx, name); err != nil {
		return err
	}
	r.logger.Info(ctx, "source checked out")
	if r.verifier == nil {
		return nil
	}
	return r.verifier.Verify(ctx, r.Location(src), src.Format, src.Options)
}

// Status reports the worktree state of every tracked source.
func (r *Registry) Status(ctx context.Context) ([]vcs.SourceStatus, error) {
	ctx = r.opContext(ctx, "source.status", "")
	if err := r.requireAdapter(); err != nil {
		return nil, err
	}
	return r.vcs.Status(ctx)
}

// CheckUpdates compares local and remote heads of the named tracked
// sources, or of all of them when names is empty.
func (r *Registry) CheckUpdates(ctx context.Context, remote string, names []string) ([]vcs.UpdateStatus, error) {
	ctx = r.opContext(ctx, "source.check_updates", "")
	if err := r.requireAdapter(); err != nil {
		return nil, err
	}
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return nil, err
		}
		src, ok := r.project.Sources.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
		}
		if src.StorageMode != schema.StorageVCS {
			return nil, fmt.Errorf("%w: %q is %s", ErrNotVCS, name, src.StorageMode)
		}
	}
	return r.vcs.CheckUpdates(ctx, remote, names)
}
