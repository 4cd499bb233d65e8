package registry

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// RemoveOptions control Remove.
type RemoveOptions struct {
	// Force ignores a missing source and suppresses VCS untrack errors.
	Force bool
	// KeepData leaves the source's data directory in place.
	KeepData bool
}

// Remove unregisters a source and saves the project before deleting any
// data. Data deletion is best-effort and never fails the call. The name is
// validated even with Force, since it selects the directory to delete.
func (r *Registry) Remove(ctx context.Context, name string, opts RemoveOptions) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	ctx = r.opContext(ctx, "source.remove", name)

	src, registered := r.project.Sources.Get(name)
	if !registered && !opts.Force {
		return fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}

	untracked := false
	if r.vcs != nil && r.vcs.HasTracked(name) {
		if err := r.vcs.Untrack(ctx, name, opts.Force); err != nil {
			if !opts.Force {
				return err
			}
			r.logger.Warn(ctx, "untrack failed, continuing", zap.Error(err))
		} else {
			untracked = true
		}
	}

	if registered {
		idx := r.project.Sources.Delete(name)
		if err := r.store.Save(r.project); err != nil {
			r.project.Sources.Insert(idx, name, src)
			if untracked {
				if terr := r.vcs.Track(context.WithoutCancel(ctx), name, src.URL, src.Branch); terr != nil {
					r.logger.Warn(ctx, "restoring vcs tracking failed", zap.Error(terr))
				}
			}
			return err
		}
	} else {
		r.logger.Debug(ctx, "source not registered")
	}

	if !opts.KeepData {
		r.removeData(ctx, name)
	}
	r.logger.Info(ctx, "source removed")
	return nil
}

func (r *Registry) removeData(ctx context.Context, name string) {
	if r.project.Layout.Detached || r.project.Layout.ProjectDir == "" {
		return
	}
	dir := r.project.SourceDir(name)
	if err := os.RemoveAll(dir); err != nil {
		r.logger.Warn(ctx, "removing source data failed", zap.String("path", dir), zap.Error(err))
	}
}
