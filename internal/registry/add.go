package registry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"github.com/fyrsmithlabs/dsproj/internal/ignore"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"go.uber.org/zap"
)

// AddRequest describes a source to add.
type AddRequest struct {
	// Name of the source. Derived from URL when empty.
	Name string
	// URL is a local path for linked and copied sources, a repository URL
	// for vcs-tracked ones.
	URL     string
	Format  string
	Options map[string]any
	// StorageMode defaults to linked.
	StorageMode schema.StorageMode
	// Branch to track. Only valid for vcs-tracked sources.
	Branch string
	// Checkout clones a vcs-tracked source immediately.
	Checkout bool
	// SkipVerify disables format verification.
	SkipVerify bool
}

// Add provisions, verifies and registers a new source, then saves the
// project. On failure every side effect is undone and the project is left
// as it was.
func (r *Registry) Add(ctx context.Context, req AddRequest) (*schema.Source, error) {
	mode, err := schema.ParseStorageMode(string(req.StorageMode))
	if err != nil {
		return nil, &schema.SchemaValidationError{Schema: "source", Field: "storage_mode", Reason: err.Error()}
	}

	name := req.Name
	if name == "" {
		name = DeriveName(req.URL)
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	ctx = r.opContext(ctx, "source.add", name)

	if r.project.Sources.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrNameConflict, name)
	}

	src := &schema.Source{
		Name:        name,
		URL:         req.URL,
		Format:      req.Format,
		Options:     maps.Clone(req.Options),
		StorageMode: mode,
		Branch:      req.Branch,
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	tx := newTxn(ctx, r.logger)
	defer tx.close()

	switch mode {
	case schema.StorageCopied:
		err = r.provisionCopied(ctx, tx, src)
	case schema.StorageLinked:
		err = r.provisionLinked(ctx, tx, src)
	case schema.StorageVCS:
		err = r.provisionTracked(ctx, tx, src, req.Checkout)
	}
	if err != nil {
		return nil, err
	}

	r.project.Sources.Set(name, src)
	tx.onRollback("detach source", func(context.Context) error {
		r.project.Sources.Delete(name)
		return nil
	})

	if err := r.verify(ctx, src, req); err != nil {
		return nil, err
	}

	if err := r.store.Save(r.project); err != nil {
		return nil, err
	}
	tx.commit()

	r.logger.Info(ctx, "source added",
		zap.String("format", src.Format),
		zap.String("storage_mode", string(src.StorageMode)),
		zap.String("url", logging.MaskURLCredentials(src.URL)))
	return src.Clone(), nil
}

func (r *Registry) verify(ctx context.Context, src *schema.Source, req AddRequest) error {
	if req.SkipVerify || r.verifier == nil {
		return nil
	}
	if src.StorageMode == schema.StorageVCS && !req.Checkout {
		r.logger.Warn(ctx, "source is not checked out, skipping verification")
		return nil
	}
	return r.verifier.Verify(ctx, r.Location(src), src.Format, src.Options)
}

// resolveLocal returns the absolute path and file info of a local source.
func resolveLocal(url string) (string, fs.FileInfo, error) {
	abs, err := filepath.Abs(url)
	if err != nil {
		return "", nil, fmt.Errorf("resolving %q: %w", url, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("%w: %s", ErrSourceNotFound, abs)
		}
		return "", nil, fmt.Errorf("stat source: %w", err)
	}
	return abs, info, nil
}

// createDestination creates the source's data directory, which must not exist,
// and registers its removal with tx.
func (r *Registry) createDestination(tx *txn, name string) (string, error) {
	dest := r.project.SourceDir(name)
	if fsutil.Exists(dest) {
		return "", fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating source directory: %w", err)
	}
	tx.onRollback("remove destination", func(context.Context) error {
		return os.RemoveAll(dest)
	})
	return dest, nil
}

func (r *Registry) provisionCopied(ctx context.Context, tx *txn, src *schema.Source) error {
	abs, info, err := resolveLocal(src.URL)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		dest, err := r.createDestination(tx, src.Name)
		if err != nil {
			return err
		}
		base := filepath.Base(abs)
		if err := fsutil.CopyFile(abs, filepath.Join(dest, base)); err != nil {
			return fmt.Errorf("copying source: %w", err)
		}
		src.URL = path.Join(r.project.LocalSourceDir(src.Name), base)
		r.logger.Debug(ctx, "copied source file", zap.String("from", abs))
		return nil
	}

	dest := r.project.SourceDir(src.Name)
	if fsutil.Exists(dest) {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating sources directory: %w", err)
	}
	excludes, err := r.excludes.Matcher(abs)
	if err != nil {
		return fmt.Errorf("reading %s: %w", ignore.Filename, err)
	}
	tx.onRollback("remove copied data", func(context.Context) error {
		return os.RemoveAll(dest)
	})
	if err := fsutil.CopyTreeFunc(ctx, abs, dest, excludes.Match); err != nil {
		if errors.Is(err, fsutil.ErrExists) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		}
		return fmt.Errorf("copying source: %w", err)
	}
	src.URL = r.project.LocalSourceDir(src.Name)
	r.logger.Debug(ctx, "copied source tree", zap.String("from", abs))
	return nil
}

func (r *Registry) provisionLinked(ctx context.Context, tx *txn, src *schema.Source) error {
	abs, _, err := resolveLocal(src.URL)
	if err != nil {
		return err
	}
	if _, err := r.createDestination(tx, src.Name); err != nil {
		return err
	}
	src.URL = abs
	r.logger.Debug(ctx, "linked source", zap.String("path", abs))
	return nil
}

func (r *Registry) provisionTracked(ctx context.Context, tx *txn, src *schema.Source, checkout bool) error {
	if err := r.requireAdapter(); err != nil {
		return err
	}

	dest := r.project.SourceDir(src.Name)
	if checkout {
		if fsutil.Exists(dest) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
		}
		tx.onRollback("remove checkout", func(context.Context) error {
			return os.RemoveAll(dest)
		})
	}

	if err := r.vcs.Track(ctx, src.Name, src.URL, src.Branch); err != nil {
		return err
	}
	tx.onRollback("untrack source", func(ctx context.Context) error {
		return r.vcs.Untrack(ctx, src.Name, true)
	})

	if !checkout {
		return nil
	}
	if err := r.vcs.Checkout(ctx, src.Name); err != nil {
		return err
	}
	r.logger.Debug(ctx, "checked out source", zap.String("path", dest), zap.String("url", logging.MaskURLCredentials(src.URL)))
	return nil
}
