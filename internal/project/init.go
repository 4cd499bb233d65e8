package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"go.uber.org/zap"
)

// maxUpwardSearchLevels bounds FindRoot.
const maxUpwardSearchLevels = 64

// InitOptions configures a new project.
type InitOptions struct {
	// Name defaults to the directory's base name.
	Name string
	// Layout fields that are non-empty override the defaults. EnvDir always
	// comes from the store.
	Layout schema.Layout
	// Force reinitializes a directory that already holds a project. Existing
	// sources, models and build targets are discarded.
	Force bool
}

// Init creates an empty project in dir.
func (s *FileStore) Init(ctx context.Context, dir string, opts InitOptions) (*schema.Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}
	ctx = logging.WithProjectDir(ctx, abs)

	if !opts.Force && fsutil.Exists(filepath.Join(abs, s.envDir)) {
		return nil, fmt.Errorf("%w: %s", ErrExists, abs)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project dir: %w", err)
	}

	p := schema.NewDefaultProject()
	p.Name = opts.Name
	if p.Name == "" {
		p.Name = filepath.Base(abs)
	}
	override(&p.Layout.SourcesDir, opts.Layout.SourcesDir)
	override(&p.Layout.ModelsDir, opts.Layout.ModelsDir)
	override(&p.Layout.PluginsDir, opts.Layout.PluginsDir)
	override(&p.Layout.DatasetDir, opts.Layout.DatasetDir)
	override(&p.Layout.ProjectFilename, opts.Layout.ProjectFilename)
	p.Layout.EnvDir = s.envDir
	p.Layout.ProjectDir = abs
	p.Layout.Detached = false

	if !opts.Force && fsutil.Exists(p.ConfigPath()) {
		return nil, fmt.Errorf("%w: %s", ErrExists, p.ConfigPath())
	}

	if err := s.Save(p); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "project initialized", zap.String("name", p.Name))
	return p, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// FindRoot searches start and its parents for a directory containing the
// store's env directory.
func (s *FileStore) FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", start, err)
	}
	for range maxUpwardSearchLevels {
		if fsutil.IsDir(filepath.Join(dir, s.envDir)) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w: no %s directory in %s or its parents", ErrNotFound, s.envDir, start)
}
