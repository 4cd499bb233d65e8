package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// ErrOutsideProject indicates a path to track is not inside the project.
var ErrOutsideProject = errors.New("path is outside the project")

// ProjectRepo is the git repository holding a project directory. It stages
// project files such as config.yaml or build outputs; tracked sources are
// handled by the Adapter.
type ProjectRepo struct {
	projectDir string
	root       string
	repo       *git.Repository
	logger     *logging.Logger
}

// OpenProjectRepo opens the repository containing projectDir, searching
// parent directories for .git.
func OpenProjectRepo(projectDir string, logger *logging.Logger) (*ProjectRepo, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, &Error{Op: "open", Name: projectDir, Err: err}
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &Error{Op: "open", Name: abs, Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, &Error{Op: "open", Name: abs, Err: err}
	}
	return &ProjectRepo{
		projectDir: abs,
		root:       wt.Filesystem.Root(),
		repo:       repo,
		logger:     logger.Named("vcs"),
	}, nil
}

// Root returns the worktree root of the repository.
func (p *ProjectRepo) Root() string { return p.root }

// Add stages paths, which must lie inside the project directory. Relative
// paths are resolved against the current directory. Directories are added
// recursively. It returns the staged paths relative to the worktree root.
func (p *ProjectRepo) Add(ctx context.Context, paths []string) ([]string, error) {
	ctx = logging.WithProjectDir(ctx, p.projectDir)
	wt, err := p.repo.Worktree()
	if err != nil {
		return nil, &Error{Op: "track", Name: p.root, Err: err}
	}

	rels := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := p.relPath(path)
		if err != nil {
			return nil, &Error{Op: "track", Name: path, Err: err}
		}
		rels = append(rels, rel)
	}

	staged := make([]string, 0, len(rels))
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return staged, err
		}
		if _, err := wt.Add(rel); err != nil {
			return staged, &Error{Op: "track", Name: rel, Err: err}
		}
		staged = append(staged, rel)
		p.logger.Debug(ctx, "path staged", zap.String("path", rel))
	}
	p.logger.Info(ctx, "paths tracked", zap.Int("count", len(staged)))
	return staged, nil
}

// relPath maps path to a slash-separated path relative to the worktree root.
func (p *ProjectRepo) relPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !within(p.projectDir, abs) {
		return "", fmt.Errorf("%w: %s", ErrOutsideProject, abs)
	}
	if _, err := os.Lstat(abs); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
