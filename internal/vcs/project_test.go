package vcs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeProjectFile(t *testing.T, dir, rel string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(rel), 0644))
	return p
}

func TestProjectRepo_Add(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	projectDir := filepath.Join(root, "proj")
	config := writeProjectFile(t, projectDir, "config.yaml")
	writeProjectFile(t, projectDir, "dataset/train.txt")
	writeProjectFile(t, projectDir, "dataset/val.txt")
	writeProjectFile(t, projectDir, "untracked.txt")

	logger := logging.NewTestLogger()
	pr, err := OpenProjectRepo(projectDir, logger.Logger)
	require.NoError(t, err)
	assert.Equal(t, root, pr.Root())

	staged, err := pr.Add(context.Background(), []string{config, filepath.Join(projectDir, "dataset")})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj/config.yaml", "proj/dataset"}, staged)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	status, err := wt.Status()
	require.NoError(t, err)
	for _, path := range []string{"proj/config.yaml", "proj/dataset/train.txt", "proj/dataset/val.txt"} {
		assert.Equal(t, git.Added, status.File(path).Staging, path)
	}
	assert.Equal(t, git.Untracked, status.File("proj/untracked.txt").Staging)
	logger.AssertLogged(t, zapcore.InfoLevel, "paths tracked")
}

func TestProjectRepo_AddOutsideProject(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	projectDir := filepath.Join(root, "proj")
	inside := writeProjectFile(t, projectDir, "config.yaml")
	outside := writeProjectFile(t, root, "notes.txt")

	pr, err := OpenProjectRepo(projectDir, nil)
	require.NoError(t, err)

	_, err = pr.Add(context.Background(), []string{inside, outside})
	assert.ErrorIs(t, err, ErrVCS)
	assert.ErrorIs(t, err, ErrOutsideProject)

	wt, err := repo.Worktree()
	require.NoError(t, err)
	status, err := wt.Status()
	require.NoError(t, err)
	assert.Equal(t, git.Untracked, status.File("proj/config.yaml").Staging, "nothing is staged when a path is rejected")
}

func TestProjectRepo_AddMissingPath(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	pr, err := OpenProjectRepo(root, nil)
	require.NoError(t, err)
	_, err = pr.Add(context.Background(), []string{filepath.Join(root, "nope.txt")})
	assert.ErrorIs(t, err, ErrVCS)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestOpenProjectRepo_NotARepository(t *testing.T) {
	_, err := OpenProjectRepo(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrVCS)
	assert.ErrorIs(t, err, git.ErrRepositoryNotExists)
}
