package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.xml")
	writeFile(t, src, "<annotations/>")
	require.NoError(t, os.Chmod(src, 0600))

	dst := filepath.Join(dir, "b.xml")
	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<annotations/>", string(got))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCopyFile_Directory(t *testing.T) {
	dir := t.TempDir()
	err := CopyFile(dir, filepath.Join(dir, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestCopyTree(t *testing.T) {
	src := filepath.Join(t.TempDir(), "voc")
	writeFile(t, filepath.Join(src, "Annotations", "1.xml"), "one")
	writeFile(t, filepath.Join(src, "JPEGImages", "1.jpg"), "img")
	writeFile(t, filepath.Join(src, "readme.txt"), "hi")

	dst := filepath.Join(t.TempDir(), "sources", "voc")
	require.NoError(t, CopyTree(context.Background(), src, dst))

	for _, rel := range []string{"Annotations/1.xml", "JPEGImages/1.jpg", "readme.txt"} {
		assert.FileExists(t, filepath.Join(dst, filepath.FromSlash(rel)))
	}
	got, err := os.ReadFile(filepath.Join(dst, "Annotations", "1.xml"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))
}

func TestCopyTreeFunc_Skip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "set")
	writeFile(t, filepath.Join(src, "images", "1.jpg"), "img")
	writeFile(t, filepath.Join(src, "images", "cache", "thumb.jpg"), "thumb")
	writeFile(t, filepath.Join(src, "train.log"), "log")

	var seen [][]string
	skip := func(path []string, isDir bool) bool {
		seen = append(seen, slices.Clone(path))
		return (isDir && path[len(path)-1] == "cache") || filepath.Ext(path[len(path)-1]) == ".log"
	}

	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, CopyTreeFunc(context.Background(), src, dst, skip))

	assert.FileExists(t, filepath.Join(dst, "images", "1.jpg"))
	assert.NoDirExists(t, filepath.Join(dst, "images", "cache"))
	assert.NoFileExists(t, filepath.Join(dst, "train.log"))
	assert.Contains(t, seen, []string{"images", "cache"})
	assert.NotContains(t, seen, []string{"images", "cache", "thumb.jpg"})
}

func TestCopyTree_FollowsSymlinks(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "target")
	writeFile(t, filepath.Join(target, "f.txt"), "linked")
	src := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(src, 0755))
	if err := os.Symlink(target, filepath.Join(src, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	dst := filepath.Join(base, "dst")
	require.NoError(t, CopyTree(context.Background(), src, dst))
	assert.FileExists(t, filepath.Join(dst, "link", "f.txt"))
}

func TestCopyTree_DestinationExists(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	err := CopyTree(context.Background(), src, dst)
	assert.ErrorIs(t, err, ErrExists)
}

func TestCopyTree_NotADirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "f")
	writeFile(t, src, "x")
	err := CopyTree(context.Background(), src, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestCopyTree_Cancelled(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "a"), "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := CopyTree(ctx, src, filepath.Join(t.TempDir(), "out"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExistsAndIsDir(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "f")
	writeFile(t, f, "x")

	assert.True(t, Exists(dir))
	assert.True(t, Exists(f))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
	assert.True(t, IsDir(dir))
	assert.False(t, IsDir(f))
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "2.PNG"), "")
	writeFile(t, filepath.Join(dir, "a", "1.jpg"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	files, err := FindFilesByExtension(dir, ".jpg", ".png")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a", "1.jpg"),
		filepath.Join(dir, "b", "2.PNG"),
	}, files)

	assert.Panics(t, func() { _, _ = FindFilesByExtension(dir) })
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, WriteFileAtomic(path, []byte("a: 1\n"), 0644))
	require.NoError(t, WriteFileAtomic(path, []byte("a: 2\n"), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a: 2\n", string(got))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "f"), []byte("x"), 0644)
	assert.Error(t, err)
}

func TestCopyTree_SymlinkLoop(t *testing.T) {
	for name, target := range map[string]string{
		"self":        ".",
		"parent":      "..",
		"grandparent": filepath.Join("..", ".."),
		"filesystem":  string(filepath.Separator),
	} {
		t.Run(name, func(t *testing.T) {
			base := t.TempDir()
			src := filepath.Join(base, "src")
			writeFile(t, filepath.Join(src, "a", "f.txt"), "data")
			if err := os.Symlink(target, filepath.Join(src, "a", "link")); err != nil {
				t.Skipf("symlinks unsupported: %v", err)
			}

			err := CopyTree(context.Background(), src, filepath.Join(base, "dst"))
			assert.ErrorIs(t, err, ErrSymlinkLoop)
		})
	}
}
