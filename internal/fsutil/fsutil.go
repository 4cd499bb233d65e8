// Package fsutil provides the file system primitives used to provision
// sources: file and tree copy, existence checks and recursive search.
package fsutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrExists is returned when a copy destination is already present.
var ErrExists = errors.New("destination already exists")

// ErrSymlinkLoop is returned when a symlinked directory inside a copied tree
// leads back to the tree or to one of its parents.
var ErrSymlinkLoop = errors.New("symlink loop")

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers never overwrite something they cannot inspect.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path is a directory, following symlinks.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CopyFile copies the contents and permission bits of src to dst.
// dst is truncated if it exists; its parent must exist.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("copy %s: is a directory", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// SkipFunc reports whether an entry of a copied tree is left out. path holds
// the entry's segments relative to the tree root.
type SkipFunc func(path []string, isDir bool) bool

// CopyTree copies the directory src to dst, which must not exist.
// Symlinks are followed, except that a symlinked directory resolving to a
// directory already being copied, or to src or one of its parents, fails
// with ErrSymlinkLoop. Cancelling ctx stops the copy between files; the
// partially written dst is left for the caller to remove.
func CopyTree(ctx context.Context, src, dst string) error {
	return CopyTreeFunc(ctx, src, dst, nil)
}

// CopyTreeFunc is CopyTree leaving out entries for which skip returns true.
// Skipped directories are not descended into.
func CopyTreeFunc(ctx context.Context, src, dst string, skip SkipFunc) error {
	if Exists(dst) {
		return fmt.Errorf("%w: %s", ErrExists, dst)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("copy tree %s: not a directory", src)
	}
	root, err := filepath.EvalSymlinks(src)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}
	if root, err = filepath.Abs(root); err != nil {
		return fmt.Errorf("resolve %s: %w", src, err)
	}
	tc := &treeCopy{ctx: ctx, root: root, skip: skip}
	return tc.copyDir(src, dst, nil, []fs.FileInfo{info})
}

// treeCopy holds the state of one CopyTreeFunc call.
type treeCopy struct {
	ctx  context.Context
	root string
	skip SkipFunc
}

// copyDir copies src into dst. open holds the directories on the current
// path, src last.
func (tc *treeCopy) copyDir(src, dst string, rel []string, open []fs.FileInfo) error {
	perm := open[len(open)-1].Mode().Perm()
	if err := os.MkdirAll(dst, perm|0700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dst, err)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", src, err)
	}
	for _, e := range entries {
		if err := tc.ctx.Err(); err != nil {
			return err
		}
		from := filepath.Join(src, e.Name())
		to := filepath.Join(dst, e.Name())

		info, err := os.Stat(from)
		if err != nil {
			return fmt.Errorf("stat %s: %w", from, err)
		}
		entryRel := append(slices.Clip(rel), e.Name())
		if tc.skip != nil && tc.skip(entryRel, info.IsDir()) {
			continue
		}
		if info.IsDir() {
			if e.Type()&fs.ModeSymlink != 0 {
				if err := tc.checkLink(from, info, open); err != nil {
					return err
				}
			}
			if err := tc.copyDir(from, to, entryRel, append(slices.Clip(open), info)); err != nil {
				return err
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := CopyFile(from, to); err != nil {
			return err
		}
	}
	return nil
}

func (tc *treeCopy) checkLink(link string, target fs.FileInfo, open []fs.FileInfo) error {
	for _, dir := range open {
		if os.SameFile(dir, target) {
			return fmt.Errorf("%w: %s", ErrSymlinkLoop, link)
		}
	}
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", link, err)
	}
	if contains(resolved, tc.root) {
		return fmt.Errorf("%w: %s points to a parent of the copied tree", ErrSymlinkLoop, link)
	}
	return nil
}

// contains reports whether path is dir or lies below it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// FindFilesByExtension recursively searches root for files whose name ends
// with one of the given extensions, compared case-insensitively. Paths are
// returned in lexical order.
func FindFilesByExtension(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("extensions must not be empty")
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, ext := range extensions {
			if strings.HasSuffix(name, strings.ToLower(ext)) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}
