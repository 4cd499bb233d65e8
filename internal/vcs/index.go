package vcs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"gopkg.in/yaml.v3"
)

// IndexFilename is the tracked-source index file inside the env directory.
const IndexFilename = "vcs.yaml"

const indexVersion = 1

// Entry is one tracked source in the index.
type Entry struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
}

type indexFile struct {
	Version int     `yaml:"version"`
	Sources []Entry `yaml:"sources"`
}

// index is the in-memory form of the index file, kept in insertion order.
type index struct {
	path    string
	entries []Entry
}

func loadIndex(path string) (*index, error) {
	idx := &index{path: path}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var f indexFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse index %s: %w", path, err)
	}
	if f.Version != 0 && f.Version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d in %s", f.Version, path)
	}
	idx.entries = f.Sources
	return idx, nil
}

func (i *index) find(name string) int {
	return slices.IndexFunc(i.entries, func(e Entry) bool { return e.Name == name })
}

func (i *index) get(name string) (Entry, bool) {
	n := i.find(name)
	if n < 0 {
		return Entry{}, false
	}
	return i.entries[n], true
}

func (i *index) add(e Entry) {
	i.entries = append(i.entries, e)
}

func (i *index) remove(name string) bool {
	n := i.find(name)
	if n < 0 {
		return false
	}
	i.entries = slices.Delete(i.entries, n, n+1)
	return true
}

func (i *index) save() error {
	data, err := yaml.Marshal(indexFile{Version: indexVersion, Sources: i.entries})
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(i.path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	return fsutil.WriteFileAtomic(i.path, data, 0644)
}
