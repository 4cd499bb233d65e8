// Package registry manages the data sources of a dataset project.
//
// The Registry is the only mutator of a project's source section. Add and
// Remove keep the persisted project document consistent with the data on
// disk: a source is saved only after its data has been provisioned and
// verified, and a failed Add undoes every side effect it had.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/dsproj/internal/ignore"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/project"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"github.com/fyrsmithlabs/dsproj/internal/vcs"
	"github.com/fyrsmithlabs/dsproj/internal/verify"
)

// Registry adds, removes and queries the sources of one loaded project.
// It is not safe for concurrent use.
type Registry struct {
	project  *schema.Project
	store    project.Store
	vcs      vcs.Adapter
	verifier verify.Verifier
	excludes *ignore.Parser
	logger   *logging.Logger
}

// New returns a Registry over p. adapter may be nil, in which case
// vcs-tracked sources are rejected.
func New(p *schema.Project, store project.Store, adapter vcs.Adapter, verifier verify.Verifier, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		project:  p,
		store:    store,
		vcs:      adapter,
		verifier: verifier,
		excludes: ignore.NewParser([]string{ignore.Filename}, nil),
		logger:   logger.Named("registry"),
	}
}

// Project returns the project the registry operates on.
func (r *Registry) Project() *schema.Project {
	return r.project
}

// Entry is one registered source as returned by List.
type Entry struct {
	Name   string
	Source *schema.Source
}

// Get returns a copy of the named source.
func (r *Registry) Get(name string) (*schema.Source, error) {
	src, ok := r.project.Sources.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
	}
	return src.Clone(), nil
}

// List returns copies of all sources in insertion order.
func (r *Registry) List() []Entry {
	entries := make([]Entry, 0, r.project.Sources.Len())
	for name, src := range r.project.Sources.All() {
		entries = append(entries, Entry{Name: name, Source: src.Clone()})
	}
	return entries
}

// Location returns the filesystem location holding the source's data.
func (r *Registry) Location(src *schema.Source) string {
	switch {
	case src.StorageMode == schema.StorageVCS:
		return r.project.SourceDir(src.Name)
	case filepath.IsAbs(src.URL):
		return src.URL
	default:
		return filepath.Join(r.project.Layout.ProjectDir, filepath.FromSlash(src.URL))
	}
}

func (r *Registry) opContext(ctx context.Context, op, name string) context.Context {
	ctx = logging.WithOperation(ctx, op)
	if dir := r.project.Layout.ProjectDir; dir != "" {
		ctx = logging.WithProjectDir(ctx, dir)
	}
	if name != "" {
		ctx = logging.WithSource(ctx, name)
	}
	return ctx
}

func (r *Registry) requireAdapter() error {
	if r.vcs == nil {
		return ErrNoAdapter
	}
	return nil
}

// DeriveName returns the source name implied by a path or URL: the final
// segment with its extension stripped. Trailing separators are ignored.
func DeriveName(url string) string {
	s := strings.TrimRight(url, `/\`)
	if i := strings.LastIndexAny(s, `/\:`); i >= 0 {
		s = s[i+1:]
	}
	if ext := filepath.Ext(s); ext != "" && ext != s {
		s = strings.TrimSuffix(s, ext)
	}
	return s
}
