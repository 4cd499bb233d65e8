package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fyrsmithlabs/dsproj/internal/config"
	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// GitOptions configures remote operations of the git adapter.
type GitOptions struct {
	Remote   string
	Depth    int
	Timeout  time.Duration
	Username string
	Password config.Secret
}

// GitAdapter is an Adapter backed by go-git. Worktrees are cloned into
// <workRoot>/<name>.
type GitAdapter struct {
	workRoot string
	opts     GitOptions
	logger   *logging.Logger
	idx      *index
}

var _ Adapter = (*GitAdapter)(nil)

// NewGitAdapter loads the index at indexPath. A missing index is empty.
func NewGitAdapter(indexPath, workRoot string, opts GitOptions, logger *logging.Logger) (*GitAdapter, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.Remote == "" {
		opts.Remote = git.DefaultRemoteName
	}
	idx, err := loadIndex(indexPath)
	if err != nil {
		return nil, &Error{Op: "open", Name: indexPath, Err: err}
	}
	return &GitAdapter{
		workRoot: workRoot,
		opts:     opts,
		logger:   logger.Named("vcs"),
		idx:      idx,
	}, nil
}

// Entries returns the tracked sources in the order they were tracked.
func (a *GitAdapter) Entries() []Entry {
	return slices.Clone(a.idx.entries)
}

// HasTracked reports whether name is in the index.
func (a *GitAdapter) HasTracked(name string) bool {
	return a.idx.find(name) >= 0
}

// Track records name in the index without fetching anything.
func (a *GitAdapter) Track(ctx context.Context, name, url, branch string) error {
	if strings.TrimSpace(url) == "" {
		return &Error{Op: "track", Name: name, Err: errors.New("url cannot be empty")}
	}
	if a.HasTracked(name) {
		return &Error{Op: "track", Name: name, Err: ErrAlreadyTracked}
	}

	a.idx.add(Entry{Name: name, URL: url, Branch: branch})
	if err := a.idx.save(); err != nil {
		a.idx.remove(name)
		return &Error{Op: "track", Name: name, Err: err}
	}
	a.logger.Debug(logging.WithSource(ctx, name), "source tracked",
		zap.String("url", logging.MaskURLCredentials(url)), zap.String("branch", branch))
	return nil
}

// Checkout clones a tracked source into its worktree. An existing clone is
// left untouched.
func (a *GitAdapter) Checkout(ctx context.Context, name string) error {
	ctx = logging.WithSource(ctx, name)
	e, ok := a.idx.get(name)
	if !ok {
		return &Error{Op: "checkout", Name: name, Err: ErrNotTracked}
	}

	dest := a.worktreePath(name)
	if _, err := git.PlainOpen(dest); err == nil {
		a.logger.Info(ctx, "source already checked out", zap.String("path", dest))
		return nil
	}

	existed := fsutil.Exists(dest)
	if existed {
		entries, err := os.ReadDir(dest)
		if err != nil {
			return &Error{Op: "checkout", Name: name, Err: err}
		}
		if len(entries) > 0 {
			return &Error{Op: "checkout", Name: name, Err: fmt.Errorf("%s exists and is not a git repository", dest)}
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	opts := &git.CloneOptions{
		URL:        e.URL,
		RemoteName: a.opts.Remote,
		Depth:      a.opts.Depth,
		Auth:       a.auth(e.URL),
	}
	if e.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(e.Branch)
		opts.SingleBranch = true
	}

	start := time.Now()
	a.logger.Info(ctx, "cloning source", zap.String("url", logging.MaskURLCredentials(e.URL)), zap.String("branch", e.Branch))
	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		if !existed {
			if rmErr := os.RemoveAll(dest); rmErr != nil {
				a.logger.Warn(ctx, "failed to remove partial clone", zap.String("path", dest), zap.Error(rmErr))
			}
		}
		return &Error{Op: "checkout", Name: name, Err: err}
	}
	a.logger.Info(ctx, "source checked out", zap.String("path", dest), zap.Duration("duration", time.Since(start)))
	return nil
}

// Untrack removes name from the index. A worktree with uncommitted changes
// blocks the removal unless force is set. The worktree itself is not deleted.
func (a *GitAdapter) Untrack(ctx context.Context, name string, force bool) error {
	ctx = logging.WithSource(ctx, name)
	if !a.HasTracked(name) {
		return &Error{Op: "untrack", Name: name, Err: ErrNotTracked}
	}

	if repo, err := git.PlainOpen(a.worktreePath(name)); err == nil {
		clean, err := isClean(repo)
		switch {
		case err != nil && !force:
			return &Error{Op: "untrack", Name: name, Err: err}
		case !clean && !force:
			return &Error{Op: "untrack", Name: name, Err: ErrDirtyWorktree}
		case !clean:
			a.logger.Warn(ctx, "untracking source with uncommitted changes")
		}
	}

	prev := slices.Clone(a.idx.entries)
	a.idx.remove(name)
	if err := a.idx.save(); err != nil {
		a.idx.entries = prev
		return &Error{Op: "untrack", Name: name, Err: err}
	}
	a.logger.Debug(ctx, "source untracked")
	return nil
}

// Status reports the local state of every tracked source.
func (a *GitAdapter) Status(ctx context.Context) ([]SourceStatus, error) {
	out := make([]SourceStatus, 0, len(a.idx.entries))
	for _, e := range a.idx.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := SourceStatus{Name: e.Name, URL: e.URL, Branch: e.Branch}

		repo, err := git.PlainOpen(a.worktreePath(e.Name))
		if errors.Is(err, git.ErrRepositoryNotExists) {
			out = append(out, st)
			continue
		}
		if err != nil {
			return nil, &Error{Op: "status", Name: e.Name, Err: err}
		}
		st.CheckedOut = true

		head, err := repo.Head()
		if err != nil {
			return nil, &Error{Op: "status", Name: e.Name, Err: err}
		}
		st.Head = head.Hash().String()
		if st.Branch == "" && head.Name().IsBranch() {
			st.Branch = head.Name().Short()
		}

		if st.Clean, err = isClean(repo); err != nil {
			return nil, &Error{Op: "status", Name: e.Name, Err: err}
		}
		out = append(out, st)
	}
	return out, nil
}

// CheckUpdates compares the local HEAD of each named source, or of every
// tracked source when names is empty, with the head of its branch on remote.
// Per-source failures are reported in UpdateStatus.Err.
func (a *GitAdapter) CheckUpdates(ctx context.Context, remote string, names []string) ([]UpdateStatus, error) {
	if remote == "" {
		remote = a.opts.Remote
	}

	entries := a.idx.entries
	if len(names) > 0 {
		entries = make([]Entry, 0, len(names))
		for _, n := range names {
			e, ok := a.idx.get(n)
			if !ok {
				return nil, &Error{Op: "check-updates", Name: n, Err: ErrNotTracked}
			}
			entries = append(entries, e)
		}
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out := make([]UpdateStatus, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st := a.checkUpdate(logging.WithSource(ctx, e.Name), remote, e)
		if st.Err != nil {
			st.Err = &Error{Op: "check-updates", Name: e.Name, Err: st.Err}
		}
		out = append(out, st)
	}
	return out, nil
}

func (a *GitAdapter) checkUpdate(ctx context.Context, remote string, e Entry) UpdateStatus {
	st := UpdateStatus{Name: e.Name}

	repo, err := git.PlainOpen(a.worktreePath(e.Name))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		st.Err = ErrNotCheckedOut
		return st
	}
	if err != nil {
		st.Err = err
		return st
	}
	head, err := repo.Head()
	if err != nil {
		st.Err = err
		return st
	}
	st.Local = head.Hash().String()

	rem, err := repo.Remote(remote)
	if err != nil {
		st.Err = fmt.Errorf("remote %q: %w", remote, err)
		return st
	}
	refs, err := rem.ListContext(ctx, &git.ListOptions{Auth: a.auth(e.URL)})
	if err != nil {
		st.Err = err
		return st
	}

	target := plumbing.HEAD
	switch {
	case e.Branch != "":
		target = plumbing.NewBranchReferenceName(e.Branch)
	case head.Name().IsBranch():
		target = head.Name()
	}
	hash, ok := resolveRef(refs, target)
	if !ok {
		st.Err = fmt.Errorf("remote %q has no %s", remote, target.Short())
		return st
	}
	st.Remote = hash.String()
	st.UpdateAvailable = st.Remote != st.Local
	a.logger.Debug(ctx, "checked remote", zap.String("local", st.Local), zap.String("remote", st.Remote))
	return st
}

// resolveRef follows symbolic references within an advertised ref list.
func resolveRef(refs []*plumbing.Reference, name plumbing.ReferenceName) (plumbing.Hash, bool) {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name()] = r
	}
	for range 5 {
		r, ok := byName[name]
		if !ok {
			return plumbing.ZeroHash, false
		}
		if r.Type() == plumbing.HashReference {
			return r.Hash(), true
		}
		name = r.Target()
	}
	return plumbing.ZeroHash, false
}

func isClean(repo *git.Repository) (bool, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return false, err
	}
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	return status.IsClean(), nil
}

func (a *GitAdapter) worktreePath(name string) string {
	return filepath.Join(a.workRoot, name)
}

func (a *GitAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.opts.Timeout)
}

// auth returns basic auth for http(s) remotes when a username is configured.
func (a *GitAdapter) auth(url string) transport.AuthMethod {
	if a.opts.Username == "" {
		return nil
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil
	}
	return &githttp.BasicAuth{
		Username: a.opts.Username,
		Password: a.opts.Password.Value(),
	}
}
