package verify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"go.uber.org/zap"
)

// PluginKind is the kind of location a plugin format accepts.
type PluginKind string

const (
	PluginKindFile PluginKind = "file"
	PluginKindDir  PluginKind = "dir"
)

// PluginFormat is a format described by a TOML file under
// <plugins dir>/formats/. Example:
//
//	name = "kitti"
//	kind = "dir"
//	extensions = [".png"]
//	require = ["label_2/*.txt", "image_2"]
type PluginFormat struct {
	Name       string     `toml:"name"`
	Kind       PluginKind `toml:"kind"`
	Extensions []string   `toml:"extensions"`
	Require    []string   `toml:"require"`
}

// Validate checks the descriptor fields.
func (p *PluginFormat) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	switch p.Kind {
	case PluginKindFile, PluginKindDir:
	default:
		return fmt.Errorf("kind must be %q or %q, got %q", PluginKindFile, PluginKindDir, p.Kind)
	}
	if p.Kind == PluginKindFile && len(p.Require) > 0 {
		return errors.New("require is only valid for dir formats")
	}
	for _, pattern := range p.Require {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("bad require pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// LoadPluginFormat decodes a single descriptor file.
func LoadPluginFormat(path string) (*PluginFormat, error) {
	var p PluginFormat
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("decode %s: unknown key %q", path, undecoded[0].String())
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// LoadPlugins registers every descriptor in <pluginsDir>/formats/*.toml.
// A missing directory is not an error. Invalid descriptors and names that
// clash with registered formats are skipped with a warning. It returns the
// names registered.
func (c *Catalog) LoadPlugins(ctx context.Context, pluginsDir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(pluginsDir, "formats", "*.toml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		if _, err := os.Stat(pluginsDir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, nil
	}
	slices.Sort(paths)

	var loaded []string
	for _, path := range paths {
		p, err := LoadPluginFormat(path)
		if err != nil {
			c.logger.Warn(ctx, "skipping format plugin", zap.String("path", path), zap.Error(err))
			continue
		}
		if err := c.Register(p.Name, p.check); err != nil {
			c.logger.Warn(ctx, "skipping format plugin", zap.String("path", path), zap.Error(err))
			continue
		}
		c.logger.Debug(ctx, "loaded format plugin", zap.String("format", p.Name), zap.String("path", path))
		loaded = append(loaded, p.Name)
	}
	return loaded, nil
}

func (p *PluginFormat) check(_ context.Context, location string, _ map[string]any) error {
	isDir := fsutil.IsDir(location)
	switch p.Kind {
	case PluginKindFile:
		if isDir {
			return fmt.Errorf("%s is a directory, format %s expects a file", location, p.Name)
		}
		if len(p.Extensions) > 0 && !p.hasExtension(location) {
			return fmt.Errorf("%s: extension must be one of %s", location, strings.Join(p.Extensions, " "))
		}
		return nil
	case PluginKindDir:
		if !isDir {
			return fmt.Errorf("%s is not a directory", location)
		}
	}

	if len(p.Extensions) > 0 {
		files, err := fsutil.FindFilesByExtension(location, p.Extensions...)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("%w: no files with extensions %s", ErrNoItems, strings.Join(p.Extensions, " "))
		}
	}
	for _, pattern := range p.Require {
		matches, err := filepath.Glob(filepath.Join(location, pattern))
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: nothing matches %q", ErrNoItems, pattern)
		}
	}
	return nil
}

func (p *PluginFormat) hasExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range p.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
