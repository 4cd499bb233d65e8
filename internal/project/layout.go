package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"gopkg.in/yaml.v3"
)

// layoutFile is the on-disk form of the internal layout fields.
type layoutFile struct {
	ProjectFilename string `yaml:"project_filename"`
	EnvDir          string `yaml:"env_dir"`
	SourcesDir      string `yaml:"sources_dir"`
	ModelsDir       string `yaml:"models_dir"`
	PluginsDir      string `yaml:"plugins_dir"`
	DatasetDir      string `yaml:"dataset_dir"`
}

func (l layoutFile) toRaw() map[string]any {
	raw := make(map[string]any, 6)
	set := func(k, v string) {
		if v != "" {
			raw[k] = v
		}
	}
	set("project_filename", l.ProjectFilename)
	set("env_dir", l.EnvDir)
	set("sources_dir", l.SourcesDir)
	set("models_dir", l.ModelsDir)
	set("plugins_dir", l.PluginsDir)
	set("dataset_dir", l.DatasetDir)
	return raw
}

// loadLayout reads <dir>/<envDir>/layout.yaml. A project without the env
// directory is not a project.
func (s *FileStore) loadLayout(dir string) (layoutFile, error) {
	envPath := filepath.Join(dir, s.envDir)
	if !fsutil.IsDir(envPath) {
		return layoutFile{}, fmt.Errorf("%w: %s has no %s directory", ErrNotFound, dir, s.envDir)
	}

	def := schema.DefaultLayout()
	l := layoutFile{
		ProjectFilename: def.ProjectFilename,
		EnvDir:          s.envDir,
		SourcesDir:      def.SourcesDir,
		ModelsDir:       def.ModelsDir,
		PluginsDir:      def.PluginsDir,
		DatasetDir:      def.DatasetDir,
	}

	path := filepath.Join(envPath, LayoutFilename)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return layoutFile{}, fmt.Errorf("failed to read layout: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil && !errors.Is(err, io.EOF) {
		return layoutFile{}, fmt.Errorf("%w: %s: %v", ErrCorrupted, path, err)
	}
	// The directory the layout was found in is authoritative.
	l.EnvDir = s.envDir
	return l, nil
}

func encodeLayout(l schema.Layout) ([]byte, error) {
	return yaml.Marshal(layoutFile{
		ProjectFilename: l.ProjectFilename,
		EnvDir:          l.EnvDir,
		SourcesDir:      l.SourcesDir,
		ModelsDir:       l.ModelsDir,
		PluginsDir:      l.PluginsDir,
		DatasetDir:      l.DatasetDir,
	})
}
