package schema

import (
	"path"
	"path/filepath"
)

// CurrentFormatVersion is the project document version written by this tool.
const CurrentFormatVersion = 1

var projectFields = []field{
	{name: "project_name", kind: kindString},
	{name: "format_version", kind: kindInt},

	{name: "sources", kind: kindSection},
	{name: "models", kind: kindSection},
	{name: "build_targets", kind: kindSection},

	{name: "sources_dir", kind: kindString, internal: true},
	{name: "models_dir", kind: kindString, internal: true},
	{name: "plugins_dir", kind: kindString, internal: true},
	{name: "dataset_dir", kind: kindString, internal: true},
	{name: "project_filename", kind: kindString, internal: true},
	{name: "project_dir", kind: kindString, internal: true},
	{name: "env_dir", kind: kindString, internal: true},
	{name: "detached", kind: kindBool, internal: true},
}

// InternalFields lists the project keys that are maintained by the tool and
// kept out of the hand-editable document.
func InternalFields() []string {
	var names []string
	for _, f := range projectFields {
		if f.internal {
			names = append(names, f.name)
		}
	}
	return names
}

// Layout holds the immutable path layout of a project.
type Layout struct {
	SourcesDir      string
	ModelsDir       string
	PluginsDir      string
	DatasetDir      string
	ProjectFilename string
	// ProjectDir is absolute once a project is loaded from disk.
	ProjectDir string
	EnvDir     string
	// Detached is set when the project has no backing directory.
	Detached bool
}

// DefaultLayout returns the layout used when a document does not override it.
func DefaultLayout() Layout {
	return Layout{
		SourcesDir:      "sources",
		ModelsDir:       "models",
		PluginsDir:      "plugins",
		DatasetDir:      "dataset",
		ProjectFilename: "config.yaml",
		EnvDir:          ".dsproj",
	}
}

// Project is the aggregate root of a dataset project.
//
// Sources is mutated only by the source registry, which keeps names unique
// and never stores a source whose data failed to provision or verify.
type Project struct {
	Name          string
	FormatVersion int

	Sources      *Section[*Source]
	Models       *Section[*Model]
	BuildTargets *Section[*BuildTarget]

	Layout Layout
}

// NewDefaultProject returns an empty detached project.
func NewDefaultProject() *Project {
	layout := DefaultLayout()
	layout.Detached = true
	return &Project{
		Name:          "undefined",
		FormatVersion: CurrentFormatVersion,
		Sources:       NewSection[*Source](),
		Models:        NewSection[*Model](),
		BuildTargets:  NewSection[*BuildTarget](),
		Layout:        layout,
	}
}

// NewProject constructs a Project from a raw document mapping. Missing
// fields take their defaults; internal fields may be present.
func NewProject(raw map[string]any) (*Project, error) {
	if err := checkFields("project", raw, projectFields); err != nil {
		return nil, err
	}

	p := NewDefaultProject()
	if name := stringField(raw, "project_name"); name != "" {
		p.Name = name
	}
	p.FormatVersion = intField(raw, "format_version", CurrentFormatVersion)

	var err error
	if p.Sources, err = decodeSection("project", "sources", raw["sources"], NewSource); err != nil {
		return nil, err
	}
	if p.Models, err = decodeSection("project", "models", raw["models"], NewModel); err != nil {
		return nil, err
	}
	if p.BuildTargets, err = decodeSection("project", "build_targets", raw["build_targets"], NewBuildTarget); err != nil {
		return nil, err
	}

	overrideString(&p.Layout.SourcesDir, raw, "sources_dir")
	overrideString(&p.Layout.ModelsDir, raw, "models_dir")
	overrideString(&p.Layout.PluginsDir, raw, "plugins_dir")
	overrideString(&p.Layout.DatasetDir, raw, "dataset_dir")
	overrideString(&p.Layout.ProjectFilename, raw, "project_filename")
	overrideString(&p.Layout.ProjectDir, raw, "project_dir")
	overrideString(&p.Layout.EnvDir, raw, "env_dir")
	if _, ok := raw["detached"]; ok {
		p.Layout.Detached = boolField(raw, "detached")
	} else {
		p.Layout.Detached = p.Layout.ProjectDir == ""
	}
	return p, nil
}

func overrideString(dst *string, raw map[string]any, key string) {
	if s := stringField(raw, key); s != "" {
		*dst = s
	}
}

// ToMap returns the document form of p. Internal layout fields are included
// only when includeInternal is set. Sections are RawSection values in
// insertion order.
func (p *Project) ToMap(includeInternal bool) map[string]any {
	m := map[string]any{
		"project_name":   p.Name,
		"format_version": p.FormatVersion,
		"sources":        encodeSection(p.Sources, (*Source).ToMap),
		"models":         encodeSection(p.Models, (*Model).ToMap),
		"build_targets":  encodeSection(p.BuildTargets, (*BuildTarget).ToMap),
	}
	if includeInternal {
		for k, v := range p.Layout.toMap() {
			m[k] = v
		}
	}
	return m
}

func (l Layout) toMap() map[string]any {
	return map[string]any{
		"sources_dir":      l.SourcesDir,
		"models_dir":       l.ModelsDir,
		"plugins_dir":      l.PluginsDir,
		"dataset_dir":      l.DatasetDir,
		"project_filename": l.ProjectFilename,
		"project_dir":      l.ProjectDir,
		"env_dir":          l.EnvDir,
		"detached":         l.Detached,
	}
}

// LocalSourceDir returns the project-relative, slash-separated directory of
// a source's provisioned data.
func (p *Project) LocalSourceDir(name string) string {
	return path.Join(filepath.ToSlash(p.Layout.SourcesDir), name)
}

// SourceDir returns the filesystem directory of a source's provisioned data.
func (p *Project) SourceDir(name string) string {
	return filepath.Join(p.Layout.ProjectDir, filepath.FromSlash(p.LocalSourceDir(name)))
}

// ConfigPath returns the path of the project document.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Layout.ProjectDir, p.Layout.ProjectFilename)
}

// EnvPath returns the tool-managed environment directory.
func (p *Project) EnvPath() string {
	return filepath.Join(p.Layout.ProjectDir, p.Layout.EnvDir)
}

// PluginsPath returns the plugins directory inside the environment directory.
func (p *Project) PluginsPath() string {
	return filepath.Join(p.EnvPath(), p.Layout.PluginsDir)
}
