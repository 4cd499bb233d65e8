package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject_Defaults(t *testing.T) {
	p, err := NewProject(map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "undefined", p.Name)
	assert.Equal(t, CurrentFormatVersion, p.FormatVersion)
	assert.Equal(t, "sources", p.Layout.SourcesDir)
	assert.Equal(t, ".dsproj", p.Layout.EnvDir)
	assert.True(t, p.Layout.Detached, "no project_dir means detached")
	assert.Zero(t, p.Sources.Len())
}

func TestNewProject_SectionOrderPreserved(t *testing.T) {
	raw := map[string]any{
		"project_name": "demo",
		"sources": RawSection{
			{Name: "zeta", Value: map[string]any{"url": "/z", "format": "voc"}},
			{Name: "alpha", Value: map[string]any{"url": "/a", "format": "coco"}},
		},
	}
	p, err := NewProject(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, p.Sources.Names())

	out := p.ToMap(false)
	sec, ok := out["sources"].(RawSection)
	require.True(t, ok)
	require.Len(t, sec, 2)
	assert.Equal(t, "zeta", sec[0].Name)
	assert.Equal(t, "alpha", sec[1].Name)
}

func TestNewProject_NestedErrorNamesField(t *testing.T) {
	raw := map[string]any{
		"sources": map[string]any{
			"voc": map[string]any{"url": "/data/voc", "format": 7},
		},
	}
	_, err := NewProject(raw)
	require.Error(t, err)

	var sve *SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, "project", sve.Schema)
	assert.Equal(t, "sources.voc.format", sve.Field)
}

func TestNewProject_RejectsWrongTypes(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"format_version string", map[string]any{"format_version": "one"}, "format_version"},
		{"format_version fraction", map[string]any{"format_version": 1.5}, "format_version"},
		{"detached string", map[string]any{"detached": "yes"}, "detached"},
		{"sources list", map[string]any{"sources": []any{"a"}}, "sources"},
		{"unknown top-level", map[string]any{"targets": map[string]any{}}, "targets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProject(tt.raw)
			var sve *SchemaValidationError
			require.ErrorAs(t, err, &sve)
			assert.Equal(t, tt.field, sve.Field)
		})
	}
}

func TestProject_ToMapInternalFields(t *testing.T) {
	p := NewDefaultProject()
	p.Layout.ProjectDir = "/work/demo"

	public := p.ToMap(false)
	for _, key := range InternalFields() {
		assert.NotContains(t, public, key)
	}

	full := p.ToMap(true)
	assert.Equal(t, "/work/demo", full["project_dir"])
	assert.Equal(t, "sources", full["sources_dir"])
}

func TestProject_SourcePaths(t *testing.T) {
	p := NewDefaultProject()
	p.Layout.ProjectDir = "/work/demo"

	assert.Equal(t, "sources/voc", p.LocalSourceDir("voc"))
	assert.Equal(t, "/work/demo/sources/voc", p.SourceDir("voc"))
	assert.Equal(t, "/work/demo/config.yaml", p.ConfigPath())
}

func TestBuildTarget_RootHead(t *testing.T) {
	target, err := NewBuildTarget("train", map[string]any{
		"stages": []any{
			map[string]any{"name": "root", "type": "source"},
			map[string]any{"name": "filter", "type": "transform", "parameters": map[string]any{"expr": "/item"}},
		},
		"parents": []any{"base"},
	})
	require.NoError(t, err)

	root, ok := target.Root()
	require.True(t, ok)
	assert.Equal(t, "root", root.Name)

	head, ok := target.Head()
	require.True(t, ok)
	assert.Equal(t, "filter", head.Name)
	assert.Equal(t, []string{"base"}, target.Parents)

	empty := &BuildTarget{Name: "empty"}
	_, ok = empty.Root()
	assert.False(t, ok)
}

func TestBuildTarget_BadStage(t *testing.T) {
	_, err := NewBuildTarget("t", map[string]any{
		"stages": []any{map[string]any{"name": "a", "bogus": 1}},
	})
	var sve *SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, "stages[0].bogus", sve.Field)
}

func TestSection_DeleteInsertRestoresPosition(t *testing.T) {
	s := NewSection[int]()
	s.Set("a", 1)
	s.Set("b", 2)
	s.Set("c", 3)

	idx := s.Delete("b")
	assert.Equal(t, 1, idx)
	assert.Equal(t, []string{"a", "c"}, s.Names())
	assert.Equal(t, -1, s.Delete("missing"))

	s.Insert(idx, "b", 2)
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())

	s.Set("a", 10)
	v, _ := s.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"a", "b", "c"}, s.Names())
}
