package verify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadPlugins(t *testing.T) {
	plugins := t.TempDir()
	writeFile(t, filepath.Join(plugins, "formats", "kitti.toml"), `
name = "kitti"
kind = "dir"
extensions = [".png"]
require = ["label_2/*.txt"]
`)
	writeFile(t, filepath.Join(plugins, "formats", "labelme.toml"), `
name = "labelme"
kind = "file"
extensions = [".json"]
`)
	writeFile(t, filepath.Join(plugins, "formats", "clash.toml"), `
name = "voc"
kind = "dir"
`)
	writeFile(t, filepath.Join(plugins, "formats", "broken.toml"), `
name = "broken"
kind = "socket"
`)
	writeFile(t, filepath.Join(plugins, "formats", "typo.toml"), `
name = "typo"
kind = "dir"
requires = ["x"]
`)

	logger := logging.NewTestLogger()
	c := NewCatalog(logger.Logger)
	loaded, err := c.LoadPlugins(context.Background(), plugins)
	require.NoError(t, err)
	assert.Equal(t, []string{"kitti", "labelme"}, loaded)
	assert.True(t, c.Has("kitti"))
	assert.False(t, c.Has("broken"))
	assert.False(t, c.Has("typo"))
	assert.Len(t, logger.FilterMessage("skipping format plugin").All(), 3)
	logger.AssertLogged(t, zapcore.WarnLevel, "skipping format plugin")

	ctx := context.Background()

	kitti := filepath.Join(t.TempDir(), "kitti")
	writeFile(t, filepath.Join(kitti, "image_2", "000001.png"), "")
	assert.ErrorIs(t, c.Verify(ctx, kitti, "kitti", nil), ErrNoItems)
	writeFile(t, filepath.Join(kitti, "label_2", "000001.txt"), "")
	assert.NoError(t, c.Verify(ctx, kitti, "kitti", nil))

	lm := filepath.Join(t.TempDir(), "a.json")
	writeFile(t, lm, "{}")
	assert.NoError(t, c.Verify(ctx, lm, "labelme", nil))
	assert.Error(t, c.Verify(ctx, filepath.Dir(lm), "labelme", nil))

	xml := filepath.Join(t.TempDir(), "a.xml")
	writeFile(t, xml, "<a/>")
	assert.Error(t, c.Verify(ctx, xml, "labelme", nil))
}

func TestLoadPlugins_MissingDir(t *testing.T) {
	c := NewCatalog(nil)
	loaded, err := c.LoadPlugins(context.Background(), filepath.Join(t.TempDir(), "plugins"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestPluginFormat_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       PluginFormat
		wantErr string
	}{
		{"ok dir", PluginFormat{Name: "x", Kind: PluginKindDir, Require: []string{"a/*.txt"}}, ""},
		{"ok file", PluginFormat{Name: "x", Kind: PluginKindFile}, ""},
		{"no name", PluginFormat{Kind: PluginKindDir}, "name is required"},
		{"bad kind", PluginFormat{Name: "x", Kind: "pipe"}, "kind must be"},
		{"file with require", PluginFormat{Name: "x", Kind: PluginKindFile, Require: []string{"a"}}, "only valid for dir"},
		{"bad pattern", PluginFormat{Name: "x", Kind: PluginKindDir, Require: []string{"["}}, "bad require pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
