package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/fyrsmithlabs/dsproj/internal/fsutil"
	"github.com/fyrsmithlabs/dsproj/internal/logging"
	"github.com/fyrsmithlabs/dsproj/internal/schema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDetached is returned when saving a project without a directory.
	ErrDetached = errors.New("project is detached")

	// ErrNotFound indicates no project exists at the given location.
	ErrNotFound = errors.New("project not found")

	// ErrExists is returned by Init when the directory already holds a project.
	ErrExists = errors.New("project already exists")

	// ErrCorrupted indicates a project file could not be parsed.
	ErrCorrupted = errors.New("project file corrupted")
)

// LayoutFilename is the layout file inside the env directory.
const LayoutFilename = "layout.yaml"

// documentKeys is the order top-level keys are written in.
var documentKeys = []string{"project_name", "format_version", "sources", "models", "build_targets"}

var sectionKeys = []string{"sources", "models", "build_targets"}

// Store loads and saves projects.
type Store interface {
	Load(dir string) (*schema.Project, error)
	Save(p *schema.Project) error
}

// FileStore is a Store backed by YAML files in the project directory.
type FileStore struct {
	envDir string
	logger *logging.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store that keeps tool-managed files in envDir,
// relative to each project directory. An empty envDir uses the default.
func NewFileStore(envDir string, logger *logging.Logger) *FileStore {
	if envDir == "" {
		envDir = schema.DefaultLayout().EnvDir
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{envDir: envDir, logger: logger.Named("project")}
}

// EnvDir returns the env directory name projects are recognized by.
func (s *FileStore) EnvDir() string { return s.envDir }

// Load reads the project in dir.
func (s *FileStore) Load(dir string) (*schema.Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project dir: %w", err)
	}

	layout, err := s.loadLayout(abs)
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(abs, layout.ProjectFilename)
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	raw, err := decodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupted, configPath, err)
	}
	for _, k := range schema.InternalFields() {
		if _, ok := raw[k]; ok {
			return nil, &schema.SchemaValidationError{
				Schema: "project",
				Field:  k,
				Reason: "internal field cannot be set in " + layout.ProjectFilename,
			}
		}
	}

	for k, v := range layout.toRaw() {
		raw[k] = v
	}
	raw["project_dir"] = abs
	raw["detached"] = false

	p, err := schema.NewProject(raw)
	if err != nil {
		return nil, err
	}
	s.logger.Trace(logging.WithProjectDir(context.Background(), abs), "project loaded", zap.Int("sources", p.Sources.Len()))
	return p, nil
}

// Save writes the project document and layout file.
func (s *FileStore) Save(p *schema.Project) error {
	if p.Layout.Detached || p.Layout.ProjectDir == "" {
		return ErrDetached
	}

	doc, err := encodeDocument(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	lay, err := encodeLayout(p.Layout)
	if err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}

	envPath := p.EnvPath()
	if err := os.MkdirAll(envPath, 0755); err != nil {
		return fmt.Errorf("failed to create env directory: %w", err)
	}
	// The two files are not replaced together. layout.yaml goes first and
	// only when it changed, so an interrupted Save leaves the previous
	// config.yaml next to a layout that still describes it.
	layoutPath := filepath.Join(envPath, LayoutFilename)
	if cur, err := os.ReadFile(layoutPath); err != nil || !bytes.Equal(cur, lay) {
		if err := fsutil.WriteFileAtomic(layoutPath, lay, 0644); err != nil {
			return err
		}
	}
	if err := fsutil.WriteFileAtomic(p.ConfigPath(), doc, 0644); err != nil {
		return err
	}
	return nil
}

// decodeDocument parses a project document keeping section entry order.
func decodeDocument(data []byte) (map[string]any, error) {
	raw := make(map[string]any)

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return raw, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: document must be a mapping", root.Line)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if _, dup := raw[key]; dup {
			return nil, fmt.Errorf("line %d: duplicate key %q", root.Content[i].Line, key)
		}
		if slices.Contains(sectionKeys, key) {
			sec, err := decodeSectionNode(key, val)
			if err != nil {
				return nil, err
			}
			raw[key] = sec
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		raw[key] = v
	}
	return raw, nil
}

func decodeSectionNode(key string, n *yaml.Node) (any, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		// Let the schema layer report the type error.
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return v, nil
	}

	sec := make(schema.RawSection, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var value map[string]any
		if err := n.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("%s.%s: line %d: %w", key, n.Content[i].Value, n.Content[i].Line, err)
		}
		sec = append(sec, schema.RawEntry{Name: n.Content[i].Value, Value: value})
	}
	return sec, nil
}

// encodeDocument renders the hand-editable document: top-level keys in
// documentKeys order, section entries in insertion order, element keys sorted.
func encodeDocument(p *schema.Project) ([]byte, error) {
	m := p.ToMap(false)
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range documentKeys {
		val := &yaml.Node{}
		if sec, ok := m[k].(schema.RawSection); ok {
			var err error
			if val, err = sectionNode(sec); err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
		} else if err := val.Encode(m[k]); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		root.Content = append(root.Content, scalarNode(k), val)
	}
	return marshalNode(root)
}

func sectionNode(sec schema.RawSection) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(sec) == 0 {
		n.Style = yaml.FlowStyle
	}
	for _, e := range sec {
		val := &yaml.Node{}
		// map[string]any encodes with sorted keys.
		if err := val.Encode(e.Value); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		n.Content = append(n.Content, scalarNode(e.Name), val)
	}
	return n, nil
}

func scalarNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func marshalNode(n *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
