package schema

import (
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// StorageMode determines how a source's data is retained and removed.
type StorageMode string

const (
	// StorageLinked leaves data at its original location.
	StorageLinked StorageMode = "linked"
	// StorageCopied copies data under the project's sources directory.
	StorageCopied StorageMode = "copied"
	// StorageVCS tracks a remote repository checked out under the sources directory.
	StorageVCS StorageMode = "vcs-tracked"
)

// ParseStorageMode parses s. The empty string means StorageLinked.
func ParseStorageMode(s string) (StorageMode, error) {
	switch StorageMode(s) {
	case "":
		return StorageLinked, nil
	case StorageLinked, StorageCopied, StorageVCS:
		return StorageMode(s), nil
	}
	return "", fmt.Errorf("unknown storage mode %q (want linked, copied or vcs-tracked)", s)
}

// IsLocal reports whether the mode provisions from the local filesystem.
func (m StorageMode) IsLocal() bool {
	return m == StorageLinked || m == StorageCopied
}

var sourceFields = []field{
	{name: "url", kind: kindString},
	{name: "format", kind: kindString},
	{name: "options", kind: kindMap},
	{name: "storage_mode", kind: kindString},
	{name: "branch", kind: kindString},
}

// Source is one registered data source.
type Source struct {
	Name        string
	URL         string
	Format      string
	Options     map[string]any
	StorageMode StorageMode
	// Branch is only meaningful for StorageVCS.
	Branch string
}

// NewSource constructs a Source named name from a raw document mapping.
func NewSource(name string, raw map[string]any) (*Source, error) {
	if err := checkFields("source", raw, sourceFields); err != nil {
		return nil, err
	}
	mode, err := ParseStorageMode(stringField(raw, "storage_mode"))
	if err != nil {
		return nil, &SchemaValidationError{Schema: "source", Field: "storage_mode", Reason: err.Error()}
	}
	s := &Source{
		Name:        name,
		URL:         stringField(raw, "url"),
		Format:      stringField(raw, "format"),
		Options:     mapField(raw, "options"),
		StorageMode: mode,
		Branch:      stringField(raw, "branch"),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks required fields.
func (s *Source) Validate() error {
	if s.Name == "" {
		return &SchemaValidationError{Schema: "source", Field: "name", Reason: "must not be empty"}
	}
	if !isPathSegment(s.Name) {
		return &SchemaValidationError{Schema: "source", Field: "name", Reason: fmt.Sprintf("%q is not a single path segment", s.Name)}
	}
	if s.URL == "" {
		return &SchemaValidationError{Schema: "source", Field: "url", Reason: "must not be empty"}
	}
	if s.Format == "" {
		return &SchemaValidationError{Schema: "source", Field: "format", Reason: "must not be empty"}
	}
	if s.Branch != "" && s.StorageMode != StorageVCS {
		return &SchemaValidationError{Schema: "source", Field: "branch", Reason: "only allowed for vcs-tracked sources"}
	}
	return nil
}

// isPathSegment reports whether name can be joined under a directory without
// leaving it.
func isPathSegment(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}

// ToMap returns the document form of s. The name is the section key and is
// not included.
func (s *Source) ToMap() map[string]any {
	m := map[string]any{
		"url":          s.URL,
		"format":       s.Format,
		"storage_mode": string(s.StorageMode),
	}
	if len(s.Options) > 0 {
		m["options"] = copyMap(s.Options)
	}
	if s.Branch != "" {
		m["branch"] = s.Branch
	}
	return m
}

// Clone returns a copy of s whose options map is not shared.
func (s *Source) Clone() *Source {
	c := *s
	c.Options = copyMap(s.Options)
	return &c
}

// Equal reports whether s and o describe the same source.
func (s *Source) Equal(o *Source) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.Name == o.Name &&
		s.URL == o.URL &&
		s.Format == o.Format &&
		s.StorageMode == o.StorageMode &&
		s.Branch == o.Branch &&
		maps.EqualFunc(s.Options, o.Options, func(a, b any) bool { return reflect.DeepEqual(a, b) })
}
