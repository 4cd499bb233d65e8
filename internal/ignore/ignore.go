// Package ignore reads gitignore-style exclude files from the root of a
// source that is copied into a project.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Filename is the exclude file read from a copied source's root.
const Filename = ".dsprojignore"

// Parser reads and parses gitignore-style files.
type Parser struct {
	// IgnoreFiles is the list of ignore file names to look for.
	IgnoreFiles []string

	// FallbackPatterns are returned when no ignore files are found.
	FallbackPatterns []string
}

// NewParser creates a new ignore file parser with the given configuration.
func NewParser(ignoreFiles, fallbackPatterns []string) *Parser {
	return &Parser{
		IgnoreFiles:      ignoreFiles,
		FallbackPatterns: fallbackPatterns,
	}
}

// ParseDir reads all ignore files from root and returns their patterns in
// file order. If no ignore files are found, returns fallback patterns.
func (p *Parser) ParseDir(root string) ([]string, error) {
	var patterns []string
	foundAny := false

	for _, ignoreFile := range p.IgnoreFiles {
		filePatterns, err := parseFile(filepath.Join(root, ignoreFile))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		patterns = append(patterns, filePatterns...)
		foundAny = true
	}

	if !foundAny {
		return p.FallbackPatterns, nil
	}
	return deduplicate(patterns), nil
}

// Matcher returns a matcher for the patterns found in root.
func (p *Parser) Matcher(root string) (*Matcher, error) {
	patterns, err := p.ParseDir(root)
	if err != nil {
		return nil, err
	}
	return NewMatcher(patterns), nil
}

// Matcher reports whether a path relative to the source root is excluded.
// Later patterns take precedence and "!" negates, as in gitignore.
type Matcher struct {
	m gitignore.Matcher
}

// NewMatcher compiles gitignore patterns.
func NewMatcher(patterns []string) *Matcher {
	ps := make([]gitignore.Pattern, 0, len(patterns))
	for _, line := range patterns {
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return &Matcher{m: gitignore.NewMatcher(ps)}
}

// Match reports whether the path given as segments is excluded. A nil
// Matcher excludes nothing.
func (m *Matcher) Match(path []string, isDir bool) bool {
	if m == nil {
		return false
	}
	return m.m.Match(path, isDir)
}

func parseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if pattern := parseLine(scanner.Text()); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// parseLine returns the pattern on a line, or "" for comments and blank
// lines.
func parseLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" || strings.HasPrefix(line, "#") {
		return ""
	}
	return line
}

// deduplicate removes duplicate patterns while preserving order.
func deduplicate(patterns []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(patterns))

	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	return result
}
