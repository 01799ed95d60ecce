package flows

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// flowDocument accepts either a single flow or a list of flows, so a file
// can hold one scenario or a whole suite.
type flowDocument struct {
	flows []*Flow
}

func (d *flowDocument) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&d.flows)
	}
	var single Flow
	if err := node.Decode(&single); err != nil {
		return err
	}
	d.flows = []*Flow{&single}
	return nil
}

// LoadDir loads every .yaml and .yml file under dir, recursively, into the
// registry. Returns the number of flows added.
func LoadDir(reg *Registry, dir string) (int, error) {
	return LoadGlob(reg, filepath.Join(dir, "**", "*.{yaml,yml}"))
}

// LoadGlob loads flow files matching pattern into the registry. Patterns
// containing ** match directories recursively. Files load in sorted path
// order so registration order is deterministic.
func LoadGlob(reg *Registry, pattern string) (int, error) {
	matches, err := expandGlob(pattern)
	if err != nil {
		return 0, fmt.Errorf("expanding glob pattern: %w", err)
	}
	sort.Strings(matches)

	total := 0
	for _, path := range matches {
		n, err := LoadFile(reg, path)
		if err != nil {
			return total, fmt.Errorf("loading %s: %w", path, err)
		}
		total += n
	}
	return total, nil
}

// LoadFile loads one YAML flow file into the registry. Each flow is
// structurally validated and its rule compiled before it is added, so a
// broken flow file fails at load time rather than on first validation.
func LoadFile(reg *Registry, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return 0, fmt.Errorf("file is empty")
	}

	var doc flowDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parsing YAML: %w", err)
	}

	for _, f := range doc.flows {
		if err := f.Validate(); err != nil {
			return 0, err
		}
		if f.Search != nil && f.Search.EachRule != "" {
			if err := CheckRule(f.Search.EachRule); err != nil {
				return 0, fmt.Errorf("flow '%s': %w", f.ID, err)
			}
		}
		if err := reg.Add(f); err != nil {
			return 0, err
		}
	}
	return len(doc.flows), nil
}

// expandGlob expands a glob pattern, reaching for doublestar when the
// pattern needs ** or brace alternates and filepath.Glob otherwise.
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") || strings.Contains(pattern, "{") {
		return doublestar.FilepathGlob(pattern)
	}
	return filepath.Glob(pattern)
}
