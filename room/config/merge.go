package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// readSideFile decodes a materials or assignments file, written in JSON or YAML
func readSideFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// MergeMaterials merges materials from a file with inline materials. Inline entries win.
func (m *Materials) MergeMaterials() error {
	if m.FromFile == "" {
		return nil
	}

	var fileMaterials map[string]Material
	if err := readSideFile(m.FromFile, &fileMaterials); err != nil {
		return fmt.Errorf("reading materials file: %w", err)
	}

	if m.Inline == nil {
		m.Inline = make(map[string]Material)
	}
	for name, material := range fileMaterials {
		if _, exists := m.Inline[name]; !exists {
			m.Inline[name] = material
		}
	}
	return nil
}

// MergeSurfaceAssignments merges surface assignments from a file with inline assignments.
// Inline entries win.
func (sa *SurfaceAssignments) MergeSurfaceAssignments() error {
	if sa.FromFile == "" {
		return nil
	}

	var fileAssignments map[string]string
	if err := readSideFile(sa.FromFile, &fileAssignments); err != nil {
		return fmt.Errorf("reading surface assignments file: %w", err)
	}

	if sa.Inline == nil {
		sa.Inline = make(map[string]string)
	}
	for surface, material := range fileAssignments {
		if _, exists := sa.Inline[surface]; !exists {
			sa.Inline[surface] = material
		}
	}
	return nil
}

func (m *Materials) HasMaterial(name string) bool {
	_, exists := m.Inline[name]
	return exists
}

// LoadAndMerge loads all external files and merges their contents
func (c *ExperimentConfig) LoadAndMerge() error {
	// surface assignments refer to materials, so materials go first
	if err := c.Materials.MergeMaterials(); err != nil {
		return fmt.Errorf("merging materials: %w", err)
	}
	if err := c.SurfaceAssignments.MergeSurfaceAssignments(); err != nil {
		return fmt.Errorf("merging surface assignments: %w", err)
	}
	return nil
}
