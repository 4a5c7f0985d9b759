package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// LoadOptions configures the behavior of config loading
type LoadOptions struct {
	ValidateImmediately bool
	ResolvePaths        bool
	MergeFiles          bool
}

// LoadFromFile loads an ExperimentConfig from a YAML file. Unset fields take their defaults.
func LoadFromFile(path string, opts LoadOptions) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := &ExperimentConfig{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	config.ApplyDefaults()

	if opts.ResolvePaths {
		resolver := NewPathResolver(filepath.Dir(path))
		config.ResolvePaths(resolver)
	}

	if opts.MergeFiles {
		if err := config.LoadAndMerge(); err != nil {
			return nil, fmt.Errorf("merging external files: %w", err)
		}
	}

	if opts.ValidateImmediately {
		if errs := config.Validate(); len(errs) > 0 {
			return nil, fmt.Errorf("%w\n%s", ErrInvalid, FormatValidationErrors(errs))
		}
	}

	return config, nil
}

// SaveToFile stamps the config with the current time and commit and writes it as YAML
func SaveToFile(config *ExperimentConfig, path string) error {
	NewMetadataCollector().PopulateMetadata(config)

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ApplyDefaults fills every unset field that has a sensible default
func (c *ExperimentConfig) ApplyDefaults() {
	if c.Environment.SpeedOfSound == 0 {
		c.Environment.SpeedOfSound = 340
	}
	if c.Environment.AcousticImpedance == 0 {
		c.Environment.AcousticImpedance = 400
	}
	if c.Input.Mesh != nil && c.Input.Mesh.Scale == 0 {
		c.Input.Mesh.Scale = 1
	}

	s := &c.Simulation
	if s.VoxelDepth == 0 {
		s.VoxelDepth = 4
	}
	if s.VoxelPadding == 0 {
		s.VoxelPadding = 0.1
	}
	if s.ReceiverRadius == 0 {
		s.ReceiverRadius = 0.1
	}
	if s.HistogramSampleRate == 0 {
		s.HistogramSampleRate = 1000
	}
	if s.HistogramMethod == "" {
		s.HistogramMethod = "dirac"
	}
	if s.MaxTime == 0 {
		s.MaxTime = 60
	}

	if c.Output.Directory == "" {
		c.Output.Directory = "experiments"
	}
}

// ResolvePaths makes every relative path in the config relative to the resolver's directory
func (c *ExperimentConfig) ResolvePaths(resolver *PathResolver) {
	if c.Input.Mesh != nil {
		c.Input.Mesh.Path = resolver.ResolvePath(c.Input.Mesh.Path)
	}
	if c.Materials.FromFile != "" {
		c.Materials.FromFile = resolver.ResolvePath(c.Materials.FromFile)
	}
	if c.SurfaceAssignments.FromFile != "" {
		c.SurfaceAssignments.FromFile = resolver.ResolvePath(c.SurfaceAssignments.FromFile)
	}
}
