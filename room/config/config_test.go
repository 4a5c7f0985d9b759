package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

const boxConfig = `
input:
  box: { min: [0, 0, 0], max: [4, 3, 6] }
materials:
  inline:
    default: { absorption: 0.1, scattering: 0.1 }
    curtain:
      absorption_curve: { 125: 0.1, 1000: 0.5, 8000: 0.7 }
      scattering: 0.2
  from_file: materials.json
surface_assignments:
  inline: { default: default, min_y: carpet }
  from_file: assignments.json
source: [1, 1, 1]
receiver: [2, 1, 5]
simulation:
  rays: 1000
  image_source_order: 2
  histogram_method: sinc
  visual_rays: 5
  seed: 7
`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", boxConfig)
	writeFile(t, dir, "materials.json", `{"carpet": {"absorption_curve": {"125": 0.05, "4000": 0.6}, "scattering": 0.3}, "default": {"absorption": 0.9, "scattering": 0.9}}`)
	writeFile(t, dir, "assignments.json", `{"max_y": "curtain", "default": "carpet"}`)

	cfg, err := LoadFromFile(path, LoadOptions{ResolvePaths: true, MergeFiles: true, ValidateImmediately: true})
	require.NoError(t, err)

	assert.Equal(filepath.Join(dir, "materials.json"), cfg.Materials.FromFile)
	// inline entries win over the side files
	assert.Equal(0.1, cfg.Materials.Inline["default"].Absorption)
	assert.Equal("default", cfg.SurfaceAssignments.Inline["default"])
	assert.Equal("curtain", cfg.SurfaceAssignments.Inline["max_y"])
	assert.Equal(Curve{125: 0.05, 4000: 0.6}, cfg.Materials.Inline["carpet"].AbsorptionCurve)

	// defaults
	assert.Equal(340.0, cfg.Environment.SpeedOfSound)
	assert.Equal(400.0, cfg.Environment.AcousticImpedance)
	assert.Equal(4, cfg.Simulation.VoxelDepth)
	assert.Equal(1000.0, cfg.Simulation.HistogramSampleRate)
	assert.Equal(60.0, cfg.Simulation.MaxTime)
	assert.Equal("experiments", cfg.Output.Directory)

	env, err := cfg.AcousticEnvironment()
	require.NoError(t, err)
	params, err := cfg.Params(env)
	require.NoError(t, err)
	assert.Equal(raytracer.Sinc, params.HistogramMethod)
	assert.Equal(1000, params.Rays)
	assert.Equal(5, params.VisualRays)
	assert.Equal(int64(7), params.Seed)
	assert.Equal(cfg.Source.Vector(), params.Source)
	assert.Equal(raytracer.ParallelSubstrate{}, params.Substrate)

	assign, err := cfg.Assignment()
	require.NoError(t, err)
	assert.Equal([]string{"default", "max_y", "min_y"}, assign.Names())
	assert.InDelta(0.05, assign["min_y"].Absorption[0], 1e-12)
	assert.InDelta(0.6, assign["min_y"].Absorption[7], 1e-12)
	assert.InDelta(0.5, assign["max_y"].Absorption[4], 1e-12)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
input:
  box: { min: [0, 0, 0], max: [4, 3, 6] }
materials:
  inline:
    default: { absorption: 1.5, scattering: 0.1 }
surface_assignments:
  inline: { default: default }
source: [1, 1, 1]
receiver: [1, 1, 1]
simulation:
  rays: 10
`)
	_, err := LoadFromFile(path, LoadOptions{ValidateImmediately: true})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "default.absorption")

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"), LoadOptions{})
	assert.Error(t, err)
}

func validConfig() *ExperimentConfig {
	cfg := &ExperimentConfig{
		Input: Input{Box: &BoxInput{Min: Vec3{0, 0, 0}, Max: Vec3{4, 3, 6}}},
		Materials: Materials{Inline: map[string]Material{
			"default": {Absorption: 0.1, Scattering: 0.1},
		}},
		SurfaceAssignments: SurfaceAssignments{Inline: map[string]string{"default": "default"}},
		Source:             Vec3{1, 1, 1},
		Receiver:           Vec3{2, 1, 5},
		Simulation:         Simulation{Rays: 100},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ExperimentConfig)
		field  string
	}{
		{"no_input", func(c *ExperimentConfig) { c.Input.Box = nil }, "input"},
		{"both_inputs", func(c *ExperimentConfig) { c.Input.Mesh = &MeshInput{Path: "room.3mf", Scale: 1} }, "input"},
		{"missing_mesh", func(c *ExperimentConfig) {
			c.Input = Input{Mesh: &MeshInput{Path: "/no/such/room.3mf", Scale: 1}}
		}, "input.mesh.path"},
		{"flat_box", func(c *ExperimentConfig) { c.Input.Box.Max[1] = 0 }, "input.box.y"},
		{"zero_scattering", func(c *ExperimentConfig) {
			c.Materials.Inline["default"] = Material{Absorption: 0.1}
		}, "materials.inline.default.scattering"},
		{"curve_and_absorption", func(c *ExperimentConfig) {
			c.Materials.Inline["default"] = Material{Absorption: 0.1, AbsorptionCurve: map[float64]float64{100: 0.1}, Scattering: 0.1}
		}, "materials.inline.default"},
		{"negative_frequency", func(c *ExperimentConfig) {
			c.Materials.Inline["default"] = Material{AbsorptionCurve: map[float64]float64{-100: 0.1}, Scattering: 0.1}
		}, "materials.inline.default.absorption_curve.-100"},
		{"no_default", func(c *ExperimentConfig) {
			c.SurfaceAssignments.Inline = map[string]string{"floor": "default"}
		}, "surface_assignments.inline"},
		{"undefined_material", func(c *ExperimentConfig) {
			c.SurfaceAssignments.Inline["floor"] = "velvet"
		}, "surface_assignments.inline.floor"},
		{"same_positions", func(c *ExperimentConfig) { c.Receiver = c.Source }, "receiver"},
		{"source_outside", func(c *ExperimentConfig) { c.Source = Vec3{5, 1, 1} }, "source"},
		{"slow_sound", func(c *ExperimentConfig) { c.Environment.SpeedOfSound = 200 }, "environment.speed_of_sound"},
		{"no_rays", func(c *ExperimentConfig) { c.Simulation.Rays = 0 }, "simulation.rays"},
		{"deep_voxels", func(c *ExperimentConfig) { c.Simulation.VoxelDepth = 9 }, "simulation.voxel_depth"},
		{"bad_method", func(c *ExperimentConfig) { c.Simulation.HistogramMethod = "boxcar" }, "simulation.histogram_method"},
		{"visual_rays", func(c *ExperimentConfig) { c.Simulation.VisualRays = 101 }, "simulation.visual_rays"},
	}

	assert.Empty(t, validConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			fields := make([]string, len(errs))
			for i, e := range errs {
				fields[i] = e.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestFormatValidationErrors(t *testing.T) {
	assert := assert.New(t)
	assert.Empty(FormatValidationErrors(nil))

	out := FormatValidationErrors([]ValidationError{
		{Field: "simulation.rays", Message: "must be positive"},
		{Field: "input", Message: "either mesh or box must be specified"},
	})
	assert.Less(strings.Index(out, "INPUT"), strings.Index(out, "SIMULATION"))
	assert.Contains(out, "  - rays: must be positive")
	assert.Contains(out, "  - general: either mesh or box must be specified")
}

func TestSaveToFile(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	cfg := validConfig()
	path := filepath.Join(dir, "saved.yaml")
	require.NoError(t, SaveToFile(cfg, path))
	assert.NotEmpty(cfg.Metadata.Timestamp)
	assert.NotEmpty(cfg.Metadata.GitCommit)

	loaded, err := LoadFromFile(path, LoadOptions{ValidateImmediately: true})
	require.NoError(t, err)
	assert.Equal(cfg, loaded)
}

func TestMaterialSurface(t *testing.T) {
	assert := assert.New(t)
	s, err := Material{Absorption: 0.2, Scattering: 0.1}.Surface()
	require.NoError(t, err)
	assert.InDelta(0.2, s.Absorption.Mean(), 1e-12)

	_, err = Material{Absorption: 0, Scattering: 0.1}.Surface()
	assert.ErrorIs(err, scene.ErrInvalidSurface)
}
