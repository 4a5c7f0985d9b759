package config

import (
	"fmt"
	"strconv"

	"github.com/fogleman/pt/pt"
	"gopkg.in/yaml.v3"
)

// ExperimentConfig is the complete description of one simulation run
type ExperimentConfig struct {
	Metadata           Metadata           `yaml:"metadata"`
	Input              Input              `yaml:"input"`
	Materials          Materials          `yaml:"materials"`
	SurfaceAssignments SurfaceAssignments `yaml:"surface_assignments"`
	Source             Vec3               `yaml:"source"`
	Receiver           Vec3               `yaml:"receiver"`
	Environment        Environment        `yaml:"environment"`
	Simulation         Simulation         `yaml:"simulation"`
	Output             Output             `yaml:"output"`
}

type Metadata struct {
	Timestamp string `yaml:"timestamp"` // YYYY-MM-DD HH:MM:SS in UTC
	GitCommit string `yaml:"git_commit"`
}

// Vec3 is a position in metres
type Vec3 [3]float64

func (v Vec3) Vector() pt.Vector {
	return pt.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// Input names the room geometry: either a mesh file or an axis-aligned box
type Input struct {
	Mesh *MeshInput `yaml:"mesh,omitempty"`
	Box  *BoxInput  `yaml:"box,omitempty"`
}

type MeshInput struct {
	Path string `yaml:"path"`
	// Model units per metre, used by 3MF files. Default 1.
	Scale float64 `yaml:"scale,omitempty"`
}

type BoxInput struct {
	Min Vec3 `yaml:"min"`
	Max Vec3 `yaml:"max"`
}

type Materials struct {
	Inline   map[string]Material `yaml:"inline,omitempty"`
	FromFile string              `yaml:"from_file,omitempty"`
}

// Material gives either a single absorption coefficient for every band or a curve of
// absorption against frequency in Hz
type Material struct {
	Absorption      float64 `yaml:"absorption,omitempty"`
	AbsorptionCurve Curve   `yaml:"absorption_curve,omitempty"`
	Scattering      float64 `yaml:"scattering"`
}

// Curve maps a frequency in Hz to a coefficient. Keys may be numbers or, as JSON requires,
// strings holding numbers.
type Curve map[float64]float64

func (c *Curve) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]float64
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = make(Curve, len(raw))
	for k, v := range raw {
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return fmt.Errorf("frequency %q: %w", k, err)
		}
		(*c)[f] = v
	}
	return nil
}

type SurfaceAssignments struct {
	Inline   map[string]string `yaml:"inline,omitempty"` // surface name -> material name
	FromFile string            `yaml:"from_file,omitempty"`
}

type Environment struct {
	SpeedOfSound      float64 `yaml:"speed_of_sound"`
	AcousticImpedance float64 `yaml:"acoustic_impedance"`
	// Relative humidity in percent. Zero disables air absorption.
	Humidity float64 `yaml:"humidity,omitempty"`
}

type Simulation struct {
	Rays int `yaml:"rays"`
	// The voxel grid has 2^voxel_depth cells per side
	VoxelDepth   int     `yaml:"voxel_depth"`
	VoxelPadding float64 `yaml:"voxel_padding"`

	ImageSourceOrder int `yaml:"image_source_order"`
	// Zero computes the depth needed for a 60 dB decay
	ReflectionDepth int     `yaml:"reflection_depth"`
	ReceiverRadius  float64 `yaml:"receiver_radius"`

	HistogramSampleRate float64 `yaml:"histogram_sample_rate"`
	HistogramMethod     string  `yaml:"histogram_method"`
	MaxTime             float64 `yaml:"max_time"`
	Directional         bool    `yaml:"directional,omitempty"`

	VisualRays int   `yaml:"visual_rays"`
	Seed       int64 `yaml:"seed"`
	// Zero uses every CPU
	Workers int `yaml:"workers"`
}

type Output struct {
	Directory string `yaml:"directory"`
}
