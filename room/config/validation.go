package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Validation helper functions
func validatePositive(field string, value float64) []ValidationError {
	if value <= 0 {
		return []ValidationError{{
			Field:   field,
			Message: "must be positive",
		}}
	}
	return nil
}

func validateNonNegative(field string, value float64) []ValidationError {
	if value < 0 {
		return []ValidationError{{
			Field:   field,
			Message: "must be non-negative",
		}}
	}
	return nil
}

func validateInRange(field string, value, min, max float64) []ValidationError {
	if value < min || value > max {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("must be between %v and %v", min, max),
		}}
	}
	return nil
}

// validateCoefficient checks an absorption or scattering coefficient, which must lie strictly
// between 0 and 1
func validateCoefficient(field string, value float64) []ValidationError {
	if value <= 0 || value >= 1 {
		return []ValidationError{{
			Field:   field,
			Message: "coefficient must be strictly between 0.0 and 1.0",
		}}
	}
	return nil
}

// ValidationError represents a structured validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FormatValidationErrors groups errors by the top-level section they belong to
func FormatValidationErrors(errs []ValidationError) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Validation Errors:\n")

	categories := map[string][]ValidationError{}
	for _, err := range errs {
		category := strings.Split(err.Field, ".")[0]
		categories[category] = append(categories[category], err)
	}
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, category := range names {
		b.WriteString(fmt.Sprintf("\n%s:\n", strings.ToUpper(category)))
		for _, err := range categories[category] {
			field := strings.TrimPrefix(err.Field, category+".")
			if field == category {
				field = "general"
			}
			b.WriteString(fmt.Sprintf("  - %s: %s\n", field, err.Message))
		}
	}

	return b.String()
}

// Validate performs validation on the entire configuration
func (c *ExperimentConfig) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.Input.Validate()...)
	errors = append(errors, c.Materials.Validate()...)
	errors = append(errors, c.SurfaceAssignments.Validate(&c.Materials)...)
	errors = append(errors, c.validatePositions()...)
	errors = append(errors, c.Environment.Validate()...)
	errors = append(errors, c.Simulation.Validate()...)
	return errors
}

func (i *Input) Validate() []ValidationError {
	var errors []ValidationError

	switch {
	case i.Mesh == nil && i.Box == nil:
		return []ValidationError{{Field: "input", Message: "either mesh or box must be specified"}}
	case i.Mesh != nil && i.Box != nil:
		return []ValidationError{{Field: "input", Message: "only one of mesh or box may be specified"}}
	}

	if i.Mesh != nil {
		if i.Mesh.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "input.mesh.path",
				Message: "mesh path is required",
			})
		} else if !fileExists(i.Mesh.Path) {
			errors = append(errors, ValidationError{
				Field:   "input.mesh.path",
				Message: fmt.Sprintf("no such file '%s'", i.Mesh.Path),
			})
		}
		errors = append(errors, validatePositive("input.mesh.scale", i.Mesh.Scale)...)
	}

	if i.Box != nil {
		for a, axis := range []string{"x", "y", "z"} {
			if i.Box.Max[a] <= i.Box.Min[a] {
				errors = append(errors, ValidationError{
					Field:   "input.box." + axis,
					Message: "max must be greater than min",
				})
			}
		}
	}

	return errors
}

func (m *Materials) Validate() []ValidationError {
	var errors []ValidationError

	if m.Inline == nil && m.FromFile == "" {
		return []ValidationError{{
			Field:   "materials",
			Message: "either inline or from_file must be specified",
		}}
	}

	for name, material := range m.Inline {
		errors = append(errors, material.validate("materials.inline."+name)...)
	}

	return errors
}

func (m Material) validate(field string) []ValidationError {
	var errors []ValidationError

	switch {
	case m.AbsorptionCurve == nil:
		errors = append(errors, validateCoefficient(field+".absorption", m.Absorption)...)
	case m.Absorption != 0:
		errors = append(errors, ValidationError{
			Field:   field,
			Message: "give either absorption or absorption_curve, not both",
		})
	case len(m.AbsorptionCurve) == 0:
		errors = append(errors, ValidationError{
			Field:   field + ".absorption_curve",
			Message: "must have at least one point",
		})
	}
	for freq, a := range m.AbsorptionCurve {
		f := fmt.Sprintf("%s.absorption_curve.%v", field, freq)
		errors = append(errors, validatePositive(f, freq)...)
		errors = append(errors, validateCoefficient(f, a)...)
	}
	errors = append(errors, validateCoefficient(field+".scattering", m.Scattering)...)

	return errors
}

func (sa *SurfaceAssignments) Validate(materials *Materials) []ValidationError {
	var errors []ValidationError

	if sa.Inline == nil && sa.FromFile == "" {
		return []ValidationError{{
			Field:   "surface_assignments",
			Message: "either inline or from_file must be specified",
		}}
	}

	if sa.Inline != nil {
		if _, hasDefault := sa.Inline[scene.DefaultSurfaceName]; !hasDefault {
			errors = append(errors, ValidationError{
				Field:   "surface_assignments.inline",
				Message: "must include a default material",
			})
		}

		// materials loaded from file are only known after merging
		if materials.FromFile == "" {
			for surface, material := range sa.Inline {
				if !materials.HasMaterial(material) {
					errors = append(errors, ValidationError{
						Field:   fmt.Sprintf("surface_assignments.inline.%s", surface),
						Message: fmt.Sprintf("references undefined material '%s'", material),
					})
				}
			}
		}
	}

	return errors
}

func (c *ExperimentConfig) validatePositions() []ValidationError {
	var errors []ValidationError

	if c.Source == c.Receiver {
		errors = append(errors, ValidationError{
			Field:   "receiver",
			Message: "must differ from the source position",
		})
	}
	if b := c.Input.Box; b != nil {
		for _, p := range []struct {
			field string
			pos   Vec3
		}{{"source", c.Source}, {"receiver", c.Receiver}} {
			for a := 0; a < 3; a++ {
				if p.pos[a] <= b.Min[a] || p.pos[a] >= b.Max[a] {
					errors = append(errors, ValidationError{
						Field:   p.field,
						Message: "must lie inside the box",
					})
					break
				}
			}
		}
	}

	return errors
}

func (e *Environment) Validate() []ValidationError {
	var errors []ValidationError

	if e.SpeedOfSound < 300 || e.SpeedOfSound >= 400 {
		errors = append(errors, ValidationError{
			Field:   "environment.speed_of_sound",
			Message: "must be at least 300 and less than 400",
		})
	}
	errors = append(errors, validatePositive("environment.acoustic_impedance", e.AcousticImpedance)...)
	errors = append(errors, validateInRange("environment.humidity", e.Humidity, 0, 100)...)

	return errors
}

func (s *Simulation) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, validatePositive("simulation.rays", float64(s.Rays))...)
	errors = append(errors, validateInRange("simulation.voxel_depth", float64(s.VoxelDepth), 1, 8)...)
	errors = append(errors, validateNonNegative("simulation.voxel_padding", s.VoxelPadding)...)
	errors = append(errors, validateNonNegative("simulation.image_source_order", float64(s.ImageSourceOrder))...)
	errors = append(errors, validateNonNegative("simulation.reflection_depth", float64(s.ReflectionDepth))...)
	errors = append(errors, validatePositive("simulation.receiver_radius", s.ReceiverRadius)...)
	errors = append(errors, validatePositive("simulation.histogram_sample_rate", s.HistogramSampleRate)...)
	errors = append(errors, validatePositive("simulation.max_time", s.MaxTime)...)
	errors = append(errors, validateNonNegative("simulation.workers", float64(s.Workers))...)

	if _, err := raytracer.ParseHistogramMethod(s.HistogramMethod); err != nil {
		errors = append(errors, ValidationError{
			Field:   "simulation.histogram_method",
			Message: "must be dirac or sinc",
		})
	}
	if s.VisualRays < 0 || s.VisualRays > s.Rays {
		errors = append(errors, ValidationError{
			Field:   "simulation.visual_rays",
			Message: "must be between 0 and the number of rays",
		})
	}

	return errors
}
