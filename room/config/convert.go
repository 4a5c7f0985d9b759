package config

import (
	"fmt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Surface converts the material into per-band coefficients
func (m Material) Surface() (scene.Surface, error) {
	if m.AbsorptionCurve != nil {
		return scene.CurveSurface(scene.Curve(m.AbsorptionCurve), m.Scattering)
	}
	return scene.UniformSurface(m.Absorption, m.Scattering)
}

// Assignment resolves every surface assignment to the surface of its material
func (c *ExperimentConfig) Assignment() (scene.Assignment, error) {
	ret := scene.Assignment{}
	for surface, name := range c.SurfaceAssignments.Inline {
		material, ok := c.Materials.Inline[name]
		if !ok {
			return nil, fmt.Errorf("surface %q: undefined material %q", surface, name)
		}
		s, err := material.Surface()
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", name, err)
		}
		ret[surface] = s
	}
	return ret, nil
}

func (c *ExperimentConfig) AcousticEnvironment() (acoustic.Environment, error) {
	return acoustic.NewEnvironment(c.Environment.SpeedOfSound, c.Environment.AcousticImpedance, c.Environment.Humidity)
}

// Params gathers everything the raytracer needs from the config
func (c *ExperimentConfig) Params(env acoustic.Environment) (raytracer.Params, error) {
	method, err := raytracer.ParseHistogramMethod(c.Simulation.HistogramMethod)
	if err != nil {
		return raytracer.Params{}, err
	}
	s := c.Simulation
	return raytracer.Params{
		Source:              c.Source.Vector(),
		Receiver:            c.Receiver.Vector(),
		Environment:         env,
		Rays:                s.Rays,
		ReflectionDepth:     s.ReflectionDepth,
		ImageSourceOrder:    s.ImageSourceOrder,
		ReceiverRadius:      s.ReceiverRadius,
		HistogramSampleRate: s.HistogramSampleRate,
		HistogramMethod:     method,
		MaxTime:             s.MaxTime,
		VisualRays:          s.VisualRays,
		Seed:                s.Seed,
		Substrate:           raytracer.NewSubstrate(s.Workers),
		Directional:         s.Directional,
	}, nil
}
