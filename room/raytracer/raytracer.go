// Package raytracer fires rays from a source through a voxelised scene and collects the energy
// that reaches a receiver, both as image-source impulses for early reflections and as a
// stochastic energy histogram for the reverberant tail.
package raytracer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

var (
	ErrNoRays       = errors.New("no rays to trace")
	ErrSpeedOfSound = errors.New("speed of sound outside [300, 400)")
)

// segmentSize is the number of rays traced together
const segmentSize = 1 << 13

const (
	DefaultSampleRate     = 1000.0
	DefaultMaxTime        = 60.0
	DefaultReceiverRadius = 0.1
)

// Params configures a run. Zero values of the optional fields take the defaults noted.
type Params struct {
	Source, Receiver pt.Vector
	Environment      acoustic.Environment

	Rays int
	// Steps per ray. Zero computes the number needed for a 60 dB decay.
	ReflectionDepth int
	// Highest reflection order handled by the image-source processor
	ImageSourceOrder int
	// Radius of the receiver sphere, metres. Default 0.1.
	ReceiverRadius float64
	// Bins per second. Default 1000.
	HistogramSampleRate float64
	HistogramMethod     HistogramMethod
	// Arrivals after this many seconds are dropped. Default 60.
	MaxTime float64
	// Rays whose reflections are kept for drawing
	VisualRays int
	Seed       int64
	// Default ParallelSubstrate with one worker per CPU
	Substrate Substrate
	// Also bin the stochastic energy by arrival direction
	Directional bool
}

func (p Params) withDefaults() Params {
	if p.ReceiverRadius == 0 {
		p.ReceiverRadius = DefaultReceiverRadius
	}
	if p.HistogramSampleRate == 0 {
		p.HistogramSampleRate = DefaultSampleRate
	}
	if p.MaxTime == 0 {
		p.MaxTime = DefaultMaxTime
	}
	if p.Substrate == nil {
		p.Substrate = ParallelSubstrate{}
	}
	return p
}

func (p Params) validate() error {
	if p.Rays <= 0 {
		return ErrNoRays
	}
	if p.Environment.SpeedOfSound < 300 || p.Environment.SpeedOfSound >= 400 {
		return fmt.Errorf("%w: %v", ErrSpeedOfSound, p.Environment.SpeedOfSound)
	}
	if err := p.Environment.Validate(); err != nil {
		return err
	}
	if p.VisualRays > p.Rays {
		return fmt.Errorf("%w: %d > %d", ErrVisualCount, p.VisualRays, p.Rays)
	}
	return nil
}

// Results of a complete run
type Results struct {
	// Early reflections plus the direct path, as pressures at the receiver
	ImageSource []acoustic.Impulse
	Stochastic  Histogram
	// Nil unless Params.Directional was set
	Directional *DirectionalHistogram
	// Reflections of the first Params.VisualRays rays
	Visual [][]Reflection
	// Steps each ray was traced for
	ReflectionDepth int
}

// ProgressFunc is called after each segment of rays with the number of segments done so far
type ProgressFunc func(done, total int)

type options struct {
	progress ProgressFunc
}

type Option func(*options)

func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// OptimumReflectionNumber is the number of reflections after which energy has fallen below
// minAmplitude when every reflection keeps at most maxReflectance of it
func OptimumReflectionNumber(minAmplitude, maxReflectance float64) int {
	const limit = 1000
	if maxReflectance <= 0 {
		return 1
	}
	if maxReflectance >= 1 {
		return limit
	}
	n := math.Ceil(math.Log(minAmplitude) / math.Log(maxReflectance))
	return int(math.Min(n, limit))
}

// SceneReflectionNumber is OptimumReflectionNumber for a 60 dB decay in d
func SceneReflectionNumber(d *scene.Data) int {
	return OptimumReflectionNumber(1e-6, d.MaxReflectance())
}

// RandomDirections draws n directions uniformly distributed on the unit sphere
func RandomDirections(n int, rng *rand.Rand) []pt.Vector {
	ret := make([]pt.Vector, n)
	for i := range ret {
		z := rng.Float64()*2 - 1
		theta := rng.Float64()*2*math.Pi - math.Pi
		ret[i] = geo.SpherePoint(z, theta)
	}
	return ret
}

// Run traces p.Rays rays from p.Source. Rays are processed in segments; within a segment every
// ray takes one reflection step at a time and each step is handed to the processors. The
// context is checked before every step and a cancelled run returns no results.
func Run(ctx context.Context, s *voxel.Scene, p Params, opts ...Option) (*Results, error) {
	p = p.withDefaults()
	if err := p.validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	depth := p.ReflectionDepth
	if depth == 0 {
		depth = SceneReflectionNumber(s.Data)
	}
	depth = max(depth, p.ImageSourceOrder)

	stochastic := NewStochasticProcessor(p)
	imageSource := NewImageSourceProcessor(p)
	processors := []Processor{
		{Kind: KindStochastic, Stochastic: stochastic},
		{Kind: KindImageSource, ImageSource: imageSource},
	}
	var visual *VisualProcessor
	if p.VisualRays > 0 {
		var err error
		if visual, err = NewVisualProcessor(p.VisualRays, p.Rays); err != nil {
			return nil, err
		}
		processors = append(processors, Processor{Kind: KindVisual, Visual: visual})
	}

	rng := rand.New(rand.NewSource(p.Seed))
	directions := RandomDirections(p.Rays, rng)
	buffers := voxel.NewBuffers(s)

	segments := (p.Rays + segmentSize - 1) / segmentSize
	for seg := 0; seg < segments; seg++ {
		start := seg * segmentSize
		end := min(start+segmentSize, p.Rays)
		rays := make([]geo.Ray, end-start)
		for i := range rays {
			rays[i] = geo.Ray{Origin: p.Source, Direction: directions[start+i]}
		}

		reflector := NewReflector(p.Receiver, rays, p.Substrate, rng)
		for _, proc := range processors {
			proc.group(start, len(rays))
		}
		for step := 0; step < depth; step++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			reflections, err := reflector.RunStep(ctx, buffers)
			if err != nil {
				return nil, err
			}
			for _, proc := range processors {
				proc.process(step, reflections, buffers)
			}
		}
		for _, proc := range processors {
			proc.accumulate()
		}
		if o.progress != nil {
			o.progress(seg+1, segments)
		}
	}

	ret := &Results{
		ImageSource:     imageSource.Impulses(buffers),
		Stochastic:      stochastic.Histogram(),
		Directional:     stochastic.Directional(),
		ReflectionDepth: depth,
	}
	if visual != nil {
		ret.Visual = visual.Paths()
	}
	return ret, nil
}
