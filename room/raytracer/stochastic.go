package raytracer

import (
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

// ComputeRayEnergy is the starting energy of each ray such that a receiver sphere of the given
// radius collects unit energy from the direct path. Schröder 5.54.
func ComputeRayEnergy(rays int, source, receiver pt.Vector, radius float64) float64 {
	d := source.Sub(receiver).Length()
	sinY := radius / math.Max(radius, d)
	cosY := math.Sqrt(1 - sinY*sinY)
	return 2 / (float64(rays) * (1 - cosY))
}

type pathInfo struct {
	volume   acoustic.Bands
	position pt.Vector
	distance float64
}

// finder follows the energy carried by each ray of a segment and reports what reaches the
// receiver on every step
type finder struct {
	receiver pt.Vector
	radius   float64
	paths    []pathInfo
}

func newFinder(rays int, source, receiver pt.Vector, radius, energy float64) *finder {
	paths := make([]pathInfo, rays)
	for i := range paths {
		paths[i] = pathInfo{volume: acoustic.Uniform(energy), position: source}
	}
	return &finder{receiver: receiver, radius: radius, paths: paths}
}

// process updates every live path with its newest reflection. Diffuse impulses come from
// reflection points that can see the receiver, specular impulses from segments that pass
// through the receiver sphere.
func (f *finder) process(step int, reflections []Reflection, b *voxel.Buffers) (diffuse, specular []acoustic.Impulse) {
	for i, r := range reflections {
		if !r.KeepGoing {
			continue
		}
		last := f.paths[i]
		surface := b.Surface(r.Triangle)
		outgoing := last.volume.Mul(acoustic.Uniform(1).Sub(surface.Absorption))

		if geo.LineSegmentSphereIntersection(last.position, r.Position, f.receiver, f.radius) {
			specular = append(specular, acoustic.Impulse{
				Volume:   last.volume,
				Position: last.position,
				Distance: last.distance + f.receiver.Sub(last.position).Length(),
				Order:    step,
			})
		}

		distance := last.distance + r.Position.Sub(last.position).Length()

		toReceiver := f.receiver.Sub(r.Position)
		if d := toReceiver.Length(); r.ReceiverVisible && d > 0 {
			sinY := f.radius / math.Max(f.radius, d)
			normal := b.TriangleVerts(r.Triangle).Normal()
			cosTheta := math.Abs(normal.Dot(toReceiver.DivScalar(d)))
			diffuse = append(diffuse, acoustic.Impulse{
				Volume:   outgoing.Mul(surface.Scattering).Scale((1 - math.Sqrt(1-sinY*sinY)) * 2 * cosTheta),
				Position: r.Position,
				Distance: distance + d,
				Order:    step + 1,
			})
		}

		f.paths[i] = pathInfo{
			volume:   outgoing.Mul(acoustic.Uniform(1).Sub(surface.Scattering)),
			position: r.Position,
			distance: distance,
		}
	}
	return diffuse, specular
}

// StochasticProcessor bins the energy found by the rays into a histogram. Specular arrivals of
// orders the image-source processor covers are left out so they are not counted twice.
type StochasticProcessor struct {
	source, receiver pt.Vector
	env              acoustic.Environment
	rays             int
	imageSourceOrder int
	radius           float64
	method           HistogramMethod
	maxTime          float64

	finder      *finder
	histogram   Histogram
	directional *DirectionalHistogram
}

func NewStochasticProcessor(p Params) *StochasticProcessor {
	s := &StochasticProcessor{
		source:           p.Source,
		receiver:         p.Receiver,
		env:              p.Environment,
		rays:             p.Rays,
		imageSourceOrder: p.ImageSourceOrder,
		radius:           p.ReceiverRadius,
		method:           p.HistogramMethod,
		maxTime:          p.MaxTime,
		histogram:        NewHistogram(p.HistogramSampleRate),
	}
	if p.Directional {
		s.directional = NewDirectionalHistogram(p.HistogramSampleRate)
	}
	return s
}

func (s *StochasticProcessor) group(n int) {
	s.finder = newFinder(n, s.source, s.receiver, s.radius, ComputeRayEnergy(s.rays, s.source, s.receiver, s.radius))
}

func (s *StochasticProcessor) process(step int, reflections []Reflection, b *voxel.Buffers) {
	diffuse, specular := s.finder.process(step, reflections, b)
	impulses := diffuse
	if step >= s.imageSourceOrder {
		impulses = append(impulses, specular...)
	}
	if len(impulses) == 0 {
		return
	}

	timed := make([]acoustic.TimedVolume, len(impulses))
	for i, imp := range impulses {
		timed[i] = acoustic.TimedVolume{
			Volume: imp.Volume.Mul(s.env.AirAttenuation(imp.Distance)),
			Time:   imp.Time(s.env),
		}
	}
	s.histogram.Add(s.method, timed, s.maxTime)

	if s.directional == nil {
		return
	}
	directed := make([]DirectedVolume, len(impulses))
	for i, imp := range impulses {
		directed[i] = DirectedVolume{
			TimedVolume: timed[i],
			Pointing:    imp.Position.Sub(s.receiver).Normalize(),
		}
	}
	s.directional.Add(s.method, directed, s.maxTime)
}

func (s *StochasticProcessor) accumulate() {
	s.finder = nil
}

func (s *StochasticProcessor) Histogram() Histogram {
	return s.histogram
}

// Directional is nil unless directional binning was asked for
func (s *StochasticProcessor) Directional() *DirectionalHistogram {
	return s.directional
}
