package raytracer

import (
	"errors"
	"fmt"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/imagesource"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

var ErrVisualCount = errors.New("more visual rays than rays")

// ProcessorKind tags which processor a Processor holds
type ProcessorKind int

const (
	KindStochastic ProcessorKind = iota
	KindImageSource
	KindVisual
)

func (k ProcessorKind) String() string {
	switch k {
	case KindStochastic:
		return "stochastic"
	case KindImageSource:
		return "image source"
	case KindVisual:
		return "visual"
	}
	return fmt.Sprintf("ProcessorKind(%d)", int(k))
}

// Processor consumes the reflections of every step. Exactly the field named by Kind is set.
type Processor struct {
	Kind        ProcessorKind
	Stochastic  *StochasticProcessor
	ImageSource *ImageSourceProcessor
	Visual      *VisualProcessor
}

// group starts a segment of n rays, the first of which is ray number start overall
func (p Processor) group(start, n int) {
	switch p.Kind {
	case KindStochastic:
		p.Stochastic.group(n)
	case KindImageSource:
		p.ImageSource.group(n)
	case KindVisual:
		p.Visual.group(start, n)
	}
}

func (p Processor) process(step int, reflections []Reflection, b *voxel.Buffers) {
	switch p.Kind {
	case KindStochastic:
		p.Stochastic.process(step, reflections, b)
	case KindImageSource:
		p.ImageSource.process(step, reflections)
	case KindVisual:
		p.Visual.process(reflections)
	}
}

// accumulate folds the finished segment into the processor's results
func (p Processor) accumulate() {
	switch p.Kind {
	case KindStochastic:
		p.Stochastic.accumulate()
	case KindImageSource:
		p.ImageSource.accumulate()
	case KindVisual:
	}
}

// ImageSourceProcessor records the early reflection paths of every ray. Once all rays are in,
// the distinct paths are checked against the scene and turned into impulses.
type ImageSourceProcessor struct {
	source, receiver pt.Vector
	env              acoustic.Environment
	order            int

	tree  *imagesource.Tree
	paths *imagesource.Paths
	step  []imagesource.PathElement
	alive []bool
}

func NewImageSourceProcessor(p Params) *ImageSourceProcessor {
	return &ImageSourceProcessor{
		source:   p.Source,
		receiver: p.Receiver,
		env:      p.Environment,
		order:    p.ImageSourceOrder,
		tree:     imagesource.NewTree(),
	}
}

func (is *ImageSourceProcessor) group(n int) {
	is.paths = imagesource.NewPaths(n)
	is.step = make([]imagesource.PathElement, n)
	is.alive = make([]bool, n)
}

func (is *ImageSourceProcessor) process(step int, reflections []Reflection) {
	if step >= is.order {
		return
	}
	for i, r := range reflections {
		is.step[i] = imagesource.PathElement{Index: r.Triangle, Visible: r.ReceiverVisible}
		is.alive[i] = r.KeepGoing
	}
	is.paths.Push(is.step, is.alive)
}

func (is *ImageSourceProcessor) accumulate() {
	is.paths.AddTo(is.tree)
	is.paths = nil
}

// Paths is the number of distinct path prefixes found so far
func (is *ImageSourceProcessor) Paths() int {
	return is.tree.Len()
}

// Impulses validates the collected paths and adds the direct path when it is unobstructed.
// Volumes are pressures at the receiver.
func (is *ImageSourceProcessor) Impulses(s imagesource.Scene) []acoustic.Impulse {
	ret := imagesource.ComputeImpulses(is.tree, is.source, is.receiver, s)
	if direct, ok := imagesource.Direct(is.source, is.receiver, s); ok {
		ret = append([]acoustic.Impulse{direct}, ret...)
	}
	for i := range ret {
		ret[i].Volume = ret[i].Volume.
			Mul(is.env.AirAttenuation(ret[i].Distance).Sqrt()).
			Scale(acoustic.PressureForDistance(ret[i].Distance, is.env.AcousticImpedance))
	}
	return ret
}

// VisualProcessor keeps every reflection of the first few rays, for drawing
type VisualProcessor struct {
	count int
	start int
	paths [][]Reflection
}

func NewVisualProcessor(count, rays int) (*VisualProcessor, error) {
	if count > rays {
		return nil, fmt.Errorf("%w: %d > %d", ErrVisualCount, count, rays)
	}
	return &VisualProcessor{count: count, paths: make([][]Reflection, count)}, nil
}

func (v *VisualProcessor) group(start, n int) {
	v.start = start
}

func (v *VisualProcessor) process(reflections []Reflection) {
	for i := range reflections {
		ray := v.start + i
		if ray >= v.count {
			return
		}
		v.paths[ray] = append(v.paths[ray], reflections[i])
	}
}

// Paths holds one slice per visual ray, one entry per step
func (v *VisualProcessor) Paths() [][]Reflection {
	return v.paths
}
