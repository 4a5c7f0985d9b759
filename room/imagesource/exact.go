package imagesource

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

var ErrDegenerateBox = errors.New("box has no volume")

// ImagePosition is the position along one axis, relative to the box minimum, of the image
// reached after order reflections off the two walls of that axis. source is relative to the box
// minimum and dim is the box size.
func ImagePosition(order int, source, dim float64) float64 {
	if order%2 == 0 {
		return source + float64(order)*dim
	}
	return float64(order+1)*dim - source
}

// ImagePosition3 is the absolute image position for a per-axis reflection order
func ImagePosition3(box pt.Box, source pt.Vector, order [3]int) pt.Vector {
	dim := box.Max.Sub(box.Min)
	rel := source.Sub(box.Min)
	var ret pt.Vector
	for a := 0; a < 3; a++ {
		ret = geo.WithComponent(ret, a, ImagePosition(order[a], geo.Component(rel, a), geo.Component(dim, a)))
	}
	return box.Min.Add(ret)
}

type exactOptions struct {
	angleDependent bool
	maxDistance    float64
}

type ExactOption func(*exactOptions)

// WithAngleDependentReflection makes the wall reflectance depend on the angle of incidence,
// modelling each wall as an average impedance derived from its normal-incidence reflectance.
func WithAngleDependentReflection() ExactOption {
	return func(o *exactOptions) {
		o.angleDependent = true
	}
}

// WithMaxDistance drops images farther than d from the receiver. Zero keeps everything.
func WithMaxDistance(d float64) ExactOption {
	return func(o *exactOptions) {
		o.maxDistance = d
	}
}

// ExactImpulse is an impulse from the exact solver along with the reflection order per axis
type ExactImpulse struct {
	acoustic.Impulse
	Orders [3]int
}

// FindImpulses computes every image source of an axis-aligned box for reflection orders -shells
// to shells on each axis, (2*shells+1)³ candidates in all. Volumes are the product of per-wall
// reflectances, before distance attenuation.
func FindImpulses(box pt.Box, source, receiver pt.Vector, surface scene.Surface, shells int, opts ...ExactOption) ([]ExactImpulse, error) {
	if s := box.Max.Sub(box.Min); !(s.X > 0 && s.Y > 0 && s.Z > 0) {
		return nil, fmt.Errorf("%w: %v-%v", ErrDegenerateBox, box.Min, box.Max)
	}
	var o exactOptions
	for _, opt := range opts {
		opt(&o)
	}

	reflectance := surface.SpecularReflectance()
	impedance := reflectance.Map(func(r float64) float64 {
		return (1 + r) / (1 - r)
	})

	var ret []ExactImpulse
	for i := -shells; i <= shells; i++ {
		for j := -shells; j <= shells; j++ {
			for k := -shells; k <= shells; k++ {
				order := [3]int{i, j, k}
				pos := ImagePosition3(box, source, order)
				diff := pos.Sub(receiver)
				dist := diff.Length()
				if o.maxDistance > 0 && dist >= o.maxDistance {
					continue
				}
				volume := acoustic.Uniform(1)
				for a := 0; a < 3; a++ {
					n := abs(order[a])
					if n == 0 {
						continue
					}
					r := reflectance
					if o.angleDependent && dist > 0 {
						r = angleReflectance(impedance, math.Abs(geo.Component(diff, a))/dist)
					}
					volume = volume.Mul(r.Pow(n))
				}
				ret = append(ret, ExactImpulse{
					Impulse: acoustic.Impulse{
						Volume:   volume,
						Position: pos,
						Distance: dist,
						Order:    abs(i) + abs(j) + abs(k),
					},
					Orders: order,
				})
			}
		}
	}
	return ret, nil
}

// angleReflectance is the pressure reflectance of a wall of average impedance xi at an angle
// of incidence with cosine cos
func angleReflectance(xi acoustic.Bands, cos float64) acoustic.Bands {
	return xi.Map(func(x float64) float64 {
		return (x*cos - 1) / (x*cos + 1)
	})
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

// Impulses strips the per-axis orders
func Impulses(exact []ExactImpulse) []acoustic.Impulse {
	ret := make([]acoustic.Impulse, len(exact))
	for i, e := range exact {
		ret[i] = e.Impulse
	}
	return ret
}
