package scene

import (
	"fmt"
	"sort"

	lin "github.com/sgreben/piecewiselinear"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
)

// Curve maps frequency in Hz to a coefficient
type Curve map[float64]float64

// Bands samples the curve at every band centre. Between points the curve is linear in
// frequency; beyond the first and last points it holds the end value.
func (c Curve) Bands() (acoustic.Bands, error) {
	var ret acoustic.Bands
	if len(c) == 0 {
		return ret, fmt.Errorf("%w: empty curve", ErrInvalidSurface)
	}
	xs := make([]float64, 0, len(c))
	for f := range c {
		if f <= 0 {
			return ret, fmt.Errorf("%w: frequency %v must be positive", ErrInvalidSurface, f)
		}
		xs = append(xs, f)
	}
	sort.Float64s(xs)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = c[x]
	}
	if len(xs) == 1 {
		return acoustic.Uniform(ys[0]), nil
	}

	f := lin.Function{X: xs, Y: ys}
	last := len(xs) - 1
	for i, centre := range acoustic.BandCentres {
		switch {
		case centre <= xs[0]:
			ret[i] = ys[0]
		case centre >= xs[last]:
			ret[i] = ys[last]
		default:
			ret[i] = f.At(centre)
		}
	}
	return ret, nil
}

// CurveSurface builds a surface whose absorption is interpolated from a frequency curve
func CurveSurface(absorption Curve, scattering float64) (Surface, error) {
	a, err := absorption.Bands()
	if err != nil {
		return Surface{}, err
	}
	return NewSurface(a, acoustic.Uniform(scattering))
}
