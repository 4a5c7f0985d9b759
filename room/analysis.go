package room

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
)

const MS float64 = 1.0 / 1000.0

// The decay range fitted for a T30 estimate, in dB below the total energy
const (
	fitStartDB = -5
	fitEndDB   = -35
)

var ErrShortDecay = errors.New("decay does not reach -35 dB")

// SchroederDecay is the backwards-integrated energy of series in dB relative to its total.
// Bins after the last arrival are -Inf.
func SchroederDecay(series []float64) []float64 {
	ret := make([]float64, len(series))
	floats.CumSum(ret, reversed(series))
	ret = reversed(ret)
	total := 0.0
	if len(ret) > 0 {
		total = ret[0]
	}
	for i, e := range ret {
		if total <= 0 || e <= 0 {
			ret[i] = math.Inf(-1)
			continue
		}
		ret[i] = 10 * math.Log10(e/total)
	}
	return ret
}

func reversed(s []float64) []float64 {
	ret := slices.Clone(s)
	floats.Reverse(ret)
	return ret
}

// EstimateRT60 fits a line to the -5 to -35 dB range of a Schroeder decay sampled at
// sampleRate and extrapolates it to 60 dB of decay
func EstimateRT60(decay []float64, sampleRate float64) (float64, error) {
	var xs, ys []float64
	reached := false
	for i, db := range decay {
		if db > fitStartDB {
			continue
		}
		if db < fitEndDB {
			reached = true
			break
		}
		xs = append(xs, float64(i)/sampleRate)
		ys = append(ys, db)
	}
	if !reached || len(xs) < 2 {
		return 0, ErrShortDecay
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if slope >= 0 {
		return 0, ErrShortDecay
	}
	return -60 / slope, nil
}

// RT60 estimates the reverb time of every band of h. Bands whose decay is too short are NaN.
func RT60(h raytracer.Histogram) acoustic.Bands {
	var ret acoustic.Bands
	for band := range ret {
		t, err := EstimateRT60(SchroederDecay(h.Band(band)), h.SampleRate)
		if err != nil {
			t = math.NaN()
		}
		ret[band] = t
	}
	return ret
}

// EnergyOverWindow sums the energy of every impulse arriving within windowMS of the first
func EnergyOverWindow(impulses []acoustic.Impulse, env acoustic.Environment, windowMS float64) acoustic.Bands {
	var ret acoustic.Bands
	if len(impulses) == 0 {
		return ret
	}
	first := math.Inf(1)
	for _, imp := range impulses {
		first = math.Min(first, imp.Time(env))
	}
	for _, imp := range impulses {
		if (imp.Time(env)-first)/MS < windowMS {
			ret = ret.Add(imp.Volume)
		}
	}
	return ret
}
