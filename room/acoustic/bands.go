package acoustic

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// NumBands is the number of frequency bands every per-band quantity carries
const NumBands = 8

// BandCentres are the centre frequencies, in Hz, of the simulation bands
var BandCentres = [NumBands]float64{62.5, 125, 250, 500, 1000, 2000, 4000, 8000}

// Bands holds one value per frequency band
type Bands [NumBands]float64

// Uniform returns Bands with every band set to v
func Uniform(v float64) Bands {
	var b Bands
	for i := range b {
		b[i] = v
	}
	return b
}

func (b Bands) Add(o Bands) Bands {
	for i := range b {
		b[i] += o[i]
	}
	return b
}

func (b Bands) Sub(o Bands) Bands {
	for i := range b {
		b[i] -= o[i]
	}
	return b
}

func (b Bands) Mul(o Bands) Bands {
	for i := range b {
		b[i] *= o[i]
	}
	return b
}

func (b Bands) Scale(s float64) Bands {
	for i := range b {
		b[i] *= s
	}
	return b
}

func (b Bands) Sqrt() Bands {
	for i := range b {
		b[i] = math.Sqrt(b[i])
	}
	return b
}

func (b Bands) Pow(n int) Bands {
	for i := range b {
		b[i] = math.Pow(b[i], float64(n))
	}
	return b
}

// Map applies fn to every band
func (b Bands) Map(fn func(float64) float64) Bands {
	for i := range b {
		b[i] = fn(b[i])
	}
	return b
}

func (b Bands) Mean() float64 {
	return floats.Sum(b[:]) / float64(len(b))
}

func (b Bands) Min() float64 {
	m := b[0]
	for _, v := range b[1:] {
		m = math.Min(m, v)
	}
	return m
}

func (b Bands) Max() float64 {
	m := b[0]
	for _, v := range b[1:] {
		m = math.Max(m, v)
	}
	return m
}

// Any reports whether pred holds for at least one band
func (b Bands) Any(pred func(float64) bool) bool {
	for _, v := range b {
		if pred(v) {
			return true
		}
	}
	return false
}

// All reports whether pred holds for every band
func (b Bands) All(pred func(float64) bool) bool {
	for _, v := range b {
		if !pred(v) {
			return false
		}
	}
	return true
}

// IsZero reports whether every band is exactly zero
func (b Bands) IsZero() bool {
	return b == Bands{}
}
