package scene

import (
	"errors"
	"math"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
)

var ErrNoReverb = errors.New("reverb time needs a positive volume and absorption area")

const sabineConstant = 0.161

// EquivalentAbsorptionArea is the sum over surfaces of area times absorption, per band
func (d *Data) EquivalentAbsorptionArea() acoustic.Bands {
	var ret acoustic.Bands
	for i, s := range d.Surfaces {
		ret = ret.Add(s.Absorption.Scale(d.SurfaceArea(i)))
	}
	return ret
}

// SabineReverbTime is 0.161 V / (A + 4 V m) per band, where m is the intensity absorption of air
func SabineReverbTime(d *Data, air acoustic.Bands) (acoustic.Bands, error) {
	volume := d.Volume()
	area := d.EquivalentAbsorptionArea()
	if volume <= 0 || !area.All(func(a float64) bool { return a > 0 }) {
		return acoustic.Bands{}, ErrNoReverb
	}
	var ret acoustic.Bands
	for i := range ret {
		ret[i] = sabineConstant * volume / (area[i] + 4*volume*air[i])
	}
	return ret, nil
}

// EyringReverbTime is 0.161 V / (-S ln(1 - A/S) + 4 V m) per band. It is shorter than the
// Sabine estimate and better behaved in strongly absorbing rooms.
func EyringReverbTime(d *Data, air acoustic.Bands) (acoustic.Bands, error) {
	volume := d.Volume()
	area := d.EquivalentAbsorptionArea()
	total := d.Area()
	if volume <= 0 || total <= 0 || !area.All(func(a float64) bool { return a > 0 }) {
		return acoustic.Bands{}, ErrNoReverb
	}
	var ret acoustic.Bands
	for i := range ret {
		ret[i] = sabineConstant * volume / (-total*math.Log(1-area[i]/total) + 4*volume*air[i])
	}
	return ret, nil
}
