package acoustic

import "github.com/fogleman/pt/pt"

// Impulse is a single arrival at the receiver
type Impulse struct {
	// Energy per band
	Volume Bands
	// Where the arrival was emitted from (an image source or a reflection point)
	Position pt.Vector
	// Total path length in metres
	Distance float64
	// Number of reflections along the path, where known
	Order int
}

func (i Impulse) Time(env Environment) float64 {
	return env.Time(i.Distance)
}

// TimedVolume is the minimum a histogram needs to bin an arrival
type TimedVolume struct {
	Volume Bands
	Time   float64
}

// Timed converts impulses into arrival times using env
func Timed(impulses []Impulse, env Environment) []TimedVolume {
	ret := make([]TimedVolume, len(impulses))
	for i, imp := range impulses {
		ret[i] = TimedVolume{Volume: imp.Volume, Time: imp.Time(env)}
	}
	return ret
}
