package raytracer

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"
	"gonum.org/v1/gonum/floats"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
)

var ErrSampleRate = errors.New("histogram sample rates differ")

// HistogramMethod selects how an arrival is spread over the histogram bins
type HistogramMethod int

const (
	// Dirac adds each arrival to the single nearest bin
	Dirac HistogramMethod = iota
	// Sinc spreads each arrival over a windowed sinc kernel centred on its exact time
	Sinc
)

func (m HistogramMethod) String() string {
	switch m {
	case Dirac:
		return "dirac"
	case Sinc:
		return "sinc"
	}
	return fmt.Sprintf("HistogramMethod(%d)", int(m))
}

// ParseHistogramMethod is the inverse of String
func ParseHistogramMethod(s string) (HistogramMethod, error) {
	switch s {
	case "", "dirac":
		return Dirac, nil
	case "sinc":
		return Sinc, nil
	}
	return 0, fmt.Errorf("unknown histogram method %q", s)
}

// sincWidth is the support of the sinc kernel, in samples
const sincWidth = 400

// Histogram is per-band energy binned by arrival time
type Histogram struct {
	SampleRate float64
	Bins       []acoustic.Bands
}

func NewHistogram(sampleRate float64) Histogram {
	return Histogram{SampleRate: sampleRate}
}

func (h *Histogram) bucket(t float64) int {
	return int(math.Round(t * h.SampleRate))
}

func (h *Histogram) grow(n int) {
	if n > len(h.Bins) {
		h.Bins = append(h.Bins, make([]acoustic.Bands, n-len(h.Bins))...)
	}
}

// Add bins items with the given method
func (h *Histogram) Add(method HistogramMethod, items []acoustic.TimedVolume, maxTime float64) {
	if method == Sinc {
		h.SincSum(items, maxTime)
		return
	}
	h.DiracSum(items, maxTime)
}

// DiracSum adds every item with a time below maxTime to its nearest bin. The histogram grows to
// cover the latest item, up to maxTime, but only when some item is early enough to be kept.
func (h *Histogram) DiracSum(items []acoustic.TimedVolume, maxTime float64) {
	latest := 0.0
	accepted := false
	for _, it := range items {
		latest = math.Max(latest, it.Time)
		accepted = accepted || it.Time < maxTime
	}
	if !accepted {
		return
	}
	h.grow(h.bucket(math.Min(latest, maxTime)) + 1)
	for _, it := range items {
		if it.Time >= maxTime {
			continue
		}
		b := h.bucket(it.Time)
		h.grow(b + 1)
		h.Bins[b] = h.Bins[b].Add(it.Volume)
	}
}

// SincSum adds every item with a time below maxTime as a Hann-windowed sinc pulse. fu2015 2.2.2.
func (h *Histogram) SincSum(items []acoustic.TimedVolume, maxTime float64) {
	for _, it := range items {
		if it.Time >= maxTime {
			continue
		}
		centre := it.Time * h.SampleRate
		begin := int(math.Floor(centre - sincWidth/2))
		end := int(math.Ceil(centre + sincWidth/2))
		h.grow(end)
		for i := max(0, begin); i < end; i++ {
			rel := float64(i) - centre
			envelope := 0.5 * (1 + math.Cos(2*math.Pi*rel/sincWidth))
			h.Bins[i] = h.Bins[i].Add(it.Volume.Scale(envelope * sinc(rel)))
		}
	}
}

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	x := math.Pi * t
	return math.Sin(x) / x
}

// Sum adds o into h bin by bin
func (h *Histogram) Sum(o Histogram) error {
	if len(o.Bins) == 0 {
		return nil
	}
	if h.SampleRate != o.SampleRate {
		return fmt.Errorf("%w: %v and %v", ErrSampleRate, h.SampleRate, o.SampleRate)
	}
	h.grow(len(o.Bins))
	for i, b := range o.Bins {
		h.Bins[i] = h.Bins[i].Add(b)
	}
	return nil
}

// Duration in seconds covered by the bins
func (h Histogram) Duration() float64 {
	return float64(len(h.Bins)) / h.SampleRate
}

// Band extracts one band as a series
func (h Histogram) Band(band int) []float64 {
	ret := make([]float64, len(h.Bins))
	for i, b := range h.Bins {
		ret[i] = b[band]
	}
	return ret
}

// Energy is the total per band
func (h Histogram) Energy() acoustic.Bands {
	var ret acoustic.Bands
	for band := range ret {
		ret[band] = floats.Sum(h.Band(band))
	}
	return ret
}

const (
	azimuthDivisions   = 20
	elevationDivisions = 9
)

// DirectionalHistogram keeps a histogram per arrival direction, split into equal azimuth and
// elevation steps. Azimuth is measured in the XZ plane and elevation from it toward +Y.
type DirectionalHistogram struct {
	SampleRate float64
	Table      [azimuthDivisions][elevationDivisions]Histogram
}

func NewDirectionalHistogram(sampleRate float64) *DirectionalHistogram {
	d := &DirectionalHistogram{SampleRate: sampleRate}
	for a := range d.Table {
		for e := range d.Table[a] {
			d.Table[a][e] = NewHistogram(sampleRate)
		}
	}
	return d
}

// DirectionIndex maps a unit direction to its azimuth and elevation cell
func DirectionIndex(dir pt.Vector) (az, el int) {
	azimuth := math.Atan2(dir.Z, dir.X)
	elevation := math.Asin(math.Max(-1, math.Min(1, dir.Y)))
	az = int((azimuth + math.Pi) / (2 * math.Pi) * azimuthDivisions)
	el = int((elevation + math.Pi/2) / math.Pi * elevationDivisions)
	return min(max(az, 0), azimuthDivisions-1), min(max(el, 0), elevationDivisions-1)
}

// DirectedVolume is an arrival along with the direction it arrives from
type DirectedVolume struct {
	acoustic.TimedVolume
	Pointing pt.Vector
}

func (d *DirectionalHistogram) Add(method HistogramMethod, items []DirectedVolume, maxTime float64) {
	var groups [azimuthDivisions][elevationDivisions][]acoustic.TimedVolume
	for _, it := range items {
		az, el := DirectionIndex(it.Pointing)
		groups[az][el] = append(groups[az][el], it.TimedVolume)
	}
	for a := range groups {
		for e, g := range groups[a] {
			d.Table[a][e].Add(method, g, maxTime)
		}
	}
}

// Total collapses every direction into one histogram
func (d *DirectionalHistogram) Total() Histogram {
	ret := NewHistogram(d.SampleRate)
	for a := range d.Table {
		for e := range d.Table[a] {
			// sample rates are shared so Sum cannot fail
			_ = ret.Sum(d.Table[a][e])
		}
	}
	return ret
}
