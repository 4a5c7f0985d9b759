package room

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
)

// JSON schema types for the annotation viewer
type PointJSON struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Size float64 `json:"size,omitempty"`
	Name string  `json:"name,omitempty"`
}

type PathJSON struct {
	Points    []PointJSON `json:"points"`
	Name      string      `json:"name,omitempty"`
	Color     string      `json:"color,omitempty"`
	Thickness float64     `json:"thickness,omitempty"`
}

type ZoneJSON struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Z            float64 `json:"z"`
	Radius       float64 `json:"radius"`
	Name         string  `json:"name,omitempty"`
	Color        string  `json:"color,omitempty"`
	Transparency float64 `json:"transparency,omitempty"`
}

type Annotations struct {
	Points []PointJSON `json:"points,omitempty"`
	Paths  []PathJSON  `json:"paths,omitempty"`
	Zones  []ZoneJSON  `json:"zones,omitempty"`
}

const (
	heardColor   = "#FF0000"
	unheardColor = "#808080"
)

func VectorToJSON(v pt.Vector) PointJSON {
	return PointJSON{
		X:    v.X,
		Y:    v.Y,
		Z:    v.Z,
		Size: 1.0,
	}
}

// VisualPath is the polyline a traced ray follows from the source, ending at its last hit
func VisualPath(source pt.Vector, reflections []raytracer.Reflection) (path []pt.Vector, heard bool) {
	path = []pt.Vector{source}
	for _, r := range reflections {
		if r.Triangle == geo.NoTriangle {
			break
		}
		path = append(path, r.Position)
		heard = heard || r.ReceiverVisible
		if !r.KeepGoing {
			break
		}
	}
	return path, heard
}

// NewAnnotations marks the source, the receiver sphere and the path of every visual ray.
// Paths with a reflection that sees the receiver are drawn in red.
func NewAnnotations(visual [][]raytracer.Reflection, source, receiver pt.Vector, radius float64) Annotations {
	src := VectorToJSON(source)
	src.Name = "source"
	rcv := VectorToJSON(receiver)
	rcv.Name = "receiver"

	a := Annotations{
		Points: []PointJSON{src, rcv},
		Paths:  make([]PathJSON, 0, len(visual)),
		Zones: []ZoneJSON{{
			X:            receiver.X,
			Y:            receiver.Y,
			Z:            receiver.Z,
			Radius:       radius,
			Name:         "receiver",
			Transparency: 0.5,
		}},
	}
	for i, reflections := range visual {
		positions, heard := VisualPath(source, reflections)
		color := unheardColor
		if heard {
			color = heardColor
		}
		path := PathJSON{
			Points:    make([]PointJSON, len(positions)),
			Name:      fmt.Sprintf("ray %d", i),
			Color:     color,
			Thickness: 1,
		}
		for j, p := range positions {
			path.Points[j] = VectorToJSON(p)
		}
		a.Paths = append(a.Paths, path)
	}
	return a
}

func saveJSON(filename string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filename, err)
	}
	return os.WriteFile(filename, data, 0644)
}

// SaveAnnotations writes the visual rays as viewer annotations
func SaveAnnotations(filename string, visual [][]raytracer.Reflection, source, receiver pt.Vector, radius float64) error {
	return saveJSON(filename, NewAnnotations(visual, source, receiver, radius))
}

type ImpulseJSON struct {
	Time     float64                     `json:"time"`
	Distance float64                     `json:"distance"`
	Order    int                         `json:"order"`
	Position PointJSON                   `json:"position"`
	Volume   [acoustic.NumBands]float64  `json:"volume"`
	GainDB   [acoustic.NumBands]*float64 `json:"gain_db"`
}

// dB values of silent bands are null, since JSON has no -Inf
func gainDB(b acoustic.Bands) [acoustic.NumBands]*float64 {
	var ret [acoustic.NumBands]*float64
	for i, v := range b {
		db := acoustic.ToDB(math.Abs(v))
		if math.IsInf(db, 0) || math.IsNaN(db) {
			continue
		}
		ret[i] = &db
	}
	return ret
}

// SaveImpulses writes impulses in arrival order of the slice
func SaveImpulses(filename string, impulses []acoustic.Impulse, env acoustic.Environment) error {
	out := struct {
		Bands    [acoustic.NumBands]float64 `json:"bands"`
		Impulses []ImpulseJSON              `json:"impulses"`
	}{
		Bands:    acoustic.BandCentres,
		Impulses: make([]ImpulseJSON, len(impulses)),
	}
	for i, imp := range impulses {
		out.Impulses[i] = ImpulseJSON{
			Time:     imp.Time(env),
			Distance: imp.Distance,
			Order:    imp.Order,
			Position: VectorToJSON(imp.Position),
			Volume:   imp.Volume,
			GainDB:   gainDB(imp.Volume),
		}
	}
	return saveJSON(filename, out)
}

type HistogramJSON struct {
	SampleRate float64                      `json:"sample_rate"`
	Bands      [acoustic.NumBands]float64   `json:"bands"`
	Bins       [][acoustic.NumBands]float64 `json:"bins"`
	RT60       [acoustic.NumBands]*float64  `json:"rt60"`
}

// SaveHistogram writes the energy histogram together with its per-band RT60 estimate
func SaveHistogram(filename string, h raytracer.Histogram) error {
	out := HistogramJSON{
		SampleRate: h.SampleRate,
		Bands:      acoustic.BandCentres,
		Bins:       make([][acoustic.NumBands]float64, len(h.Bins)),
	}
	for i, b := range h.Bins {
		out.Bins[i] = b
	}
	for i, t := range RT60(h) {
		if !math.IsNaN(t) {
			out.RT60[i] = &t
		}
	}
	return saveJSON(filename, out)
}
