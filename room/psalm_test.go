package room

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
)

func TestVisualPath(t *testing.T) {
	tests := []struct {
		name        string
		reflections []raytracer.Reflection
		want        int
		heard       bool
	}{
		{"immediate miss", []raytracer.Reflection{{Triangle: geo.NoTriangle}}, 1, false},
		{"two hits then miss", []raytracer.Reflection{
			{Position: V(1, 0, 0), Triangle: 3, KeepGoing: true},
			{Position: V(1, 1, 0), Triangle: 4, KeepGoing: true, ReceiverVisible: true},
			{Triangle: geo.NoTriangle},
		}, 3, true},
		{"stops after last live hit", []raytracer.Reflection{
			{Position: V(1, 0, 0), Triangle: 3, KeepGoing: false},
			{Position: V(1, 0, 0), Triangle: 3, KeepGoing: false},
		}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, heard := VisualPath(V(0, 0, 0), tt.reflections)
			assert.Len(t, path, tt.want)
			assert.Equal(t, V(0, 0, 0), path[0])
			assert.Equal(t, tt.heard, heard)
		})
	}
}

func TestSaveAnnotations(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "annotations.json")
	visual := [][]raytracer.Reflection{
		{{Position: V(1, 0, 0), Triangle: 1, KeepGoing: true, ReceiverVisible: true}},
		{{Triangle: geo.NoTriangle}},
	}
	require.NoError(t, SaveAnnotations(path, visual, V(0, 0, 0), V(2, 2, 2), 0.1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var a Annotations
	require.NoError(t, json.Unmarshal(data, &a))

	require.Len(t, a.Points, 2)
	assert.Equal("source", a.Points[0].Name)
	require.Len(t, a.Zones, 1)
	assert.Equal(0.1, a.Zones[0].Radius)
	require.Len(t, a.Paths, 2)
	assert.Equal(heardColor, a.Paths[0].Color)
	assert.Len(a.Paths[0].Points, 2)
	assert.Equal(unheardColor, a.Paths[1].Color)
}

func TestSaveImpulses(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "impulses.json")
	volume := acoustic.Uniform(0.01)
	volume[7] = 0
	impulses := []acoustic.Impulse{{Volume: volume, Position: V(1, 2, 3), Distance: 3.4, Order: 2}}
	require.NoError(t, SaveImpulses(path, impulses, acoustic.DefaultEnvironment()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Bands    []float64     `json:"bands"`
		Impulses []ImpulseJSON `json:"impulses"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Len(out.Bands, acoustic.NumBands)
	require.Len(t, out.Impulses, 1)
	imp := out.Impulses[0]
	assert.InDelta(0.01, imp.Time, 1e-12)
	assert.Equal(2, imp.Order)
	require.NotNil(t, imp.GainDB[0])
	assert.InDelta(-20, *imp.GainDB[0], 1e-9)
	assert.Nil(imp.GainDB[7])
}

func TestSaveHistogram(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "histogram.json")
	h := raytracer.NewHistogram(1000)
	for i, e := range exponentialDecay(1000, 0.12) {
		h.DiracSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(e), Time: float64(i) / 1000}}, 10)
	}
	require.NoError(t, SaveHistogram(path, h))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out HistogramJSON
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(1000.0, out.SampleRate)
	assert.Len(out.Bins, 1000)
	require.NotNil(t, out.RT60[3])
	assert.InDelta(0.5, *out.RT60[3], 1e-2)
}
