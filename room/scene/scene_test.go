package scene

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/fogleman/pt/pt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
)

func mustSurface(t *testing.T, absorption, scattering float64) Surface {
	s, err := UniformSurface(absorption, scattering)
	require.NoError(t, err)
	return s
}

func TestNewSurface(t *testing.T) {
	tests := []struct {
		name       string
		absorption float64
		scattering float64
		valid      bool
	}{
		{"typical", 0.1, 0.1, true},
		{"zero_absorption", 0, 0.1, false},
		{"full_absorption", 1, 0.1, false},
		{"negative_scattering", 0.5, -0.1, false},
		{"nearly_one", 0.999, 0.001, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UniformSurface(tt.absorption, tt.scattering)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSurface)
			}
		})
	}
}

func TestReflectance(t *testing.T) {
	assert := assert.New(t)
	s := Surface{Absorption: acoustic.Uniform(0.19), Scattering: acoustic.Uniform(0.5)}

	assert.InDelta(0.81, s.EnergyReflectance()[0], 1e-12)
	assert.InDelta(0.9, s.PressureReflectance()[3], 1e-12)
	assert.InDelta(math.Sqrt(0.81*0.5), s.SpecularReflectance()[7], 1e-12)

	clamped := ClampSurface(Surface{Absorption: acoustic.Uniform(0), Scattering: acoustic.Uniform(1)})
	assert.NoError(clamped.Validate())
	assert.Equal(acoustic.Uniform(0.001), clamped.Absorption)
	assert.Equal(acoustic.Uniform(0.999), clamped.Scattering)
}

func TestNewValidatesIndices(t *testing.T) {
	assert := assert.New(t)
	verts := []pt.Vector{geo.V(0, 0, 0), geo.V(1, 0, 0), geo.V(0, 1, 0)}
	surfaces := []Surface{mustSurface(t, 0.1, 0.1)}

	_, err := New(verts, []Triangle{{V0: 0, V1: 1, V2: 3}}, surfaces)
	assert.ErrorIs(err, ErrBadIndex)

	_, err = New(verts, []Triangle{{V0: 0, V1: 1, V2: 2, Surface: 1}}, surfaces)
	assert.ErrorIs(err, ErrBadIndex)

	_, err = New(verts, []Triangle{{V0: 0, V1: 1, V2: 2}}, []Surface{{}})
	assert.ErrorIs(err, ErrInvalidSurface)

	d, err := New(verts, []Triangle{{V0: 0, V1: 1, V2: 2}}, surfaces)
	assert.NoError(err)
	assert.Equal([]string{"surface_0"}, d.SurfaceNames)
}

func TestBox(t *testing.T) {
	assert := assert.New(t)
	d, err := Box(geo.V(4, 3, 6), geo.V(0, 0, 0), mustSurface(t, 0.1, 0.1))
	require.NoError(t, err)

	assert.Len(d.Triangles, 12)
	assert.Len(d.Vertices, 8)
	assert.InDelta(72, d.Volume(), 1e-9)
	assert.InDelta(108, d.Area(), 1e-9)
	assert.InDelta(12, d.SurfaceArea(FaceMinZ), 1e-9)
	assert.Equal(pt.Box{Min: geo.V(0, 0, 0), Max: geo.V(4, 3, 6)}, d.BoundingBox())
	assert.Equal("max_y", d.SurfaceNames[FaceMaxY])

	centre := geo.V(2, 1.5, 3)
	for i := range d.Triangles {
		v := d.TriangleVerts(i)
		mid := v[0].Add(v[1]).Add(v[2]).DivScalar(3)
		assert.Greater(v.Normal().Dot(centre.Sub(mid)), 0.0, "triangle %d faces outward", i)
	}

	_, err = Box(geo.V(0, 0, 0), geo.V(1, 0, 1), mustSurface(t, 0.1, 0.1))
	assert.Error(err)
}

func TestSetSurfaces(t *testing.T) {
	assert := assert.New(t)
	d, err := Box(geo.V(0, 0, 0), geo.V(1, 1, 1), mustSurface(t, 0.1, 0.1))
	require.NoError(t, err)

	assert.ErrorIs(d.SetSurface(6, mustSurface(t, 0.2, 0.2)), ErrBadIndex)
	assert.ErrorIs(d.SetSurface(0, Surface{}), ErrInvalidSurface)
	assert.NoError(d.SetSurface(FaceMinX, mustSurface(t, 0.05, 0.2)))
	assert.InDelta(0.05, d.MinAbsorption(), 1e-12)
	assert.InDelta(0.95, d.MaxReflectance(), 1e-12)

	assert.ErrorIs(d.SetSurfaces([]Surface{mustSurface(t, 0.2, 0.2)}), ErrBadIndex)

	found, err := d.SetSurfaceByName("min_x", mustSurface(t, 0.3, 0.2))
	assert.NoError(err)
	assert.True(found)
	assert.InDelta(0.1, d.MinAbsorption(), 1e-12)

	found, err = d.SetSurfaceByName("ceiling", mustSurface(t, 0.3, 0.2))
	assert.NoError(err)
	assert.False(found)
}

func TestReverbTime(t *testing.T) {
	assert := assert.New(t)
	d, err := Box(geo.V(0, 0, 0), geo.V(4, 3, 6), mustSurface(t, 0.1, 0.1))
	require.NoError(t, err)

	sabine, err := SabineReverbTime(d, acoustic.Bands{})
	require.NoError(t, err)
	assert.InDelta(0.161*72/10.8, sabine[0], 1e-9)

	eyring, err := EyringReverbTime(d, acoustic.Bands{})
	require.NoError(t, err)
	assert.InDelta(0.161*72/(-108*math.Log(0.9)), eyring[4], 1e-9)
	assert.Less(eyring[4], sabine[4])

	withAir, err := SabineReverbTime(d, acoustic.Uniform(0.01))
	require.NoError(t, err)
	assert.Less(withAir[0], sabine[0])

	flat, err := New([]pt.Vector{geo.V(0, 0, 0), geo.V(1, 0, 0), geo.V(0, 1, 0)},
		[]Triangle{{V0: 0, V1: 1, V2: 2}}, []Surface{mustSurface(t, 0.1, 0.1)})
	require.NoError(t, err)
	_, err = SabineReverbTime(flat, acoustic.Bands{})
	assert.ErrorIs(err, ErrNoReverb)
}

func TestCurveSurface(t *testing.T) {
	assert := assert.New(t)

	s, err := CurveSurface(Curve{125: 0.1, 1000: 0.5, 8000: 0.7}, 0.2)
	require.NoError(t, err)
	want := acoustic.Bands{0.1, 0.1, 0.1 + 0.4*125/875, 0.1 + 0.4*375/875, 0.5, 0.5 + 0.2*1000/7000, 0.5 + 0.2*3000/7000, 0.7}
	for i := range want {
		assert.InDelta(want[i], s.Absorption[i], 1e-9, "band %d", i)
	}
	assert.Equal(acoustic.Uniform(0.2), s.Scattering)

	s, err = CurveSurface(Curve{500: 0.3}, 0.1)
	require.NoError(t, err)
	assert.Equal(acoustic.Uniform(0.3), s.Absorption)

	_, err = CurveSurface(Curve{}, 0.1)
	assert.ErrorIs(err, ErrInvalidSurface)
	_, err = CurveSurface(Curve{-1: 0.2}, 0.1)
	assert.ErrorIs(err, ErrInvalidSurface)
	_, err = CurveSurface(Curve{100: 1.2}, 0.1)
	assert.ErrorIs(err, ErrInvalidSurface)
}

func TestBuilderSharesVertices(t *testing.T) {
	assert := assert.New(t)
	b := newBuilder()
	b.add("floor", geo.V(0, 0, 0), geo.V(1, 0, 0), geo.V(0, 1, 0))
	b.add("floor", geo.V(1, 0, 0), geo.V(1, 1, 0), geo.V(0, 1, 0))
	b.add("wall", geo.V(0, 0, 0), geo.V(0, 0, 1), geo.V(0, 1, 0))

	_, err := b.build(Assignment{"floor": mustSurface(t, 0.1, 0.1)})
	assert.ErrorIs(err, ErrNoSurface)

	d, err := b.build(Assignment{
		"floor":            mustSurface(t, 0.1, 0.1),
		DefaultSurfaceName: mustSurface(t, 0.4, 0.1),
	})
	require.NoError(t, err)
	assert.Len(d.Vertices, 5)
	assert.Equal([]string{"floor", "wall"}, d.SurfaceNames)
	assert.Equal(1, d.Triangles[2].Surface)
	assert.InDelta(0.4, d.Surface(2).Absorption[0], 1e-12)
}

func TestSTLRoundTrip(t *testing.T) {
	assert := assert.New(t)
	d, err := Box(geo.V(0, 0, 0), geo.V(4, 3, 6), mustSurface(t, 0.1, 0.1))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "box.stl")
	require.NoError(t, d.SaveSTL(path))

	loaded, err := LoadMesh(path, Assignment{DefaultSurfaceName: mustSurface(t, 0.2, 0.1)})
	require.NoError(t, err)
	assert.Len(loaded.Triangles, 12)
	assert.Len(loaded.Vertices, 8)
	assert.InDelta(72, loaded.Volume(), 1e-6)

	_, err = LoadMesh("room.ply", nil)
	assert.ErrorIs(err, ErrUnsupportedMesh)
}

func TestAssignmentApply(t *testing.T) {
	assert := assert.New(t)
	d, err := Box(geo.V(0, 0, 0), geo.V(1, 1, 1), mustSurface(t, 0.1, 0.1))
	require.NoError(t, err)

	floor := mustSurface(t, 0.4, 0.2)
	walls := mustSurface(t, 0.05, 0.1)
	require.NoError(t, Assignment{"min_y": floor, DefaultSurfaceName: walls}.Apply(d))
	assert.Equal(floor, d.Surfaces[FaceMinY])
	assert.Equal(walls, d.Surfaces[FaceMaxZ])
	assert.InDelta(0.05, d.MinAbsorption(), 1e-12)

	assert.ErrorIs(Assignment{"min_y": floor}.Apply(d), ErrNoSurface)
}
