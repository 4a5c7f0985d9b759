package raytracer

import (
	"context"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/fogleman/pt/pt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/imagesource"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

var (
	testBox      = pt.Box{Min: geo.V(0, 0, 0), Max: geo.V(4, 3, 6)}
	testSource   = geo.V(1, 1, 1)
	testReceiver = geo.V(2, 1, 5)
)

func testSurface(t *testing.T) scene.Surface {
	s, err := scene.UniformSurface(0.1, 0.001)
	require.NoError(t, err)
	return s
}

func boxScene(t *testing.T) *voxel.Scene {
	d, err := scene.Box(testBox.Min, testBox.Max, testSurface(t))
	require.NoError(t, err)
	s, err := voxel.NewScene(d, 3, 0.1)
	require.NoError(t, err)
	return s
}

func testParams() Params {
	return Params{
		Source:           testSource,
		Receiver:         testReceiver,
		Environment:      acoustic.DefaultEnvironment(),
		Rays:             2000,
		ReflectionDepth:  20,
		ImageSourceOrder: 2,
		Seed:             1,
	}
}

func TestDiracSum(t *testing.T) {
	assert := assert.New(t)
	h := NewHistogram(1000)
	h.DiracSum([]acoustic.TimedVolume{
		{Volume: acoustic.Uniform(1), Time: 0.0011},
		{Volume: acoustic.Uniform(2), Time: 0.0014},
		{Volume: acoustic.Uniform(4), Time: 0.0016},
	}, 60)
	require.Len(t, h.Bins, 3)
	assert.Equal(acoustic.Bands{}, h.Bins[0])
	assert.Equal(acoustic.Uniform(3), h.Bins[1])
	assert.Equal(acoustic.Uniform(4), h.Bins[2])
	assert.InDelta(0.003, h.Duration(), 1e-12)
	assert.Equal(acoustic.Uniform(7), h.Energy())

	// late items are dropped and the histogram stops growing at maxTime
	h.DiracSum([]acoustic.TimedVolume{
		{Volume: acoustic.Uniform(1), Time: 0.5},
		{Volume: acoustic.Uniform(1), Time: 2},
	}, 1)
	assert.Len(h.Bins, 1001)
	assert.Equal(acoustic.Uniform(1), h.Bins[500])
	assert.Equal(acoustic.Uniform(8), h.Energy())

	// never shrinks
	h.DiracSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 0}}, 60)
	assert.Len(h.Bins, 1001)
	assert.Equal(acoustic.Uniform(1), h.Bins[0])

	// nothing early enough leaves the histogram untouched
	late := NewHistogram(1000)
	late.DiracSum([]acoustic.TimedVolume{
		{Volume: acoustic.Uniform(1), Time: 1},
		{Volume: acoustic.Uniform(1), Time: 3},
	}, 1)
	assert.Empty(late.Bins)
	late.DiracSum(nil, 1)
	assert.Empty(late.Bins)
}

func TestSincSum(t *testing.T) {
	assert := assert.New(t)
	h := NewHistogram(1000)
	h.SincSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 0.5}}, 60)
	assert.Len(h.Bins, 700)
	assert.InDelta(1, h.Bins[500][0], 1e-12)
	assert.InDelta(0, h.Bins[501][0], 1e-12)
	assert.InDelta(0, h.Bins[499][0], 1e-12)
	assert.Equal(acoustic.Bands{}, h.Bins[299])

	// a pulse near zero is cut at the first bin
	h = NewHistogram(1000)
	h.SincSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 0.0005}}, 60)
	assert.Len(h.Bins, 201)

	h = NewHistogram(1000)
	h.SincSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 2}}, 1)
	assert.Empty(h.Bins)
}

func TestHistogramSum(t *testing.T) {
	assert := assert.New(t)
	a := NewHistogram(1000)
	a.DiracSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 0.001}}, 60)
	b := NewHistogram(1000)
	b.DiracSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(2), Time: 0.003}}, 60)

	require.NoError(t, a.Sum(b))
	assert.Len(a.Bins, 4)
	assert.Equal(acoustic.Uniform(3), a.Energy())
	assert.Equal([]float64{0, 1, 0, 2}, a.Band(0))

	c := NewHistogram(44100)
	c.DiracSum([]acoustic.TimedVolume{{Volume: acoustic.Uniform(1), Time: 0}}, 60)
	assert.ErrorIs(a.Sum(c), ErrSampleRate)
	assert.NoError(a.Sum(NewHistogram(44100)))
}

func TestParseHistogramMethod(t *testing.T) {
	for _, m := range []HistogramMethod{Dirac, Sinc} {
		got, err := ParseHistogramMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseHistogramMethod("boxcar")
	assert.Error(t, err)
}

func TestDirectionIndex(t *testing.T) {
	tests := []struct {
		name   string
		dir    pt.Vector
		az, el int
	}{
		{"up", geo.V(0, 1, 0), 10, 8},
		{"down", geo.V(0, -1, 0), 10, 0},
		{"plus_x", geo.V(1, 0, 0), 10, 4},
		{"minus_x", geo.V(-1, 0, 0), 19, 4},
		{"mostly_plus_z", geo.V(0.1, 0, 1), 14, 4},
		{"minus_z", geo.V(0, 0, -1), 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			az, el := DirectionIndex(tt.dir)
			assert.Equal(t, tt.az, az)
			assert.Equal(t, tt.el, el)
		})
	}
}

func TestDirectionalHistogram(t *testing.T) {
	assert := assert.New(t)
	d := NewDirectionalHistogram(1000)
	d.Add(Dirac, []DirectedVolume{
		{TimedVolume: acoustic.TimedVolume{Volume: acoustic.Uniform(1), Time: 0.01}, Pointing: geo.V(0, 1, 0)},
		{TimedVolume: acoustic.TimedVolume{Volume: acoustic.Uniform(2), Time: 0.01}, Pointing: geo.V(0, -1, 0)},
	}, 60)
	assert.Equal(acoustic.Uniform(1), d.Table[10][8].Energy())
	assert.Equal(acoustic.Uniform(2), d.Table[10][0].Energy())
	assert.Empty(d.Table[0][0].Bins)
	total := d.Total()
	assert.Equal(acoustic.Uniform(3), total.Energy())
	assert.Equal(acoustic.Uniform(3), total.Bins[10])
}

func TestSubstrates(t *testing.T) {
	substrates := map[string]Substrate{
		"sequential":    SequentialSubstrate{},
		"parallel":      ParallelSubstrate{},
		"small_chunks":  ParallelSubstrate{Workers: 3, Chunk: 7},
		"single_worker": ParallelSubstrate{Workers: 1},
	}
	for name, sub := range substrates {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			out := make([]int, 1000)
			var calls atomic.Int64
			require.NoError(t, sub.Run(context.Background(), len(out), func(i int) {
				out[i] = i * i
				calls.Add(1)
			}))
			assert.EqualValues(len(out), calls.Load())
			for i, v := range out {
				assert.Equal(i*i, v)
			}

			assert.NoError(sub.Run(context.Background(), 0, func(int) { t.Fatal("called") }))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.ErrorIs(sub.Run(ctx, 10, func(int) {}), context.Canceled)
		})
	}
	assert.Equal(t, SequentialSubstrate{}, NewSubstrate(1))
	assert.Equal(t, ParallelSubstrate{Workers: 4}, NewSubstrate(4))
}

func TestOptimumReflectionNumber(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(132, OptimumReflectionNumber(1e-6, 0.9))
	assert.Equal(1000, OptimumReflectionNumber(1e-6, 1))
	assert.Equal(1000, OptimumReflectionNumber(1e-6, 0.9999))
	assert.Equal(1, OptimumReflectionNumber(1e-6, 0))

	d, err := scene.Box(testBox.Min, testBox.Max, testSurface(t))
	require.NoError(t, err)
	assert.Equal(132, SceneReflectionNumber(d))
}

func TestComputeRayEnergy(t *testing.T) {
	assert := assert.New(t)
	// a receiver enclosing the source catches everything
	assert.InDelta(0.02, ComputeRayEnergy(100, testSource, testSource, 0.1), 1e-12)

	d := testSource.Sub(testReceiver).Length()
	cos := math.Sqrt(1 - 0.01/(d*d))
	assert.InDelta(2/(100*(1-cos)), ComputeRayEnergy(100, testSource, testReceiver, 0.1), 1e-6)
}

func TestRandomDirections(t *testing.T) {
	assert := assert.New(t)
	dirs := RandomDirections(5000, rand.New(rand.NewSource(3)))
	var sum pt.Vector
	for _, d := range dirs {
		assert.InDelta(1, d.Length(), 1e-12)
		sum = sum.Add(d)
	}
	mean := sum.DivScalar(float64(len(dirs)))
	assert.Less(mean.Length(), 0.05)
}

func TestReflector(t *testing.T) {
	assert := assert.New(t)
	s := boxScene(t)
	b := voxel.NewBuffers(s)

	rays := []geo.Ray{
		{Origin: testSource, Direction: geo.V(1, 0, 0)},
		// starts outside and points away
		{Origin: geo.V(-1, 1, 1), Direction: geo.V(-1, 0, 0)},
	}
	r := NewReflector(testReceiver, rays, SequentialSubstrate{}, rand.New(rand.NewSource(1)))
	assert.Equal(2, r.Len())

	first, err := r.RunStep(context.Background(), b)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(first[0].KeepGoing)
	assert.True(first[0].ReceiverVisible)
	assert.True(geo.ApproxEqual(geo.V(4, 1, 1), first[0].Position, 1e-9))
	assert.Less(first[0].Direction.X, -0.99)
	assert.InDelta(1, first[0].Direction.Length(), 1e-9)
	assert.NotEqual(geo.NoTriangle, first[0].Triangle)
	assert.False(first[1].KeepGoing)
	assert.Equal(geo.NoTriangle, first[1].Triangle)

	second, err := r.RunStep(context.Background(), b)
	require.NoError(t, err)
	assert.True(second[0].KeepGoing)
	assert.InDelta(0, second[0].Position.X, 1e-2)
	assert.NotEqual(first[0].Triangle, second[0].Triangle)
	assert.False(second[1].KeepGoing)

	// records belong to the caller
	first[0].Position = geo.V(9, 9, 9)
	third, err := r.RunStep(context.Background(), b)
	require.NoError(t, err)
	assert.InDelta(4, third[0].Position.X, 1e-1)
}

func TestRunErrors(t *testing.T) {
	s := boxScene(t)
	tests := []struct {
		name   string
		modify func(*Params)
		err    error
	}{
		{"no_rays", func(p *Params) { p.Rays = 0 }, ErrNoRays},
		{"slow_sound", func(p *Params) { p.Environment.SpeedOfSound = 200 }, ErrSpeedOfSound},
		{"bad_impedance", func(p *Params) { p.Environment.AcousticImpedance = 0 }, acoustic.ErrInvalidEnvironment},
		{"visual_count", func(p *Params) { p.VisualRays = p.Rays + 1 }, ErrVisualCount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.modify(&p)
			res, err := Run(context.Background(), s, p)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, res)
		})
	}
}

func TestRunCancelled(t *testing.T) {
	s := boxScene(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Run(ctx, s, testParams())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)

	// cancelling between segments also gives nothing back
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	p := testParams()
	p.Rays = segmentSize + 10
	p.ReflectionDepth = 2
	res, err = Run(ctx, s, p, WithProgress(func(done, total int) {
		cancel()
	}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestRunDeterministic(t *testing.T) {
	s := boxScene(t)
	p := testParams()
	p.VisualRays = 4
	p.Directional = true

	p.Substrate = SequentialSubstrate{}
	a, err := Run(context.Background(), s, p)
	require.NoError(t, err)

	p.Substrate = ParallelSubstrate{Workers: 4, Chunk: 7}
	b, err := Run(context.Background(), s, p)
	require.NoError(t, err)

	assert.Equal(t, a.ImageSource, b.ImageSource)
	assert.Equal(t, a.Stochastic, b.Stochastic)
	assert.Equal(t, a.Directional, b.Directional)
	assert.Equal(t, a.Visual, b.Visual)
}

func TestRunResults(t *testing.T) {
	assert := assert.New(t)
	s := boxScene(t)
	p := testParams()
	p.VisualRays = 3
	p.Directional = true

	var progress [][2]int
	res, err := Run(context.Background(), s, p, WithProgress(func(done, total int) {
		progress = append(progress, [2]int{done, total})
	}))
	require.NoError(t, err)
	assert.Equal([][2]int{{1, 1}}, progress)
	assert.Equal(20, res.ReflectionDepth)

	require.Len(t, res.Visual, 3)
	for _, path := range res.Visual {
		assert.Len(path, 20)
		for _, r := range path {
			assert.True(r.KeepGoing)
			assert.True(geo.BoxContains(geo.PadBox(testBox, 1e-6), r.Position))
		}
	}

	energy := res.Stochastic.Energy()
	assert.True(energy.All(func(v float64) bool { return v > 0 }))
	directional := res.Directional.Total().Energy()
	assert.InDeltaSlice(energy[:], directional[:], 1e-9)

	require.NotEmpty(t, res.ImageSource)
	direct := res.ImageSource[0]
	assert.Equal(0, direct.Order)
	assert.Equal(testSource, direct.Position)
	assert.InDelta(acoustic.PressureForDistance(math.Sqrt(17), acoustic.AcousticImpedance), direct.Volume[0], 1e-12)

	// lower image-source orders hand their specular energy to the histogram
	p.ImageSourceOrder = 0
	all, err := Run(context.Background(), s, p)
	require.NoError(t, err)
	assert.GreaterOrEqual(all.Stochastic.Energy()[0], energy[0])
	require.Len(t, all.ImageSource, 1)
}

func TestRunMatchesExact(t *testing.T) {
	assert := assert.New(t)
	s := boxScene(t)
	env := acoustic.DefaultEnvironment()
	p := testParams()
	p.Rays = 100000
	p.ReflectionDepth = 3
	p.ImageSourceOrder = 3

	res, err := Run(context.Background(), s, p)
	require.NoError(t, err)
	assert.Equal(3, res.ReflectionDepth)

	exact, err := imagesource.FindImpulses(testBox, testSource, testReceiver, testSurface(t), 3)
	require.NoError(t, err)

	pressure := func(imp acoustic.Impulse) acoustic.Bands {
		return imp.Volume.Scale(acoustic.PressureForDistance(imp.Distance, env.AcousticImpedance))
	}

	for _, imp := range res.ImageSource {
		matched := false
		for _, e := range exact {
			if geo.ApproxEqual(e.Position, imp.Position, 1e-6) {
				matched = true
				assert.Equal(e.Order, imp.Order)
				assert.InDelta(e.Distance, imp.Distance, 1e-6)
				assert.InDelta(pressure(e.Impulse)[0], imp.Volume[0], 1e-9)
			}
		}
		assert.True(matched, "no exact image at %v", imp.Position)
	}

	traced := 0
	for _, e := range exact {
		if e.Order > p.ImageSourceOrder {
			continue
		}
		found := 0
		for _, imp := range res.ImageSource {
			if geo.ApproxEqual(e.Position, imp.Position, 1e-6) {
				found++
			}
		}
		assert.Equal(1, found, "image of order %v traced %d times", e.Orders, found)
		traced++
	}
	assert.Equal(63, traced)
	assert.Len(res.ImageSource, traced)
}
