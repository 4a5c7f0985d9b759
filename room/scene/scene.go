package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
)

var (
	ErrInvalidSurface = errors.New("surface coefficients must lie strictly between 0 and 1")
	ErrBadIndex       = errors.New("index out of range")
)

type Triangle = geo.Triangle

// Surface holds per-band absorption and scattering coefficients
type Surface struct {
	Absorption acoustic.Bands
	Scattering acoustic.Bands
}

func inUnitInterval(v float64) bool {
	return 0 < v && v < 1
}

// NewSurface validates that every coefficient lies in the open interval (0, 1)
func NewSurface(absorption, scattering acoustic.Bands) (Surface, error) {
	s := Surface{Absorption: absorption, Scattering: scattering}
	return s, s.Validate()
}

// UniformSurface is NewSurface with the same coefficient in every band
func UniformSurface(absorption, scattering float64) (Surface, error) {
	return NewSurface(acoustic.Uniform(absorption), acoustic.Uniform(scattering))
}

func (s Surface) Validate() error {
	if !s.Absorption.All(inUnitInterval) {
		return fmt.Errorf("%w: absorption %v", ErrInvalidSurface, s.Absorption)
	}
	if !s.Scattering.All(inUnitInterval) {
		return fmt.Errorf("%w: scattering %v", ErrInvalidSurface, s.Scattering)
	}
	return nil
}

const (
	minCoefficient = 0.001
	maxCoefficient = 0.999
)

// ClampSurface forces every coefficient into [0.001, 0.999]
func ClampSurface(s Surface) Surface {
	clamp := func(v float64) float64 {
		return math.Max(minCoefficient, math.Min(maxCoefficient, v))
	}
	return Surface{Absorption: s.Absorption.Map(clamp), Scattering: s.Scattering.Map(clamp)}
}

// EnergyReflectance is 1 - absorption
func (s Surface) EnergyReflectance() acoustic.Bands {
	return acoustic.Uniform(1).Sub(s.Absorption)
}

func (s Surface) PressureReflectance() acoustic.Bands {
	return s.EnergyReflectance().Sqrt()
}

// SpecularReflectance is the pressure reflectance of the specular part only:
// sqrt((1 - absorption) * (1 - scattering))
func (s Surface) SpecularReflectance() acoustic.Bands {
	return s.EnergyReflectance().Mul(acoustic.Uniform(1).Sub(s.Scattering)).Sqrt()
}

// Data is a triangle mesh whose triangles reference shared vertex and surface arrays. Geometry
// is fixed after construction; surfaces may be reassigned.
type Data struct {
	Vertices  []pt.Vector
	Triangles []Triangle
	Surfaces  []Surface
	// SurfaceNames runs parallel to Surfaces
	SurfaceNames []string
}

// New validates every triangle index and every surface
func New(vertices []pt.Vector, triangles []Triangle, surfaces []Surface) (*Data, error) {
	for i, t := range triangles {
		for _, v := range [3]int{t.V0, t.V1, t.V2} {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("triangle %d: vertex %d: %w", i, v, ErrBadIndex)
			}
		}
		if t.Surface < 0 || t.Surface >= len(surfaces) {
			return nil, fmt.Errorf("triangle %d: surface %d: %w", i, t.Surface, ErrBadIndex)
		}
	}
	for i, s := range surfaces {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
	}
	names := make([]string, len(surfaces))
	for i := range names {
		names[i] = fmt.Sprintf("surface_%d", i)
	}
	return &Data{
		Vertices:     vertices,
		Triangles:    triangles,
		Surfaces:     surfaces,
		SurfaceNames: names,
	}, nil
}

// SetSurfaces replaces every surface at once. The count must not change, since triangles
// reference surfaces by index.
func (d *Data) SetSurfaces(surfaces []Surface) error {
	if len(surfaces) != len(d.Surfaces) {
		return fmt.Errorf("expected %d surfaces, got %d: %w", len(d.Surfaces), len(surfaces), ErrBadIndex)
	}
	for i, s := range surfaces {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("surface %d: %w", i, err)
		}
	}
	copy(d.Surfaces, surfaces)
	return nil
}

func (d *Data) SetSurface(index int, s Surface) error {
	if index < 0 || index >= len(d.Surfaces) {
		return fmt.Errorf("surface %d: %w", index, ErrBadIndex)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	d.Surfaces[index] = s
	return nil
}

// SetSurfaceByName assigns s to every surface called name and reports whether one was found
func (d *Data) SetSurfaceByName(name string, s Surface) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	found := false
	for i, n := range d.SurfaceNames {
		if n == name {
			d.Surfaces[i] = s
			found = true
		}
	}
	return found, nil
}

func (d *Data) TriangleVerts(i int) geo.TriangleVerts {
	return d.Triangles[i].Verts(d.Vertices)
}

func (d *Data) Surface(triangle int) Surface {
	return d.Surfaces[d.Triangles[triangle].Surface]
}

func (d *Data) BoundingBox() pt.Box {
	if len(d.Vertices) == 0 {
		return pt.Box{}
	}
	box := pt.Box{Min: d.Vertices[0], Max: d.Vertices[0]}
	for _, v := range d.Vertices[1:] {
		box.Min = box.Min.Min(v)
		box.Max = box.Max.Max(v)
	}
	return box
}

// Area is the total area of every triangle
func (d *Data) Area() float64 {
	var total float64
	for i := range d.Triangles {
		total += d.TriangleVerts(i).Area()
	}
	return total
}

// SurfaceArea is the total area of the triangles using surface index
func (d *Data) SurfaceArea(index int) float64 {
	var total float64
	for i, t := range d.Triangles {
		if t.Surface == index {
			total += d.TriangleVerts(i).Area()
		}
	}
	return total
}

// Volume is the enclosed volume of a closed mesh, by summing signed tetrahedra against the
// origin. The sign of the sum depends on winding so the magnitude is returned.
func (d *Data) Volume() float64 {
	var sixTimes float64
	for i := range d.Triangles {
		v := d.TriangleVerts(i)
		sixTimes += v[0].Dot(v[1].Cross(v[2]))
	}
	return math.Abs(sixTimes) / 6
}

// MinAbsorption is the smallest absorption coefficient of any band of any surface in use
func (d *Data) MinAbsorption() float64 {
	ret := math.Inf(1)
	for _, s := range d.usedSurfaces() {
		ret = math.Min(ret, s.Absorption.Min())
	}
	return ret
}

// MaxReflectance is the largest energy reflectance of any band of any surface in use
func (d *Data) MaxReflectance() float64 {
	return 1 - d.MinAbsorption()
}

func (d *Data) usedSurfaces() []Surface {
	used := make([]bool, len(d.Surfaces))
	for _, t := range d.Triangles {
		used[t.Surface] = true
	}
	var ret []Surface
	for i, u := range used {
		if u {
			ret = append(ret, d.Surfaces[i])
		}
	}
	return ret
}
