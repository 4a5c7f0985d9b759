// Package voxel partitions a scene into a uniform grid of cells, each listing the triangles that
// overlap it, and answers ray queries by walking only the cells a ray passes through.
package voxel

import (
	"errors"
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

var (
	ErrZeroDivisions    = errors.New("voxel grid needs at least one division")
	ErrDegenerateBounds = errors.New("voxel grid bounds have no volume")
)

// overlapPad grows every cell slightly before testing triangles against it, so triangles lying
// on a cell boundary are listed in both neighbours.
const overlapPad = 0.001

// Collection is a side³ grid of cells spanning Bounds
type Collection struct {
	Bounds pt.Box
	Side   int
	// cells are indexed x*Side*Side + y*Side + z
	cells [][]int
}

var empty = []int{}

// New voxelises data into a divisions³ grid over its bounding box grown by padding
func New(data *scene.Data, divisions int, padding float64) (*Collection, error) {
	return NewWithBounds(data, divisions, geo.PadBox(data.BoundingBox(), padding))
}

func NewWithBounds(data *scene.Data, divisions int, bounds pt.Box) (*Collection, error) {
	if divisions <= 0 {
		return nil, ErrZeroDivisions
	}
	if err := checkBounds(bounds); err != nil {
		return nil, err
	}
	c := &Collection{
		Bounds: bounds,
		Side:   divisions,
		cells:  make([][]int, divisions*divisions*divisions),
	}
	dims := c.VoxelDimensions()
	toCell := func(v pt.Vector) [3]int {
		var ret [3]int
		for a := 0; a < 3; a++ {
			i := int(math.Floor((geo.Component(v, a) - geo.Component(bounds.Min, a)) / geo.Component(dims, a)))
			ret[a] = clampIndex(i, divisions)
		}
		return ret
	}
	for i := range data.Triangles {
		verts := data.TriangleVerts(i)
		tb := geo.PadBox(verts.BoundingBox(), overlapPad)
		lo, hi := toCell(tb.Min), toCell(tb.Max)
		for x := lo[0]; x <= hi[0]; x++ {
			for y := lo[1]; y <= hi[1]; y++ {
				for z := lo[2]; z <= hi[2]; z++ {
					cell := geo.PadBox(c.VoxelBounds(x, y, z), overlapPad)
					if geo.TriangleBoxOverlap(verts, cell) == geo.Inside {
						idx := c.index(x, y, z)
						c.cells[idx] = append(c.cells[idx], i)
					}
				}
			}
		}
	}
	return c, nil
}

func checkBounds(b pt.Box) error {
	s := b.Max.Sub(b.Min)
	if !(s.X > 0 && s.Y > 0 && s.Z > 0) {
		return fmt.Errorf("%w: %v-%v", ErrDegenerateBounds, b.Min, b.Max)
	}
	return nil
}

func clampIndex(i, side int) int {
	return max(0, min(side-1, i))
}

func (c *Collection) index(x, y, z int) int {
	return (x*c.Side+y)*c.Side + z
}

// Voxel returns the triangles listed in cell (x, y, z). Cells outside the grid are empty.
func (c *Collection) Voxel(x, y, z int) []int {
	if x < 0 || y < 0 || z < 0 || x >= c.Side || y >= c.Side || z >= c.Side {
		return empty
	}
	if tris := c.cells[c.index(x, y, z)]; tris != nil {
		return tris
	}
	return empty
}

// VoxelDimensions is the size of one cell
func (c *Collection) VoxelDimensions() pt.Vector {
	return c.Bounds.Max.Sub(c.Bounds.Min).DivScalar(float64(c.Side))
}

func (c *Collection) VoxelBounds(x, y, z int) pt.Box {
	return cellRangeBounds(c.Bounds, c.Side, x, y, z, 1)
}

// cellRangeBounds is the box covering n cells along each axis from cell (x, y, z)
func cellRangeBounds(bounds pt.Box, side, x, y, z, n int) pt.Box {
	dims := bounds.Max.Sub(bounds.Min).DivScalar(float64(side))
	at := func(x, y, z int) pt.Vector {
		return bounds.Min.Add(dims.Mul(geo.V(float64(x), float64(y), float64(z))))
	}
	return pt.Box{Min: at(x, y, z), Max: at(x+n, y+n, z+n)}
}

// Stats summarises how triangles are spread over the grid
type Stats struct {
	Cells         int
	Occupied      int
	MaxPerCell    int
	MeanPerCell   float64
	TriangleSlots int
}

func (c *Collection) Stats() Stats {
	s := Stats{Cells: len(c.cells)}
	for _, tris := range c.cells {
		if len(tris) == 0 {
			continue
		}
		s.Occupied++
		s.TriangleSlots += len(tris)
		s.MaxPerCell = max(s.MaxPerCell, len(tris))
	}
	if s.Occupied > 0 {
		s.MeanPerCell = float64(s.TriangleSlots) / float64(s.Occupied)
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("%d/%d cells occupied, %d triangle slots, max %d per cell, mean %.2f",
		s.Occupied, s.Cells, s.TriangleSlots, s.MaxPerCell, s.MeanPerCell)
}

// Flatten lays the grid out as a single table. The first Side³ entries are offsets, one per cell
// in x*Side*Side + y*Side + z order. Each offset points at a triangle count followed by that
// many triangle indices.
func (c *Collection) Flatten() []uint32 {
	n := len(c.cells)
	size := n
	for _, tris := range c.cells {
		size += 1 + len(tris)
	}
	ret := make([]uint32, n, size)
	for i, tris := range c.cells {
		ret[i] = uint32(len(ret))
		ret = append(ret, uint32(len(tris)))
		for _, t := range tris {
			ret = append(ret, uint32(t))
		}
	}
	return ret
}
