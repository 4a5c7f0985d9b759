package scene

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fogleman/pt/pt"
	"github.com/hpinc/go3mf"
)

// DefaultSurfaceName is the assignment used by objects that have no assignment of their own
const DefaultSurfaceName = "default"

var (
	ErrNoSurface       = errors.New("no surface assigned")
	ErrUnsupportedMesh = errors.New("unsupported mesh format")
)

// Assignment maps object names to surfaces
type Assignment map[string]Surface

func (a Assignment) lookup(name string) (Surface, error) {
	if s, ok := a[name]; ok {
		return s, nil
	}
	if s, ok := a[DefaultSurfaceName]; ok {
		return s, nil
	}
	return Surface{}, fmt.Errorf("%w: %q and no %q", ErrNoSurface, name, DefaultSurfaceName)
}

// builder collects triangles from a loader, sharing vertices with identical positions and
// giving every distinct object name its own surface slot.
type builder struct {
	vertices  []pt.Vector
	index     map[pt.Vector]int
	triangles []Triangle
	names     []string
	surfaces  map[string]int
}

func newBuilder() *builder {
	return &builder{
		index:    map[pt.Vector]int{},
		surfaces: map[string]int{},
	}
}

func (b *builder) vertex(v pt.Vector) int {
	if i, ok := b.index[v]; ok {
		return i
	}
	b.vertices = append(b.vertices, v)
	b.index[v] = len(b.vertices) - 1
	return len(b.vertices) - 1
}

func (b *builder) add(name string, v1, v2, v3 pt.Vector) {
	s, ok := b.surfaces[name]
	if !ok {
		s = len(b.names)
		b.names = append(b.names, name)
		b.surfaces[name] = s
	}
	b.triangles = append(b.triangles, Triangle{
		V0:      b.vertex(v1),
		V1:      b.vertex(v2),
		V2:      b.vertex(v3),
		Surface: s,
	})
}

func (b *builder) build(assign Assignment) (*Data, error) {
	surfaces := make([]Surface, len(b.names))
	for i, name := range b.names {
		s, err := assign.lookup(name)
		if err != nil {
			return nil, err
		}
		surfaces[i] = s
	}
	data, err := New(b.vertices, b.triangles, surfaces)
	if err != nil {
		return nil, err
	}
	copy(data.SurfaceNames, b.names)
	return data, nil
}

// Load3MF reads every build item of a 3MF file. Coordinates are divided by scale (1000 turns
// millimetres into metres). Each object's name selects its surface from assign.
func Load3MF(path string, scale float64, assign Assignment) (*Data, error) {
	if scale == 0 {
		scale = 1
	}
	var model go3mf.Model
	r, err := go3mf.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()
	if err := r.Decode(&model); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	b := newBuilder()
	for _, item := range model.Build.Items {
		obj, ok := model.FindObject(item.ObjectPath(), item.ObjectID)
		if !ok || obj.Mesh == nil {
			continue
		}
		verts := obj.Mesh.Vertices.Vertex
		point := func(i uint32) pt.Vector {
			v := verts[i]
			return pt.Vector{
				X: float64(v.X()) / scale,
				Y: float64(v.Y()) / scale,
				Z: float64(v.Z()) / scale,
			}
		}
		name := obj.Name
		if name == "" {
			name = DefaultSurfaceName
		}
		for _, t := range obj.Mesh.Triangles.Triangle {
			if int(t.V1) >= len(verts) || int(t.V2) >= len(verts) || int(t.V3) >= len(verts) {
				return nil, fmt.Errorf("object %q: %w", obj.Name, ErrBadIndex)
			}
			b.add(name, point(t.V1), point(t.V2), point(t.V3))
		}
	}
	return b.build(assign)
}

// LoadMesh reads an OBJ or STL file, chosen by extension. The whole mesh uses the default
// surface.
func LoadMesh(path string, assign Assignment) (*Data, error) {
	var (
		mesh *pt.Mesh
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		mesh, err = pt.LoadOBJ(path, pt.Material{})
	case ".stl":
		mesh, err = pt.LoadSTL(path, pt.Material{})
	case ".3mf":
		return Load3MF(path, 1, assign)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMesh, path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	b := newBuilder()
	for _, t := range mesh.Triangles {
		b.add(DefaultSurfaceName, t.V1, t.V2, t.V3)
	}
	return b.build(assign)
}

// Mesh converts the scene into a pt mesh, with every triangle keeping the scene's winding
func (d *Data) Mesh() *pt.Mesh {
	tris := make([]*pt.Triangle, len(d.Triangles))
	var none pt.Vector
	for i := range d.Triangles {
		v := d.TriangleVerts(i)
		tris[i] = pt.NewTriangle(v[0], v[1], v[2], none, none, none, pt.Material{})
	}
	return pt.NewMesh(tris)
}

// SaveSTL writes the scene geometry as STL
func (d *Data) SaveSTL(path string) error {
	if err := d.Mesh().SaveSTL(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Names returns the distinct surface names, sorted
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a))
	for n := range a {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply gives every surface of d the assignment for its name, falling back to the default
func (a Assignment) Apply(d *Data) error {
	surfaces := make([]Surface, len(d.Surfaces))
	for i, name := range d.SurfaceNames {
		s, err := a.lookup(name)
		if err != nil {
			return err
		}
		surfaces[i] = s
	}
	return d.SetSurfaces(surfaces)
}
