package imagesource

import (
	"sort"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// Scene is what path validation needs from a voxelised scene
type Scene interface {
	Intersects(ray geo.Ray, ignore int) (geo.Hit, bool)
	PointIntersection(begin, target pt.Vector, ignore int) bool
	TriangleVerts(i int) geo.TriangleVerts
	Surface(i int) scene.Surface
}

type image struct {
	index    int
	position pt.Vector
}

// ComputeImpulses turns every visible path in tree into an impulse, if the path really exists:
// a ray cast from the receiver toward each image in turn, last reflection first, must strike
// exactly the triangle the image was mirrored in. Volumes are the product of the specular
// reflectance of every surface along the path, before any distance attenuation. Impulses come
// back ordered by distance, each arrival once.
func ComputeImpulses(tree *Tree, source, receiver pt.Vector, s Scene) []acoustic.Impulse {
	var (
		ret    []acoustic.Impulse
		images = make([]image, 0, 16)
	)
	tree.Walk(func(path []PathElement) {
		images = images[:len(path)-1]
		prev := source
		if len(images) > 0 {
			prev = images[len(images)-1].position
		}
		e := path[len(path)-1]
		images = append(images, image{index: e.Index, position: s.TriangleVerts(e.Index).Mirror(prev)})
		if !e.Visible {
			return
		}
		if imp, ok := validate(images, receiver, s); ok {
			ret = append(ret, imp)
		}
	})
	return unique(ret)
}

func validate(images []image, receiver pt.Vector, s Scene) (acoustic.Impulse, bool) {
	final := images[len(images)-1].position
	if final == receiver {
		return acoustic.Impulse{}, false
	}
	from := receiver
	ignore := geo.NoTriangle
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].index == ignore {
			return acoustic.Impulse{}, false
		}
		ray, ok := geo.RayBetween(from, images[i].position)
		if !ok {
			return acoustic.Impulse{}, false
		}
		// a reflection on an edge leaves from a point already touching the next triangle
		want, ok := geo.TouchTriangle(s.TriangleVerts(images[i].index), ray)
		if !ok {
			return acoustic.Impulse{}, false
		}
		if hit, ok := s.Intersects(ray, ignore); ok && hit.Index != images[i].index && hit.T < want.T-geo.Epsilon {
			return acoustic.Impulse{}, false
		}
		from = ray.Position(want.T)
		ignore = images[i].index
	}

	volume := acoustic.Uniform(1)
	for _, img := range images {
		volume = volume.Mul(s.Surface(img.index).SpecularReflectance())
	}
	return acoustic.Impulse{
		Volume:   volume,
		Position: final,
		Distance: final.Sub(receiver).Length(),
		Order:    len(images),
	}, true
}

// unique keeps the first of any impulses arriving from the same image with the same order. A path
// through an edge or a face diagonal is valid for every triangle meeting there, and mirrors in
// perpendicular walls commute, but it is still one path.
func unique(impulses []acoustic.Impulse) []acoustic.Impulse {
	sort.SliceStable(impulses, func(i, j int) bool {
		return impulses[i].Distance < impulses[j].Distance
	})
	ret := impulses[:0]
	for _, imp := range impulses {
		dup := false
		for j := len(ret) - 1; j >= 0 && imp.Distance-ret[j].Distance <= geo.Epsilon; j-- {
			if ret[j].Order == imp.Order && geo.ApproxEqual(ret[j].Position, imp.Position, geo.Epsilon) {
				dup = true
				break
			}
		}
		if !dup {
			ret = append(ret, imp)
		}
	}
	return ret
}

// Direct is the unreflected path from source to receiver, when nothing blocks it
func Direct(source, receiver pt.Vector, s Scene) (acoustic.Impulse, bool) {
	if source == receiver || !s.PointIntersection(source, receiver, geo.NoTriangle) {
		return acoustic.Impulse{}, false
	}
	return acoustic.Impulse{
		Volume:   acoustic.Uniform(1),
		Position: source,
		Distance: source.Sub(receiver).Length(),
	}, true
}

// Paths collects per-ray reflection sequences and builds the tree once all rays are in
type Paths struct {
	paths [][]PathElement
}

func NewPaths(rays int) *Paths {
	return &Paths{paths: make([][]PathElement, rays)}
}

// Push appends one step of reflections, one per ray. Rays that are no longer alive are skipped;
// once a ray has stopped it never starts again, so its path simply ends.
func (p *Paths) Push(step []PathElement, alive []bool) {
	for i, e := range step {
		if alive[i] {
			p.paths[i] = append(p.paths[i], e)
		}
	}
}

// AddTo inserts every collected path into t
func (p *Paths) AddTo(t *Tree) {
	for _, path := range p.paths {
		t.AddPath(path)
	}
}
