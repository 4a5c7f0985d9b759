package raytracer

import (
	"context"
	"math"
	"math/rand"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

// Reflection is where a ray struck a surface on one step
type Reflection struct {
	Position pt.Vector
	// Outgoing direction after scattering
	Direction pt.Vector
	Triangle  int
	// False once the ray has escaped the scene; every later record for the ray is the same
	KeepGoing       bool
	ReceiverVisible bool
}

type sphereDraw struct {
	z, theta float64
}

// Reflector advances a batch of rays one reflection at a time
type Reflector struct {
	receiver    pt.Vector
	rays        []geo.Ray
	reflections []Reflection
	draws       []sphereDraw
	substrate   Substrate
	rng         *rand.Rand
}

// NewReflector takes ownership of rays
func NewReflector(receiver pt.Vector, rays []geo.Ray, substrate Substrate, rng *rand.Rand) *Reflector {
	reflections := make([]Reflection, len(rays))
	for i := range reflections {
		reflections[i] = Reflection{Triangle: geo.NoTriangle, KeepGoing: true}
	}
	return &Reflector{
		receiver:    receiver,
		rays:        rays,
		reflections: reflections,
		draws:       make([]sphereDraw, len(rays)),
		substrate:   substrate,
		rng:         rng,
	}
}

func (r *Reflector) Len() int {
	return len(r.rays)
}

// RunStep finds the next reflection of every live ray. The returned slice is in ray order and
// belongs to the caller.
func (r *Reflector) RunStep(ctx context.Context, b *voxel.Buffers) ([]Reflection, error) {
	// Draws happen here, in ray order, so the result does not depend on how the substrate
	// schedules rays.
	for i := range r.draws {
		r.draws[i] = sphereDraw{
			z:     r.rng.Float64()*2 - 1,
			theta: r.rng.Float64()*2*math.Pi - math.Pi,
		}
	}
	if err := r.substrate.Run(ctx, len(r.rays), func(i int) {
		r.step(i, b)
	}); err != nil {
		return nil, err
	}
	out := make([]Reflection, len(r.reflections))
	copy(out, r.reflections)
	return out, nil
}

func (r *Reflector) step(i int, b *voxel.Buffers) {
	if !r.reflections[i].KeepGoing {
		return
	}
	ray := r.rays[i]
	hit, ok := b.Intersects(ray, r.reflections[i].Triangle)
	if !ok {
		r.reflections[i] = Reflection{Triangle: geo.NoTriangle}
		return
	}

	position := ray.Position(hit.T)
	normal := b.TriangleVerts(hit.Index).Normal()
	specular := geo.Reflect(ray.Direction, normal)
	if normal.Dot(specular) < 0 {
		normal = normal.Negate()
	}
	verifyReflectionLaw(ray.Direction, normal, specular)

	d := r.draws[i]
	scattering := b.Surface(hit.Index).Scattering.Mean()
	next, ok := geo.NewRay(position, lambert(specular, normal, geo.SpherePoint(d.z, d.theta), scattering))
	if !ok {
		r.reflections[i] = Reflection{Triangle: geo.NoTriangle}
		return
	}
	r.rays[i] = next
	r.reflections[i] = Reflection{
		Position:        position,
		Direction:       next.Direction,
		Triangle:        hit.Index,
		KeepGoing:       true,
		ReceiverVisible: b.PointIntersection(position, r.receiver, hit.Index),
	}
}

// lambert blends the specular direction with a random direction in the normal's hemisphere
func lambert(specular, normal, random pt.Vector, scattering float64) pt.Vector {
	if random.Dot(normal) < 0 {
		random = random.Negate()
	}
	return random.MulScalar(scattering).Add(specular.MulScalar(1 - scattering))
}
