package geo

import (
	"math"

	"github.com/fogleman/pt/pt"
)

// V is a shorthand constructor for pt.Vector
func V(X, Y, Z float64) pt.Vector {
	return pt.Vector{X: X, Y: Y, Z: Z}
}

// Reflect mirrors direction d about the plane with unit normal n
func Reflect(d, n pt.Vector) pt.Vector {
	return d.Sub(n.MulScalar(2 * n.Dot(d)))
}

// Component returns the axis'th component of v (0 = X, 1 = Y, 2 = Z)
func Component(v pt.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// WithComponent returns v with the axis'th component replaced by value
func WithComponent(v pt.Vector, axis int, value float64) pt.Vector {
	switch axis {
	case 0:
		v.X = value
	case 1:
		v.Y = value
	default:
		v.Z = value
	}
	return v
}

// ApproxEqual compares two vectors component-wise within eps
func ApproxEqual(a, b pt.Vector, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// SpherePoint maps z in [-1, 1] and theta in [-pi, pi] to a point on the unit sphere.
// Uniform z and theta give uniformly distributed points.
func SpherePoint(z, theta float64) pt.Vector {
	r := math.Sqrt(1 - z*z)
	return V(r*math.Cos(theta), z, r*math.Sin(theta))
}

// LineSegmentSphereIntersection reports whether the segment p1-p2 passes within radius of centre
func LineSegmentSphereIntersection(p1, p2, centre pt.Vector, radius float64) bool {
	diff := p2.Sub(p1)
	denom := diff.Dot(diff)
	if denom == 0 {
		return p1.Sub(centre).Length() < radius
	}
	r2 := radius * radius
	for _, p := range []pt.Vector{p1, p2} {
		if d := p.Sub(centre); d.Dot(d) < r2 {
			return true
		}
	}
	u := centre.Sub(p1).Dot(diff) / denom
	if u < 0 || 1 < u {
		return false
	}
	closest := p1.Add(diff.MulScalar(u)).Sub(centre)
	return closest.Dot(closest) < r2
}

func absVec(v pt.Vector) pt.Vector {
	return V(math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z))
}
