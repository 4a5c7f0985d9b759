//go:build !verify_reflections

package raytracer

import "github.com/fogleman/pt/pt"

func verifyReflectionLaw(incident, normal, specular pt.Vector) {}
