//go:build verify_reflections

package raytracer

import (
	"fmt"
	"math"

	"github.com/fogleman/pt/pt"
)

const (
	lengthEpsilon = 1e-7
	angleEpsilon  = 1e-7
)

func init() {
	fmt.Println("Reflection verification enabled.")
}

// verifyReflectionLaw panics when the specular direction breaks the law of reflection.
// normal has already been turned to face the reflected ray.
func verifyReflectionLaw(incident, normal, specular pt.Vector) {
	if math.Abs(specular.Length()-1) > lengthEpsilon {
		panic(fmt.Sprintf("reflected direction %v is not unit length", specular))
	}
	incidentAngle := math.Acos(math.Min(1, -incident.Dot(normal)))
	reflectedAngle := math.Acos(math.Min(1, specular.Dot(normal)))
	if math.Abs(incidentAngle-reflectedAngle) > angleEpsilon {
		panic(fmt.Sprintf("angle of incidence %v differs from angle of reflection %v", incidentAngle, reflectedAngle))
	}
	if math.Abs(incident.Cross(specular).Dot(normal)) > angleEpsilon {
		panic("incident, normal and reflected directions are not coplanar")
	}
}
