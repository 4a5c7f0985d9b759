package scene

import (
	"fmt"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/geo"
)

// Faces of a box, in the order BoxWithSurfaces expects
const (
	FaceMinX = iota
	FaceMaxX
	FaceMinY
	FaceMaxY
	FaceMinZ
	FaceMaxZ
)

var faceNames = [6]string{"min_x", "max_x", "min_y", "max_y", "min_z", "max_z"}

// Corner i of the box has x from bit 0, y from bit 1 and z from bit 2. Every face is wound so
// its normal points into the box.
var boxTriangles = [12][4]int{
	{0, 2, 4, FaceMinX}, {2, 6, 4, FaceMinX},
	{1, 5, 3, FaceMaxX}, {3, 5, 7, FaceMaxX},
	{0, 4, 1, FaceMinY}, {1, 4, 5, FaceMinY},
	{2, 3, 6, FaceMaxY}, {3, 7, 6, FaceMaxY},
	{0, 1, 2, FaceMinZ}, {1, 3, 2, FaceMinZ},
	{4, 6, 5, FaceMaxZ}, {5, 6, 7, FaceMaxZ},
}

// Box builds a closed axis-aligned box with one surface on every face
func Box(min, max pt.Vector, surface Surface) (*Data, error) {
	var surfaces [6]Surface
	for i := range surfaces {
		surfaces[i] = surface
	}
	return BoxWithSurfaces(min, max, surfaces)
}

// BoxWithSurfaces builds a closed axis-aligned box with a surface per face, ordered -x +x -y +y
// -z +z.
func BoxWithSurfaces(min, max pt.Vector, surfaces [6]Surface) (*Data, error) {
	box := geo.NewBox(min, max)
	if geo.BoxVolume(box) <= 0 {
		return nil, fmt.Errorf("box %v-%v has no volume", box.Min, box.Max)
	}
	vertices := make([]pt.Vector, 8)
	for i := range vertices {
		c := box.Min
		if i&1 != 0 {
			c.X = box.Max.X
		}
		if i&2 != 0 {
			c.Y = box.Max.Y
		}
		if i&4 != 0 {
			c.Z = box.Max.Z
		}
		vertices[i] = c
	}
	triangles := make([]Triangle, len(boxTriangles))
	for i, t := range boxTriangles {
		triangles[i] = Triangle{V0: t[0], V1: t[1], V2: t[2], Surface: t[3]}
	}
	data, err := New(vertices, triangles, surfaces[:])
	if err != nil {
		return nil, err
	}
	copy(data.SurfaceNames, faceNames[:])
	return data, nil
}
