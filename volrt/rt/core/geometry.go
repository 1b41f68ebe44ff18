package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// cubeIndices lists the 12 triangles of a box, counter-clockwise seen from
// outside, over corners numbered x fastest.
var cubeIndices = [36]uint16{
	0, 5, 4,
	5, 0, 1,
	3, 7, 6,
	3, 6, 2,
	7, 4, 6,
	6, 4, 5,
	2, 1, 3,
	3, 1, 0,
	3, 0, 7,
	7, 0, 4,
	6, 5, 2,
	2, 5, 1,
}

// cubeCorners is the corner order cubeIndices refers to, as lo(0)/hi(1) per axis.
var cubeCorners = [8][3]int{
	{0, 0, 0},
	{1, 0, 0},
	{1, 1, 0},
	{0, 1, 0},
	{0, 0, 1},
	{1, 0, 1},
	{1, 1, 1},
	{0, 1, 1},
}

// GeometryBuffers is the bounding box of a volume in model space.
type GeometryBuffers struct {
	Min      mgl32.Vec3
	Max      mgl32.Vec3
	Vertices [8][3]float32
	Indices  [36]uint16
}

// NewBoxGeometry builds the 8 corners and 36 indices of the box [lo,hi].
func NewBoxGeometry(lo, hi [3]float64) *GeometryBuffers {
	g := &GeometryBuffers{Indices: cubeIndices}
	for axis := 0; axis < 3; axis++ {
		g.Min[axis] = float32(lo[axis])
		g.Max[axis] = float32(hi[axis])
	}
	for i, c := range cubeCorners {
		for axis := 0; axis < 3; axis++ {
			if c[axis] == 0 {
				g.Vertices[i][axis] = g.Min[axis]
			} else {
				g.Vertices[i][axis] = g.Max[axis]
			}
		}
	}
	return g
}

// Extent returns the box size along each axis.
func (g *GeometryBuffers) Extent() mgl32.Vec3 {
	return g.Max.Sub(g.Min)
}

// SameBounds reports whether g already describes the box [lo,hi].
func (g *GeometryBuffers) SameBounds(lo, hi [3]float64) bool {
	if g == nil {
		return false
	}
	for axis := 0; axis < 3; axis++ {
		if g.Min[axis] != float32(lo[axis]) || g.Max[axis] != float32(hi[axis]) {
			return false
		}
	}
	return true
}

// VertexBytes packs the vertices as tightly packed little endian vec3<f32>.
func (g *GeometryBuffers) VertexBytes() []byte {
	out := make([]byte, len(g.Vertices)*12)
	for i, v := range g.Vertices {
		for axis := 0; axis < 3; axis++ {
			binary.LittleEndian.PutUint32(out[i*12+axis*4:], math.Float32bits(v[axis]))
		}
	}
	return out
}

// IndexBytes packs the indices as little endian uint16.
func (g *GeometryBuffers) IndexBytes() []byte {
	out := make([]byte, len(g.Indices)*2)
	for i, idx := range g.Indices {
		binary.LittleEndian.PutUint16(out[i*2:], idx)
	}
	return out
}
