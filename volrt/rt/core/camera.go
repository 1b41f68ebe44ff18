package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraSource is queried once per frame by the renderer.
type CameraSource interface {
	Eye() mgl32.Vec3
	ViewMatrix() mgl32.Mat4
	// ProjectionMatrix returns a projection with WebGPU clip depth [0,1].
	ProjectionMatrix(aspect float32) mgl32.Mat4
}

// glToClipDepth remaps OpenGL style z in [-1,1] to [0,1].
var glToClipDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// Camera is an orbiting look-at camera.
type Camera struct {
	Position   mgl32.Vec3
	FocalPoint mgl32.Vec3
	ViewUp     mgl32.Vec3
	// ViewAngle is the vertical field of view in degrees.
	ViewAngle float32
	ClipRange [2]float32
}

func NewCamera() *Camera {
	return &Camera{
		Position:   mgl32.Vec3{0, 0, 1},
		FocalPoint: mgl32.Vec3{0, 0, 0},
		ViewUp:     mgl32.Vec3{0, 1, 0},
		ViewAngle:  30,
		ClipRange:  [2]float32{0.01, 1000.01},
	}
}

func (c *Camera) Eye() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.FocalPoint, c.ViewUp)
}

func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1.0
	}
	proj := mgl32.Perspective(mgl32.DegToRad(c.ViewAngle), aspect, c.ClipRange[0], c.ClipRange[1])
	return glToClipDepth.Mul4(proj)
}

// Azimuth rotates the camera position about the view up vector centered at
// the focal point.
func (c *Camera) Azimuth(degrees float32) {
	up := c.ViewUp
	if up.Len() == 0 {
		return
	}
	rot := mgl32.HomogRotate3D(mgl32.DegToRad(degrees), up.Normalize())
	offset := c.Position.Sub(c.FocalPoint)
	c.Position = c.FocalPoint.Add(rot.Mul4x1(offset.Vec4(0)).Vec3())
}

// ResetCamera keeps the view direction and moves the camera so that the
// sphere around the box [lo,hi] fills the view, then fits the clip range.
func (c *Camera) ResetCamera(lo, hi mgl32.Vec3) {
	center := lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() * 0.5
	if radius == 0 {
		radius = 0.5
	}

	dir := c.Position.Sub(c.FocalPoint)
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, 0, 1}
	}
	dir = dir.Normalize()

	half := float64(mgl32.DegToRad(c.ViewAngle)) * 0.5
	distance := radius / float32(math.Sin(half))

	c.FocalPoint = center
	c.Position = center.Add(dir.Mul(distance))

	far := distance + radius*1.01
	near := distance - radius*1.01
	if minNear := far * 0.001; near < minNear {
		near = minNear
	}
	c.ClipRange = [2]float32{near, far}
}

// ExtractFrustum returns the Left, Right, Bottom, Top, Near, Far planes of
// a view-projection matrix with [0,1] clip depth. Normals point inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r2,
		r3.Sub(r2),
	}
	for i := range planes {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// AABBInFrustum reports whether any part of the box may be visible.
func AABBInFrustum(aabb [2]mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		// Corner furthest along the inward normal.
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = aabb[1][axis]
			} else {
				p[axis] = aabb[0][axis]
			}
		}
		if plane.Vec3().Dot(p)+plane[3] < 0 {
			return false
		}
	}
	return true
}
