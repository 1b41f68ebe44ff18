package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform places a volume in the world. Bounds and geometry stay in model
// space; the renderer passes ModelToWorld as the model part of model-view.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// ModelToWorld returns T * R * S.
func (t *Transform) ModelToWorld() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(t.Rotation.Normalize().Mat4()).Mul4(scale)
}

// WorldToModel inverts the components individually: inv(S) * inv(R) * inv(T).
func (t *Transform) WorldToModel() mgl32.Mat4 {
	if t == nil {
		return mgl32.Ident4()
	}
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Normalize().Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())
	return invScale.Mul4(invRotate).Mul4(invTranslate)
}

// WorldAABB returns the axis-aligned world box enclosing the transformed
// model box [lo,hi].
func (t *Transform) WorldAABB(lo, hi mgl32.Vec3) [2]mgl32.Vec3 {
	m := t.ModelToWorld()
	var out [2]mgl32.Vec3
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec3{lo.X(), lo.Y(), lo.Z()}
		if i&1 != 0 {
			corner[0] = hi.X()
		}
		if i&2 != 0 {
			corner[1] = hi.Y()
		}
		if i&4 != 0 {
			corner[2] = hi.Z()
		}
		w := mgl32.TransformCoordinate(corner, m)
		if i == 0 {
			out = [2]mgl32.Vec3{w, w}
			continue
		}
		for axis := 0; axis < 3; axis++ {
			out[0][axis] = min(out[0][axis], w[axis])
			out[1][axis] = max(out[1][axis], w[axis])
		}
	}
	return out
}

// Valid reports whether the transform can be inverted.
func (t *Transform) Valid() bool {
	if t == nil {
		return true
	}
	return t.Scale.X() != 0 && t.Scale.Y() != 0 && t.Scale.Z() != 0 && t.Rotation.Len() != 0
}
