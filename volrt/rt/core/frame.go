package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SamplesPerShortestAxis sets the automatic sample distance.
const SamplesPerShortestAxis = 256

// Texture units the fragment stage samples from.
const (
	VolumeUnit   uint32 = 0
	TransferUnit uint32 = 1
)

// FrameUniforms are derived fresh for every draw.
type FrameUniforms struct {
	ModelView    mgl32.Mat4
	Projection   mgl32.Mat4
	WorldToModel mgl32.Mat4

	// CameraPos is in world space.
	CameraPos mgl32.Vec3
	// StepSize is the texture coordinate advance per unit ray direction
	// for one sample.
	StepSize       mgl32.Vec3
	SampleDistance float32

	BoundsMin mgl32.Vec3
	BoundsMax mgl32.Vec3

	VolumeUnit   uint32
	TransferUnit uint32
	Blend        BlendMode
	RGBA         bool
	Shift        float32
	Scale        float32
}

// AutoSampleDistance returns the shortest positive extent divided by
// SamplesPerShortestAxis.
func AutoSampleDistance(extent mgl32.Vec3) float32 {
	shortest := float32(0)
	for _, e := range extent {
		if e > 0 && (shortest == 0 || e < shortest) {
			shortest = e
		}
	}
	if shortest == 0 {
		return 1.0 / SamplesPerShortestAxis
	}
	return shortest / SamplesPerShortestAxis
}

// StepSize divides the sample distance by the physical extent of each axis,
// so the sampling rate does not depend on how many voxels an axis holds.
func StepSize(extent mgl32.Vec3, sampleDistance float32) mgl32.Vec3 {
	var step mgl32.Vec3
	for i, e := range extent {
		if e > 0 {
			step[i] = sampleDistance / e
		}
	}
	return step
}

// DeriveFrame computes the camera and box dependent uniforms. sampleDistance
// <= 0 selects AutoSampleDistance.
func DeriveFrame(cam CameraSource, width, height int, xf *Transform, geom *GeometryBuffers, sampleDistance float32) FrameUniforms {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}

	extent := geom.Extent()
	if sampleDistance <= 0 {
		sampleDistance = AutoSampleDistance(extent)
	}

	return FrameUniforms{
		ModelView:      cam.ViewMatrix().Mul4(xf.ModelToWorld()),
		Projection:     cam.ProjectionMatrix(aspect),
		WorldToModel:   xf.WorldToModel(),
		CameraPos:      cam.Eye(),
		StepSize:       StepSize(extent, sampleDistance),
		SampleDistance: sampleDistance,
		BoundsMin:      geom.Min,
		BoundsMax:      geom.Max,
		VolumeUnit:     VolumeUnit,
		TransferUnit:   TransferUnit,
		Scale:          1,
	}
}

// ViewProjection returns projection * view for culling, without the model part.
func ViewProjection(cam CameraSource, width, height int) mgl32.Mat4 {
	aspect := float32(1)
	if width > 0 && height > 0 {
		aspect = float32(width) / float32(height)
	}
	return cam.ProjectionMatrix(aspect).Mul4(cam.ViewMatrix())
}
