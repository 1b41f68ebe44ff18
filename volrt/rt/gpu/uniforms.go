package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameUniformSize is the size of the WGSL Frame struct.
const FrameUniformSize = 272

// PackFrameUniforms lays out u to match
//
//	struct Frame {
//	  model_view: mat4x4<f32>,      -- 0
//	  projection: mat4x4<f32>,      -- 64
//	  world_to_model: mat4x4<f32>,  -- 128
//	  cam_pos: vec3<f32>,           -- 192
//	  volume_unit: u32,             -- 204
//	  step_size: vec3<f32>,         -- 208
//	  transfer_unit: u32,           -- 220
//	  bounds_min: vec3<f32>,        -- 224
//	  blend_mode: u32,              -- 236
//	  bounds_max: vec3<f32>,        -- 240
//	  rgba: u32,                    -- 252
//	  shift, scale, sample_distance -- 256
//	}
func PackFrameUniforms(u *core.FrameUniforms) []byte {
	buf := make([]byte, FrameUniformSize)

	putF32 := func(offset int, v float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
	}
	putMat := func(offset int, m mgl32.Mat4) {
		for i, v := range m {
			putF32(offset+i*4, v)
		}
	}
	putVec3U32 := func(offset int, v mgl32.Vec3, tail uint32) {
		putF32(offset, v[0])
		putF32(offset+4, v[1])
		putF32(offset+8, v[2])
		binary.LittleEndian.PutUint32(buf[offset+12:], tail)
	}

	putMat(0, u.ModelView)
	putMat(64, u.Projection)
	putMat(128, u.WorldToModel)

	rgba := uint32(0)
	if u.RGBA {
		rgba = 1
	}
	putVec3U32(192, u.CameraPos, u.VolumeUnit)
	putVec3U32(208, u.StepSize, u.TransferUnit)
	putVec3U32(224, u.BoundsMin, uint32(u.Blend))
	putVec3U32(240, u.BoundsMax, rgba)

	putF32(256, u.Shift)
	putF32(260, u.Scale)
	putF32(264, u.SampleDistance)
	return buf
}
