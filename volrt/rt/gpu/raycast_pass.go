package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/shaders"
)

func compileRaycastShader(device *wgpu.Device) (*wgpu.ShaderModule, error) {
	return device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "RaycastShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RaycastWGSL},
	})
}

// blendState maps the mapper's blend mode onto the color target.
func blendState(mode core.BlendMode) *wgpu.BlendState {
	if mode == core.BlendAdditive {
		return &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOne,
			},
		}
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		},
	}
}

// raycastProgram is the pipeline of one blend mode plus the uniform buffer of
// the mapper that owns it.
type raycastProgram struct {
	mode       core.BlendMode
	pipeline   *Owned[*wgpu.RenderPipeline]
	uniforms   *Owned[*wgpu.Buffer]
	frameGroup *Owned[*wgpu.BindGroup]
}

func newRaycastProgram(b *Backend, mode core.BlendMode) (*raycastProgram, error) {
	p := &raycastProgram{mode: mode}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "RaycastPipeline " + mode.String(),
		Layout: b.pipelineLayout.Get(),
		Vertex: wgpu.VertexState{
			Module:     b.shader.Get(),
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 12,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     b.shader.Get(),
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    b.colorFormat,
				Blend:     blendState(mode),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			// Rasterize back faces; the camera may sit inside the box.
			CullMode: wgpu.CullModeFront,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionLessEqual,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilReadMask:   0xFFFFFFFF,
			StencilWriteMask:  0xFFFFFFFF,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}
	p.pipeline = Own(pipeline)

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "RaycastFrameUniforms",
		Size:  FrameUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}
	p.uniforms = Own(buf)

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "RaycastFrameBG",
		Layout: b.frameLayout.Get(),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: FrameUniformSize},
		},
	})
	if err != nil {
		p.Release()
		return nil, fmt.Errorf("create frame bind group: %w", err)
	}
	p.frameGroup = Own(group)
	return p, nil
}

func (p *raycastProgram) Release() {
	releaseAll(p.frameGroup, p.uniforms, p.pipeline)
}

// boxBuffers holds the bounding box vertex and index buffers.
type boxBuffers struct {
	vertices *Owned[*wgpu.Buffer]
	indices  *Owned[*wgpu.Buffer]
}

func createBoxBuffers(device *wgpu.Device, geom *core.GeometryBuffers) (*boxBuffers, error) {
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Box Vertex Buffer",
		Contents: geom.VertexBytes(),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, err
	}
	indexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Box Index Buffer",
		Contents: geom.IndexBytes(),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vertexBuf.Release()
		return nil, err
	}
	return &boxBuffers{vertices: Own(vertexBuf), indices: Own(indexBuf)}, nil
}

func (g *boxBuffers) Release() {
	releaseAll(g.indices, g.vertices)
}
