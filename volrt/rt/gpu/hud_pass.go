package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/shaders"
)

// HUDPass draws screen-space text on top of the frame.
type HUDPass struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	text   *core.TextRenderer

	pipeline  *Owned[*wgpu.RenderPipeline]
	atlas     *Owned[*wgpu.Texture]
	atlasView *Owned[*wgpu.TextureView]
	sampler   *Owned[*wgpu.Sampler]
	bindGroup *Owned[*wgpu.BindGroup]

	vertices    *Owned[*wgpu.Buffer]
	vertexCount uint32
}

func NewHUDPass(device *wgpu.Device, format wgpu.TextureFormat, text *core.TextRenderer) (*HUDPass, error) {
	h := &HUDPass{device: device, queue: device.GetQueue(), text: text}
	if err := h.init(format); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

func (h *HUDPass) init(format wgpu.TextureFormat) error {
	w, ht := h.text.Atlas.Bounds().Dx(), h.text.Atlas.Bounds().Dy()
	size := wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1}
	tex, err := h.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Text Atlas",
		Size:          size,
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("create text atlas: %w", err)
	}
	h.atlas = Own(tex)
	err = h.queue.WriteTexture(tex.AsImageCopy(), h.text.Atlas.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(h.text.Atlas.Stride),
		RowsPerImage: uint32(ht),
	}, &size)
	if err != nil {
		return fmt.Errorf("write text atlas: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("create text atlas view: %w", err)
	}
	h.atlasView = Own(view)

	sampler, err := h.device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create text sampler: %w", err)
	}
	h.sampler = Own(sampler)

	module, err := h.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Text Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("create text shader: %w", err)
	}
	defer module.Release()

	pipeline, err := h.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Text Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: core.TextVertexSize,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create text pipeline: %w", err)
	}
	h.pipeline = Own(pipeline)

	group, err := h.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("create text bind group: %w", err)
	}
	h.bindGroup = Own(group)
	return nil
}

// Update lays out items and uploads them, growing the vertex buffer as needed.
func (h *HUDPass) Update(items []core.TextItem, width, height int) error {
	data := core.PackTextVertices(h.text.BuildVertices(items, width, height))
	h.vertexCount = uint32(len(data) / core.TextVertexSize)
	if len(data) == 0 {
		return nil
	}

	if h.vertices == nil || h.vertices.Get().GetSize() < uint64(len(data)) {
		h.vertices.Release()
		buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "Text Vertex Buffer",
			Size:  uint64(len(data)) * 2,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			h.vertices = nil
			h.vertexCount = 0
			return fmt.Errorf("create text vertex buffer: %w", err)
		}
		h.vertices = Own(buf)
	}
	return h.queue.WriteBuffer(h.vertices.Get(), 0, data)
}

// Draw renders the last Update into view without clearing it.
func (h *HUDPass) Draw(encoder *wgpu.CommandEncoder, view *wgpu.TextureView) error {
	if h.vertexCount == 0 {
		return nil
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "HUD Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	defer pass.Release()

	pass.SetPipeline(h.pipeline.Get())
	pass.SetBindGroup(0, h.bindGroup.Get(), nil)
	pass.SetVertexBuffer(0, h.vertices.Get(), 0, wgpu.WholeSize)
	pass.Draw(h.vertexCount, 1, 0, 0)
	return pass.End()
}

func (h *HUDPass) Release() {
	releaseAll(h.vertices, h.bindGroup, h.pipeline, h.sampler, h.atlasView, h.atlas)
}
