package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volcast/volrt/rt/core"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

var errNoFrame = errors.New("draw outside of a frame")

// Backend implements core.Backend on a wgpu device. The surface owner calls
// BeginFrame with its command encoder before mappers render and submits the
// encoder afterwards.
type Backend struct {
	device      *wgpu.Device
	queue       *wgpu.Queue
	colorFormat wgpu.TextureFormat

	sampler *Owned[*wgpu.Sampler]

	frameLayout    *Owned[*wgpu.BindGroupLayout]
	textureLayout  *Owned[*wgpu.BindGroupLayout]
	pipelineLayout *Owned[*wgpu.PipelineLayout]
	shader         *Owned[*wgpu.ShaderModule]

	depth       *Owned[*wgpu.Texture]
	depthView   *Owned[*wgpu.TextureView]
	depthWidth  int
	depthHeight int

	// Bind group of the last volume/transfer pair drawn.
	textureGroup    *Owned[*wgpu.BindGroup]
	textureGroupKey [2]*sampledTexture

	encoder   *wgpu.CommandEncoder
	colorView *wgpu.TextureView
	width     int
	height    int
}

var _ core.Backend = (*Backend)(nil)

func NewBackend(device *wgpu.Device, colorFormat wgpu.TextureFormat) (*Backend, error) {
	b := &Backend{
		device:      device,
		queue:       device.GetQueue(),
		colorFormat: colorFormat,
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Volume Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   1,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	b.sampler = Own(sampler)

	if err := b.createLayouts(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *Backend) createLayouts() error {
	frameLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "RaycastFrameBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: FrameUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create frame layout: %w", err)
	}
	b.frameLayout = Own(frameLayout)

	textureLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "RaycastTextureBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension3D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension1D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}
	b.textureLayout = Own(textureLayout)

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "RaycastPipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{frameLayout, textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	b.pipelineLayout = Own(pipelineLayout)
	return nil
}

// BeginFrame points subsequent draws at colorView through encoder.
func (b *Backend) BeginFrame(encoder *wgpu.CommandEncoder, colorView *wgpu.TextureView, width, height int) error {
	if err := b.ensureDepth(width, height); err != nil {
		return err
	}
	b.encoder = encoder
	b.colorView = colorView
	b.width, b.height = width, height
	return nil
}

// EndFrame forgets the frame targets. The caller still owns and submits the encoder.
func (b *Backend) EndFrame() {
	b.encoder = nil
	b.colorView = nil
}

func (b *Backend) ensureDepth(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if b.depth != nil && b.depthWidth == width && b.depthHeight == height {
		return nil
	}
	releaseAll(b.depthView, b.depth)

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Raycast Depth",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		b.depth, b.depthView = nil, nil
		return &core.GraphicsResourceError{Op: "depth texture", Err: err}
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		b.depth, b.depthView = nil, nil
		return &core.GraphicsResourceError{Op: "depth view", Err: err}
	}
	b.depth, b.depthView = Own(tex), Own(view)
	b.depthWidth, b.depthHeight = width, height
	return nil
}

func (b *Backend) Viewport() (int, int) {
	return b.width, b.height
}

func (b *Backend) CreateVolumeTexture(plan *volume.TexturePlan) (core.Resource, error) {
	tex, err := b.createVolumeTexture(plan)
	if err != nil {
		return nil, &core.GraphicsResourceError{Op: "volume texture", Err: err}
	}
	return tex, nil
}

func (b *Backend) CreateTransferTexture(table *transfer.Table) (core.Resource, error) {
	tex, err := b.createTransferTexture(table)
	if err != nil {
		return nil, &core.GraphicsResourceError{Op: "transfer texture", Err: err}
	}
	return tex, nil
}

func (b *Backend) CreateGeometry(geom *core.GeometryBuffers) (core.Resource, error) {
	g, err := createBoxBuffers(b.device, geom)
	if err != nil {
		return nil, &core.GraphicsResourceError{Op: "geometry buffers", Err: err}
	}
	return g, nil
}

func (b *Backend) CreateProgram(mode core.BlendMode) (core.Resource, error) {
	if b.shader == nil {
		module, err := compileRaycastShader(b.device)
		if err != nil {
			return nil, &core.GraphicsResourceError{Op: "raycast shader", Err: err}
		}
		b.shader = Own(module)
	}
	p, err := newRaycastProgram(b, mode)
	if err != nil {
		return nil, &core.GraphicsResourceError{Op: "raycast pipeline " + mode.String(), Err: err}
	}
	return p, nil
}

func (b *Backend) Draw(call *core.DrawCall) error {
	if b.encoder == nil || b.colorView == nil {
		return errNoFrame
	}
	program, ok := call.Program.(*raycastProgram)
	geom, ok2 := call.Geometry.(*boxBuffers)
	vol, ok3 := call.Volume.(*sampledTexture)
	tf, ok4 := call.Transfer.(*sampledTexture)
	if !ok || !ok2 || !ok3 || !ok4 {
		return fmt.Errorf("draw call holds resources from another backend")
	}

	group, err := b.textureBindGroup(vol, tf)
	if err != nil {
		return &core.GraphicsResourceError{Op: "texture bind group", Err: err}
	}
	if err := b.queue.WriteBuffer(program.uniforms.Get(), 0, PackFrameUniforms(&call.Uniforms)); err != nil {
		return &core.GraphicsResourceError{Op: "frame uniforms", Err: err}
	}

	pass := b.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Raycast Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    b.colorView,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:              b.depthView.Get(),
			DepthLoadOp:       wgpu.LoadOpClear,
			DepthStoreOp:      wgpu.StoreOpStore,
			DepthClearValue:   1,
			StencilLoadOp:     wgpu.LoadOpUndefined,
			StencilStoreOp:    wgpu.StoreOpUndefined,
			StencilReadOnly:   true,
			StencilClearValue: 0,
		},
	})
	defer pass.Release()

	pass.SetPipeline(program.pipeline.Get())
	pass.SetBindGroup(0, program.frameGroup.Get(), nil)
	pass.SetBindGroup(1, group, nil)
	pass.SetVertexBuffer(0, geom.vertices.Get(), 0, wgpu.WholeSize)
	pass.SetIndexBuffer(geom.indices.Get(), wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	pass.DrawIndexed(call.IndexCount, 1, 0, 0, 0)
	return pass.End()
}

func (b *Backend) textureBindGroup(vol, tf *sampledTexture) (*wgpu.BindGroup, error) {
	key := [2]*sampledTexture{vol, tf}
	if b.textureGroup != nil && b.textureGroupKey == key {
		return b.textureGroup.Get(), nil
	}
	b.textureGroup.Release()
	b.textureGroup = nil

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "RaycastTextureBG",
		Layout: b.textureLayout.Get(),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: vol.view.Get()},
			{Binding: 1, TextureView: tf.view.Get()},
			{Binding: 2, Sampler: b.sampler.Get()},
		},
	})
	if err != nil {
		return nil, err
	}
	b.textureGroup = Own(group)
	b.textureGroupKey = key
	return group, nil
}

// forgetTexture drops the cached bind group before one of its textures goes away.
func (b *Backend) forgetTexture(t *sampledTexture) {
	if b.textureGroupKey[0] == t || b.textureGroupKey[1] == t {
		b.textureGroup.Release()
		b.textureGroup = nil
		b.textureGroupKey = [2]*sampledTexture{}
	}
}

// Release frees the shared objects. Resources handed out earlier stay owned
// by their holders.
func (b *Backend) Release() {
	releaseAll(b.textureGroup, b.depthView, b.depth, b.shader, b.pipelineLayout, b.textureLayout, b.frameLayout, b.sampler)
	b.textureGroup = nil
	b.textureGroupKey = [2]*sampledTexture{}
}
