package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/volcast/volrt/rt/transfer"
	"github.com/gekko3d/volcast/volrt/rt/volume"
	"github.com/x448/float16"
)

// maxTransferTexels is the WebGPU default limit for 1D textures.
const maxTransferTexels = 8192

// transferTexelSize is one rgba16float texel.
const transferTexelSize = 8

func textureFormat(f volume.TexelFormat) (wgpu.TextureFormat, error) {
	switch f {
	case volume.TexelR8Unorm:
		return wgpu.TextureFormatR8Unorm, nil
	case volume.TexelR8Snorm:
		return wgpu.TextureFormatR8Snorm, nil
	case volume.TexelR16Float:
		return wgpu.TextureFormatR16Float, nil
	case volume.TexelRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm, nil
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("no texture format for %v", f)
}

// sampledTexture is a texture with its default view. It is a core.Resource.
type sampledTexture struct {
	label   string
	texture *Owned[*wgpu.Texture]
	view    *Owned[*wgpu.TextureView]
	onFree  func(*sampledTexture)
}

func (t *sampledTexture) Release() {
	if t.texture.Released() {
		return
	}
	if t.onFree != nil {
		t.onFree(t)
	}
	releaseAll(t.view, t.texture)
}

func (b *Backend) uploadTexture(label string, desc *wgpu.TextureDescriptor, data []byte, bytesPerRow uint32) (*sampledTexture, error) {
	tex, err := b.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	owned := Own(tex)

	err = b.queue.WriteTexture(tex.AsImageCopy(), data, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  bytesPerRow,
		RowsPerImage: desc.Size.Height,
	}, &desc.Size)
	if err != nil {
		owned.Release()
		return nil, fmt.Errorf("write %s texture: %w", label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		owned.Release()
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}

	return &sampledTexture{
		label:   label,
		texture: owned,
		view:    Own(view),
		onFree:  b.forgetTexture,
	}, nil
}

func (b *Backend) createVolumeTexture(plan *volume.TexturePlan) (*sampledTexture, error) {
	format, err := textureFormat(plan.Format)
	if err != nil {
		return nil, err
	}
	label := "Volume " + plan.GridID.String()
	return b.uploadTexture(label, &wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              plan.Size[0],
			Height:             plan.Size[1],
			DepthOrArrayLayers: plan.Size[2],
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension3D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}, plan.Texels, plan.BytesPerRow())
}

func (b *Backend) createTransferTexture(table *transfer.Table) (*sampledTexture, error) {
	n := table.Size()
	if n < 1 || n > maxTransferTexels {
		return nil, fmt.Errorf("transfer table size %d outside [1, %d]", n, maxTransferTexels)
	}
	return b.uploadTexture("Transfer Function", &wgpu.TextureDescriptor{
		Label:         "Transfer Function",
		Size:          wgpu.Extent3D{Width: uint32(n), Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension1D,
		Format:        wgpu.TextureFormatRGBA16Float,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	}, EncodeTransferTexels(table), uint32(n*transferTexelSize))
}

// EncodeTransferTexels converts the table to rgba16float with every channel
// clamped to [0,1].
func EncodeTransferTexels(table *transfer.Table) []byte {
	out := make([]byte, table.Size()*transferTexelSize)
	for i, texel := range table.Texels {
		for c := 0; c < 4; c++ {
			v := min(max(texel[c], 0), 1)
			binary.LittleEndian.PutUint16(out[i*transferTexelSize+c*2:], float16.Fromfloat32(v).Bits())
		}
	}
	return out
}
