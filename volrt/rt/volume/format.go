package volume

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/x448/float16"
)

// TexelFormat is the normalized storage format a volume is uploaded with.
type TexelFormat uint8

const (
	TexelR8Unorm TexelFormat = iota
	TexelR8Snorm
	TexelR16Float
	TexelRGBA8Unorm
)

func (f TexelFormat) String() string {
	switch f {
	case TexelR8Unorm:
		return "r8unorm"
	case TexelR8Snorm:
		return "r8snorm"
	case TexelR16Float:
		return "r16float"
	case TexelRGBA8Unorm:
		return "rgba8unorm"
	}
	return fmt.Sprintf("TexelFormat(%d)", uint8(f))
}

// BytesPerTexel returns the host-side size of one texel.
func (f TexelFormat) BytesPerTexel() int {
	switch f {
	case TexelR8Unorm, TexelR8Snorm:
		return 1
	case TexelR16Float:
		return 2
	case TexelRGBA8Unorm:
		return 4
	}
	return 0
}

// UnsupportedScalarTypeError reports a grid that has no texture mapping.
type UnsupportedScalarTypeError struct {
	Kind       ScalarKind
	Components int
}

func (e *UnsupportedScalarTypeError) Error() string {
	return fmt.Sprintf("unsupported scalar type %s with %d component(s)", e.Kind, e.Components)
}

// kindFormat describes how one scalar kind reaches the shader.
//
// Byte kinds are uploaded verbatim and normalize is the unorm/snorm
// conversion the sampler performs; shift and scale are derived from it so
// that (normalize(v) + shift) * scale maps the display range onto [0,1].
// Every other kind is folded through the display range on the host into
// r16float, where the shader sees shift 0, scale 1.
type kindFormat struct {
	format    TexelFormat
	verbatim  bool
	typeRange [2]float64
	normalize func(v float64) float64
}

var kindTable = map[ScalarKind]kindFormat{
	KindUint8: {
		format:    TexelR8Unorm,
		verbatim:  true,
		typeRange: [2]float64{0, math.MaxUint8},
		normalize: func(v float64) float64 { return v / math.MaxUint8 },
	},
	KindInt8: {
		format:    TexelR8Snorm,
		verbatim:  true,
		typeRange: [2]float64{math.MinInt8, math.MaxInt8},
		normalize: func(v float64) float64 { return math.Max(v/math.MaxInt8, -1) },
	},
	// A half float cannot hold a 16 or 32 bit sample relative to its type
	// range, so wide integers are folded like floats.
	KindUint16:  {format: TexelR16Float},
	KindInt16:   {format: TexelR16Float},
	KindUint32:  {format: TexelR16Float},
	KindInt32:   {format: TexelR16Float},
	KindFloat32: {format: TexelR16Float},
	KindFloat64: {format: TexelR16Float},
}

// TexturePlan is everything needed to allocate and fill a volume texture.
type TexturePlan struct {
	GridID       uuid.UUID
	Kind         ScalarKind
	Size         [3]uint32
	Format       TexelFormat
	RGBA         bool
	Shift        float32
	Scale        float32
	DisplayRange [2]float64
	// Folded is set when the texels were computed from DisplayRange, so a
	// new range needs a new upload. Otherwise only Shift and Scale change.
	Folded bool
	Texels []byte
}

// BytesPerRow returns the stride of one x row in Texels.
func (p *TexturePlan) BytesPerRow() uint32 {
	return p.Size[0] * uint32(p.Format.BytesPerTexel())
}

// Prepare selects the storage format for grid and converts its samples into
// texels. displayRange overrides the range mapped onto [0,1]; when nil, byte
// kinds use their type range and wider kinds the grid's actual min/max.
// Nothing is allocated on the GPU here, so an unsupported grid fails before
// any texture exists.
func Prepare(grid *Grid, displayRange *[2]float64) (*TexturePlan, error) {
	if grid == nil {
		return nil, fmt.Errorf("prepare volume: nil grid")
	}

	dims := grid.Dimensions()
	for i, d := range dims {
		if d <= 0 {
			return nil, fmt.Errorf("prepare volume: empty extent on axis %d: %v", i, grid.Extent)
		}
	}

	plan := &TexturePlan{
		GridID: grid.ID,
		Kind:   grid.Kind,
		Size:   [3]uint32{uint32(dims[0]), uint32(dims[1]), uint32(dims[2])},
		Shift:  0,
		Scale:  1,
	}

	if grid.Components == 4 {
		if grid.Kind != KindUint8 {
			return nil, &UnsupportedScalarTypeError{Kind: grid.Kind, Components: grid.Components}
		}
		if err := checkDataLength(grid); err != nil {
			return nil, err
		}
		plan.Format = TexelRGBA8Unorm
		plan.RGBA = true
		plan.DisplayRange = [2]float64{0, math.MaxUint8}
		plan.Texels = grid.Data
		return plan, nil
	}

	kf, ok := kindTable[grid.Kind]
	if !ok || grid.Components != 1 {
		return nil, &UnsupportedScalarTypeError{Kind: grid.Kind, Components: grid.Components}
	}
	if err := checkDataLength(grid); err != nil {
		return nil, err
	}

	plan.Format = kf.format
	plan.DisplayRange = resolveRange(grid, kf, displayRange)
	lo, hi := plan.DisplayRange[0], plan.DisplayRange[1]

	if !kf.verbatim {
		plan.Folded = true
		plan.Texels = foldFloat16(grid, lo, hi)
		return plan, nil
	}

	nlo, nhi := kf.normalize(lo), kf.normalize(hi)
	plan.Shift = float32(-nlo)
	plan.Scale = float32(1 / (nhi - nlo))
	plan.Texels = grid.Data
	return plan, nil
}

func checkDataLength(grid *Grid) error {
	want := grid.NumSamples() * grid.Kind.Size()
	if len(grid.Data) != want {
		return fmt.Errorf("prepare volume: grid data holds %d bytes, extent %v needs %d", len(grid.Data), grid.Extent, want)
	}
	return nil
}

func resolveRange(grid *Grid, kf kindFormat, override *[2]float64) [2]float64 {
	var r [2]float64
	switch {
	case override != nil:
		r = *override
	case kf.verbatim:
		r = kf.typeRange
	default:
		r = grid.ScalarRange()
	}
	if !isFinite(r[0]) || !isFinite(r[1]) {
		r = [2]float64{0, 1}
	}
	if r[1] < r[0] {
		r[0], r[1] = r[1], r[0]
	}
	if r[1] == r[0] {
		r[1] = r[0] + 1
	}
	return r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// foldFloat16 stores (v-lo)/(hi-lo) per sample. NaN samples become 0.
func foldFloat16(grid *Grid, lo, hi float64) []byte {
	n := grid.NumSamples()
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		t := (grid.Value(i) - lo) / (hi - lo)
		if math.IsNaN(t) {
			t = 0
		}
		h := float16.Fromfloat32(float32(t))
		binary.LittleEndian.PutUint16(out[i*2:], h.Bits())
	}
	return out
}
