package volume

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// ScalarKind tags the element type stored in a Grid.
type ScalarKind uint8

const (
	KindUint8 ScalarKind = iota
	KindInt8
	KindUint16
	KindInt16
	KindUint32
	KindInt32
	KindFloat32
	KindFloat64
	KindInt64
	KindUint64
	KindBit
	KindString
)

var kindNames = map[ScalarKind]string{
	KindUint8:   "uint8",
	KindInt8:    "int8",
	KindUint16:  "uint16",
	KindInt16:   "int16",
	KindUint32:  "uint32",
	KindInt32:   "int32",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindBit:     "bit",
	KindString:  "string",
}

func (k ScalarKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ScalarKind(%d)", uint8(k))
}

// Size returns the byte size of one element, or 0 for kinds without a fixed
// byte layout.
func (k ScalarKind) Size() int {
	switch k {
	case KindUint8, KindInt8:
		return 1
	case KindUint16, KindInt16:
		return 2
	case KindUint32, KindInt32, KindFloat32:
		return 4
	case KindFloat64, KindInt64, KindUint64:
		return 8
	}
	return 0
}

// Scalar is the set of Go element types a Grid can be built from.
type Scalar interface {
	uint8 | int8 | uint16 | int16 | uint32 | int32 | float32 | float64 | int64 | uint64
}

// Grid is a dense 3-D array of scalar samples, x fastest, stored little endian.
type Grid struct {
	ID         uuid.UUID
	Kind       ScalarKind
	Components int
	// Extent is x0, x1, y0, y1, z0, z1 (inclusive).
	Extent  [6]int
	Spacing [3]float64
	Origin  [3]float64
	Data    []byte
}

// NewGrid packs samples into a Grid with unit spacing and zero origin.
func NewGrid[T Scalar](extent [6]int, components int, samples []T) (*Grid, error) {
	kind := kindOf[T]()
	if components < 1 {
		return nil, fmt.Errorf("grid needs at least one component, got %d", components)
	}

	g := &Grid{
		ID:         uuid.New(),
		Kind:       kind,
		Components: components,
		Extent:     extent,
		Spacing:    [3]float64{1, 1, 1},
	}
	if want := g.NumSamples(); want != len(samples) {
		return nil, fmt.Errorf("grid extent %v with %d components needs %d samples, got %d", extent, components, want, len(samples))
	}

	size := kind.Size()
	g.Data = make([]byte, len(samples)*size)
	for i, s := range samples {
		putScalar(g.Data[i*size:], kind, s)
	}
	return g, nil
}

func kindOf[T Scalar]() ScalarKind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUint8
	case int8:
		return KindInt8
	case uint16:
		return KindUint16
	case int16:
		return KindInt16
	case uint32:
		return KindUint32
	case int32:
		return KindInt32
	case float32:
		return KindFloat32
	case float64:
		return KindFloat64
	case int64:
		return KindInt64
	case uint64:
		return KindUint64
	}
	panic(fmt.Sprintf("unsupported scalar type %T", zero))
}

func putScalar[T Scalar](b []byte, kind ScalarKind, v T) {
	switch kind {
	case KindUint8:
		b[0] = uint8(v)
	case KindInt8:
		b[0] = uint8(int8(v))
	case KindUint16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case KindInt16:
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
	case KindUint32:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case KindInt32:
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
	case KindFloat32:
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
	case KindFloat64:
		binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))
	case KindInt64:
		binary.LittleEndian.PutUint64(b, uint64(int64(v)))
	case KindUint64:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}

// Dimensions returns the sample count along each axis derived from Extent.
func (g *Grid) Dimensions() [3]int {
	var dims [3]int
	for i := 0; i < 3; i++ {
		dims[i] = g.Extent[2*i+1] - g.Extent[2*i] + 1
	}
	return dims
}

// NumSamples returns the number of scalar elements (points times components).
func (g *Grid) NumSamples() int {
	dims := g.Dimensions()
	if dims[0] <= 0 || dims[1] <= 0 || dims[2] <= 0 {
		return 0
	}
	return dims[0] * dims[1] * dims[2] * g.Components
}

// Bounds returns the physical axis-aligned box covered by the grid points.
func (g *Grid) Bounds() (lo, hi [3]float64) {
	for i := 0; i < 3; i++ {
		a := g.Origin[i] + float64(g.Extent[2*i])*g.Spacing[i]
		b := g.Origin[i] + float64(g.Extent[2*i+1])*g.Spacing[i]
		if a > b {
			a, b = b, a
		}
		lo[i], hi[i] = a, b
	}
	return lo, hi
}

// SameShape reports whether other can reuse a texture built from g.
func (g *Grid) SameShape(other *Grid) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Kind == other.Kind && g.Components == other.Components && g.Extent == other.Extent
}

// Value decodes element i as float64. Kinds without a numeric layout return 0.
func (g *Grid) Value(i int) float64 {
	size := g.Kind.Size()
	b := g.Data[i*size:]
	switch g.Kind {
	case KindUint8:
		return float64(b[0])
	case KindInt8:
		return float64(int8(b[0]))
	case KindUint16:
		return float64(binary.LittleEndian.Uint16(b))
	case KindInt16:
		return float64(int16(binary.LittleEndian.Uint16(b)))
	case KindUint32:
		return float64(binary.LittleEndian.Uint32(b))
	case KindInt32:
		return float64(int32(binary.LittleEndian.Uint32(b)))
	case KindFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case KindFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	case KindInt64:
		return float64(int64(binary.LittleEndian.Uint64(b)))
	case KindUint64:
		return float64(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// ScalarRange returns the min and max finite sample value of the first
// component, or [0,1] when there is none.
func (g *Grid) ScalarRange() [2]float64 {
	n := g.NumSamples() / max(g.Components, 1)
	if n == 0 || g.Kind.Size() == 0 {
		return [2]float64{}
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		v := g.Value(i * g.Components)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return [2]float64{0, 1}
	}
	return [2]float64{lo, hi}
}
