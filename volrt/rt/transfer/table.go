package transfer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const DefaultTableSize = 512

// Table is a dense 1-D RGBA lookup table. It is never modified after Build
// returns, so a renderer can hold on to it while a newer one is being built.
type Table struct {
	Texels []mgl32.Vec4
	// Coverage is the [first, last] texel index written by any knot interval.
	Coverage [2]int
}

// Size returns the number of texels.
func (t *Table) Size() int {
	return len(t.Texels)
}

// At returns texel i clamped to the table edges.
func (t *Table) At(i int) mgl32.Vec4 {
	if len(t.Texels) == 0 {
		return mgl32.Vec4{}
	}
	if i < 0 {
		i = 0
	}
	if i >= len(t.Texels) {
		i = len(t.Texels) - 1
	}
	return t.Texels[i]
}

// TexelCoord maps a normalized scalar onto the continuous texel index a
// linear lookup interpolates at. Texel i spans knot positions [i, i+1), so
// 0 and 1 land on the table edges and a knot at p falls halfway between
// texels p-1 and p, both of which Build fills with its value.
func TexelCoord(s float32, size int) float32 {
	if size < 1 {
		return 0
	}
	x := s*float32(size) - 0.5
	return mgl32.Clamp(x, 0, float32(size-1))
}

// Lookup interpolates the table at normalized scalar s the way the ray-cast
// fragment stage does.
func (t *Table) Lookup(s float32) mgl32.Vec4 {
	if len(t.Texels) == 0 {
		return mgl32.Vec4{}
	}
	x := TexelCoord(s, len(t.Texels))
	i0 := int(x)
	a, b := t.At(i0), t.At(i0+1)
	f := x - float32(i0)
	return a.Mul(1 - f).Add(b.Mul(f))
}

// Build rasterizes the color and opacity splines into a table of size texels.
// Knot positions are table indices: the interval between two knots covers
// exactly int(p1)-int(p0) texels starting at int(p0). Texels outside [0,size)
// are dropped, texels no interval covers stay transparent black.
func Build(colorKnots, alphaKnots []ControlPoint, size int) (*Table, error) {
	if size < 1 {
		return nil, fmt.Errorf("transfer table size must be positive, got %d", size)
	}
	colorCubic, err := FitCubicSpline(colorKnots)
	if err != nil {
		return nil, fmt.Errorf("color knots: %w", err)
	}
	alphaCubic, err := FitCubicSpline(alphaKnots)
	if err != nil {
		return nil, fmt.Errorf("alpha knots: %w", err)
	}

	table := &Table{
		Texels:   make([]mgl32.Vec4, size),
		Coverage: [2]int{math.MaxInt, math.MinInt},
	}

	rasterize(colorKnots, colorCubic, size, func(idx int, v mgl32.Vec4) {
		table.Texels[idx] = v
		table.cover(idx)
	})
	rasterize(alphaKnots, alphaCubic, size, func(idx int, v mgl32.Vec4) {
		table.Texels[idx][3] = v[3]
		table.cover(idx)
	})

	if table.Coverage[0] > table.Coverage[1] {
		table.Coverage = [2]int{0, -1}
	}
	return table, nil
}

func (t *Table) cover(idx int) {
	if idx < t.Coverage[0] {
		t.Coverage[0] = idx
	}
	if idx > t.Coverage[1] {
		t.Coverage[1] = idx
	}
}

func rasterize(knots []ControlPoint, segments []Cubic, size int, write func(idx int, v mgl32.Vec4)) {
	for i, seg := range segments {
		start := int(knots[i].Position)
		steps := int(knots[i+1].Position) - start
		for j := 0; j < steps; j++ {
			idx := start + j
			if idx < 0 || idx >= size {
				continue
			}
			k := float32(0)
			if steps > 1 {
				k = float32(j) / float32(steps-1)
			}
			write(idx, seg.Evaluate(k))
		}
	}
}

// DefaultColorKnots spans the whole table with a blue, red, white ramp.
func DefaultColorKnots(size int) []ControlPoint {
	s := float32(size)
	return []ControlPoint{
		ColorPoint(0, 0, 0, 1),
		ColorPoint(float32(math.Round(float64(s*40/255))), 1, 0, 0),
		ColorPoint(s, 1, 1, 1),
	}
}

// DefaultAlphaKnots is a linear opacity ramp over the whole table.
func DefaultAlphaKnots(size int) []ControlPoint {
	return []ControlPoint{
		AlphaPoint(0, 0),
		AlphaPoint(float32(size), 1),
	}
}

// RescaleKnots maps knots authored in scalar units onto table positions, so
// that displayRange[0] lands on the left edge of the table and
// displayRange[1] on the right edge, matching TexelCoord.
func RescaleKnots(points []ControlPoint, displayRange [2]float64, size int) ([]ControlPoint, error) {
	width := displayRange[1] - displayRange[0]
	if width <= 0 {
		return nil, fmt.Errorf("invalid display range [%v, %v]", displayRange[0], displayRange[1])
	}
	out := make([]ControlPoint, len(points))
	for i, p := range points {
		t := (float64(p.Position) - displayRange[0]) / width
		out[i] = ControlPoint{
			Position: float32(math.Round(t * float64(size))),
			Value:    p.Value,
		}
	}
	return out, nil
}
