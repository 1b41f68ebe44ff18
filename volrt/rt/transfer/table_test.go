package transfer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Coverage(t *testing.T) {
	color := []ControlPoint{
		ColorPoint(0, 0, 0, 0),
		ColorPoint(128, 1, 1, 1),
	}
	alpha := []ControlPoint{
		AlphaPoint(0, 0),
		AlphaPoint(128, 1),
	}

	table, err := Build(color, alpha, 512)
	require.NoError(t, err)
	require.Equal(t, 512, table.Size())

	assertVec4Near(t, mgl32.Vec4{0, 0, 0, 0}, table.Texels[0], "texel 0")
	assertVec4Near(t, mgl32.Vec4{1, 1, 1, 1}, table.Texels[127], "texel 127")
	for i := 128; i < 512; i++ {
		require.Equal(t, mgl32.Vec4{}, table.Texels[i], "texel %d should stay uncovered", i)
	}
	assert.Equal(t, [2]int{0, 127}, table.Coverage)
}

func TestBuild_AlphaOverwritesColorOpacity(t *testing.T) {
	color := []ControlPoint{
		ColorPoint(0, 1, 0, 0),
		ColorPoint(10, 1, 0, 0),
	}
	alpha := []ControlPoint{
		AlphaPoint(0, 0.25),
		AlphaPoint(10, 0.25),
	}

	table, err := Build(color, alpha, 16)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assertVec4Near(t, mgl32.Vec4{1, 0, 0, 0.25}, table.Texels[i], "texel %d", i)
	}
}

func TestBuild_OffsetAndClipping(t *testing.T) {
	color := []ControlPoint{
		ColorPoint(-4, 0, 1, 0),
		ColorPoint(4, 0, 1, 0),
		ColorPoint(20, 0, 1, 0),
	}
	alpha := []ControlPoint{
		AlphaPoint(2, 1),
		AlphaPoint(6, 1),
	}

	table, err := Build(color, alpha, 8)
	require.NoError(t, err)

	assert.Equal(t, [2]int{0, 7}, table.Coverage)
	assertVec4Near(t, mgl32.Vec4{0, 1, 0, 1}, table.Texels[0])
	assertVec4Near(t, mgl32.Vec4{0, 1, 0, 1}, table.Texels[2])
	assertVec4Near(t, mgl32.Vec4{0, 1, 0, 1}, table.Texels[5])
	assertVec4Near(t, mgl32.Vec4{0, 1, 0, 1}, table.Texels[6])
}

func TestBuild_SingleStepInterval(t *testing.T) {
	alpha := []ControlPoint{
		AlphaPoint(0, 0.3),
		AlphaPoint(1, 0.9),
	}
	table, err := Build(DefaultColorKnots(4), alpha, 4)
	require.NoError(t, err)

	// A one-texel interval samples the segment at k = 0.
	assert.InDelta(t, 0.3, table.Texels[0][3], tolerance)
}

func TestBuild_DegenerateKnots(t *testing.T) {
	_, err := Build([]ControlPoint{ColorPoint(0, 1, 1, 1)}, DefaultAlphaKnots(16), 16)
	var degenerate *DegenerateSplineError
	require.True(t, errors.As(err, &degenerate))

	_, err = Build(DefaultColorKnots(16), nil, 16)
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 0, degenerate.Points)
}

func TestBuild_InvalidSize(t *testing.T) {
	_, err := Build(DefaultColorKnots(16), DefaultAlphaKnots(16), 0)
	assert.Error(t, err)
}

func TestDefaultKnots_CoverWholeTable(t *testing.T) {
	table, err := Build(DefaultColorKnots(DefaultTableSize), DefaultAlphaKnots(DefaultTableSize), DefaultTableSize)
	require.NoError(t, err)

	assert.Equal(t, [2]int{0, DefaultTableSize - 1}, table.Coverage)
	assertVec4Near(t, mgl32.Vec4{0, 0, 1, 0}, table.Texels[0])
	assertVec4Near(t, mgl32.Vec4{1, 1, 1, 1}, table.Texels[DefaultTableSize-1])
}

func TestTable_AtClamps(t *testing.T) {
	table, err := Build(DefaultColorKnots(8), DefaultAlphaKnots(8), 8)
	require.NoError(t, err)

	assert.Equal(t, table.Texels[0], table.At(-5))
	assert.Equal(t, table.Texels[7], table.At(100))
	assert.Equal(t, mgl32.Vec4{}, (&Table{}).At(0))
}

func TestRescaleKnots(t *testing.T) {
	points := []ControlPoint{
		AlphaPoint(-100, 0),
		AlphaPoint(0, 0.5),
		AlphaPoint(100, 1),
	}
	scaled, err := RescaleKnots(points, [2]float64{-100, 100}, 256)
	require.NoError(t, err)

	assert.Equal(t, float32(0), scaled[0].Position)
	assert.Equal(t, float32(128), scaled[1].Position)
	assert.Equal(t, float32(256), scaled[2].Position)
	assert.Equal(t, points[1].Value, scaled[1].Value)

	_, err = RescaleKnots(points, [2]float64{5, 5}, 256)
	assert.Error(t, err)
}

func TestLookup_AgreesWithRescaledKnots(t *testing.T) {
	const size = 256
	displayRange := [2]float64{0, 255}
	color, err := RescaleKnots([]ControlPoint{
		ColorPoint(0, 0, 0, 1),
		ColorPoint(40, 1, 0, 0),
		ColorPoint(255, 1, 1, 1),
	}, displayRange, size)
	require.NoError(t, err)
	alpha, err := RescaleKnots([]ControlPoint{
		AlphaPoint(0, 0),
		AlphaPoint(255, 1),
	}, displayRange, size)
	require.NoError(t, err)
	require.Equal(t, float32(40), color[1].Position)

	table, err := Build(color, alpha, size)
	require.NoError(t, err)

	assert.Equal(t, float32(0), TexelCoord(0, size))
	assert.Equal(t, float32(size-1), TexelCoord(1, size))
	assert.Equal(t, float32(39.5), TexelCoord(40.0/size, size))

	assertVec4Near(t, mgl32.Vec4{0, 0, 1, 0}, table.Lookup(0), "s=0")
	assertVec4Near(t, mgl32.Vec4{1, 1, 1, 1}, table.Lookup(1), "s=1")

	// An interior knot sits between two texels holding its value.
	red := table.Lookup(40.0 / size)
	assertVec4Near(t, mgl32.Vec3{1, 0, 0}.Vec4(red[3]), red, "knot at 40")

	// Out of range scalars clamp to the edges.
	assertVec4Near(t, table.Lookup(0), table.Lookup(-0.5), "below range")
	assertVec4Near(t, table.Lookup(1), table.Lookup(2), "above range")
}
