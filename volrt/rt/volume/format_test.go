package volume

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/x448/float16"
)

func halfAt(t *testing.T, plan *TexturePlan, i int) float64 {
	t.Helper()
	if plan.Format != TexelR16Float {
		t.Fatalf("expected r16float texels, got %v", plan.Format)
	}
	bits := binary.LittleEndian.Uint16(plan.Texels[i*2:])
	return float64(float16.Frombits(bits).Float32())
}

// shaderValue applies the shift/scale the fragment stage uses.
func shaderValue(plan *TexturePlan, sampled float64) float64 {
	return (sampled + float64(plan.Shift)) * float64(plan.Scale)
}

func near(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestPrepare_Uint8IsDeterministic(t *testing.T) {
	grid, err := NewGrid([6]int{0, 1, 0, 1, 0, 0}, 1, []uint8{0, 64, 128, 255})
	if err != nil {
		t.Fatal(err)
	}
	other, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 1, []float32{-5, 5})
	if err != nil {
		t.Fatal(err)
	}

	first, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Prepare(other, nil); err != nil {
		t.Fatal(err)
	}
	second, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, plan := range []*TexturePlan{first, second} {
		if plan.Format != TexelR8Unorm {
			t.Errorf("expected r8unorm, got %v", plan.Format)
		}
		if plan.Shift != 0 || plan.Scale != 1 {
			t.Errorf("expected shift 0 scale 1 from the type range, got %v %v", plan.Shift, plan.Scale)
		}
		if plan.DisplayRange != [2]float64{0, 255} {
			t.Errorf("expected type range, got %v", plan.DisplayRange)
		}
		if !bytes.Equal(plan.Texels, grid.Data) {
			t.Errorf("uint8 texels should be uploaded verbatim")
		}
		if plan.Folded {
			t.Errorf("uint8 texels do not depend on the display range")
		}
	}
}

func TestPrepare_Uint8DisplayRange(t *testing.T) {
	grid, err := NewGrid([6]int{0, 2, 0, 0, 0, 0}, 1, []uint8{50, 75, 100})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(grid, &[2]float64{50, 100})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{0, 0.5, 1} {
		got := shaderValue(plan, grid.Value(i)/255)
		if !near(got, want, 1e-5) {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestPrepare_Int8Snorm(t *testing.T) {
	grid, err := NewGrid([6]int{0, 2, 0, 0, 0, 0}, 1, []int8{-128, 0, 127})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Format != TexelR8Snorm {
		t.Fatalf("expected r8snorm, got %v", plan.Format)
	}
	// snorm sampling clamps -128 to -1, so both ends map onto [0,1].
	if got := shaderValue(plan, -1); !near(got, 0, 1e-6) {
		t.Errorf("expected -128 to map to 0, got %v", got)
	}
	if got := shaderValue(plan, 1); !near(got, 1, 1e-6) {
		t.Errorf("expected 127 to map to 1, got %v", got)
	}
}

func TestPrepare_WideIntegersUseGridRange(t *testing.T) {
	t.Run("uint16", func(t *testing.T) {
		grid, err := NewGrid([6]int{0, 3, 0, 0, 0, 0}, 1, []uint16{100, 200, 300, 400})
		if err != nil {
			t.Fatal(err)
		}
		plan, err := Prepare(grid, nil)
		if err != nil {
			t.Fatal(err)
		}
		if plan.DisplayRange != [2]float64{100, 400} {
			t.Fatalf("expected grid range, got %v", plan.DisplayRange)
		}
		for i, want := range []float64{0, 1.0 / 3, 2.0 / 3, 1} {
			got := shaderValue(plan, halfAt(t, plan, i))
			if !near(got, want, 0.01) {
				t.Errorf("sample %d: expected %v, got %v", i, want, got)
			}
		}
	})

	t.Run("int16", func(t *testing.T) {
		grid, err := NewGrid([6]int{0, 2, 0, 0, 0, 0}, 1, []int16{-32768, 0, 32767})
		if err != nil {
			t.Fatal(err)
		}
		plan, err := Prepare(grid, nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, want := range []float64{0, 0.5, 1} {
			got := shaderValue(plan, halfAt(t, plan, i))
			if !near(got, want, 0.01) {
				t.Errorf("sample %d: expected %v, got %v", i, want, got)
			}
		}
	})

	t.Run("int32 explicit range", func(t *testing.T) {
		grid, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 1, []int32{-1 << 30, 1 << 30})
		if err != nil {
			t.Fatal(err)
		}
		plan, err := Prepare(grid, &[2]float64{-1 << 31, 1<<31 - 1})
		if err != nil {
			t.Fatal(err)
		}
		if got := shaderValue(plan, halfAt(t, plan, 0)); !near(got, 0.25, 0.01) {
			t.Errorf("expected 0.25, got %v", got)
		}
		if got := shaderValue(plan, halfAt(t, plan, 1)); !near(got, 0.75, 0.01) {
			t.Errorf("expected 0.75, got %v", got)
		}
	})
}

func TestPrepare_WideIntegersKeepNarrowRanges(t *testing.T) {
	tests := []struct {
		name    string
		samples any
		want    []float64
	}{
		{
			name:    "uint32 0..1000",
			samples: []uint32{0, 100, 200, 300, 400, 500, 600, 700, 800, 900, 1000},
			want:    []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		{
			name:    "uint16 60000..60100",
			samples: []uint16{60000, 60025, 60050, 60075, 60100},
			want:    []float64{0, 0.25, 0.5, 0.75, 1},
		},
		{
			name:    "int32 around zero",
			samples: []int32{-20, -10, 0, 10, 20},
			want:    []float64{0, 0.25, 0.5, 0.75, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				grid *Grid
				err  error
			)
			switch v := tt.samples.(type) {
			case []uint32:
				grid, err = NewGrid([6]int{0, len(v) - 1, 0, 0, 0, 0}, 1, v)
			case []uint16:
				grid, err = NewGrid([6]int{0, len(v) - 1, 0, 0, 0, 0}, 1, v)
			case []int32:
				grid, err = NewGrid([6]int{0, len(v) - 1, 0, 0, 0, 0}, 1, v)
			}
			if err != nil {
				t.Fatal(err)
			}
			plan, err := Prepare(grid, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !plan.Folded || plan.Shift != 0 || plan.Scale != 1 {
				t.Errorf("expected folded texels with identity shift/scale, got folded=%v %v %v", plan.Folded, plan.Shift, plan.Scale)
			}
			prev := math.Inf(-1)
			for i, want := range tt.want {
				got := shaderValue(plan, halfAt(t, plan, i))
				if !near(got, want, 1e-3) {
					t.Errorf("sample %d: expected %v, got %v", i, want, got)
				}
				if got <= prev {
					t.Errorf("sample %d: %v does not increase past %v", i, got, prev)
				}
				prev = got
			}
		})
	}
}

func TestPrepare_NonFiniteSamples(t *testing.T) {
	nan := float32(math.NaN())
	allNaN, err := NewGrid([6]int{0, 2, 0, 0, 0, 0}, 1, []float32{nan, nan, nan})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(allNaN, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.DisplayRange != [2]float64{0, 1} {
		t.Errorf("expected [0,1] fallback, got %v", plan.DisplayRange)
	}
	for i := 0; i < 3; i++ {
		if got := halfAt(t, plan, i); got != 0 {
			t.Errorf("sample %d: expected 0 for NaN, got %v", i, got)
		}
	}

	mixed, err := NewGrid([6]int{0, 3, 0, 0, 0, 0}, 1, []float64{math.Inf(-1), 2, float64(nan), 4})
	if err != nil {
		t.Fatal(err)
	}
	if got := mixed.ScalarRange(); got != [2]float64{2, 4} {
		t.Errorf("expected non-finite samples to be skipped, got %v", got)
	}

	plan, err = Prepare(mixed, &[2]float64{math.Inf(-1), math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}
	if plan.DisplayRange != [2]float64{0, 1} {
		t.Errorf("expected [0,1] for an infinite override, got %v", plan.DisplayRange)
	}
}

func TestPrepare_FloatsAreFolded(t *testing.T) {
	grid, err := NewGrid([6]int{0, 3, 0, 0, 0, 0}, 1, []float32{-1, 0, 1, 3})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Shift != 0 || plan.Scale != 1 {
		t.Errorf("expected identity shift/scale, got %v %v", plan.Shift, plan.Scale)
	}
	for i, want := range []float64{0, 0.25, 0.5, 1} {
		if got := halfAt(t, plan, i); !near(got, want, 1e-3) {
			t.Errorf("sample %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestPrepare_ConstantGridWidensRange(t *testing.T) {
	grid, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 1, []float64{7, 7})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.DisplayRange != [2]float64{7, 8} {
		t.Errorf("expected widened range, got %v", plan.DisplayRange)
	}
}

func TestPrepare_RGBA(t *testing.T) {
	data := []uint8{255, 0, 0, 255, 0, 255, 0, 128}
	grid, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 4, data)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := Prepare(grid, &[2]float64{10, 20})
	if err != nil {
		t.Fatal(err)
	}
	if !plan.RGBA || plan.Format != TexelRGBA8Unorm {
		t.Errorf("expected rgba8unorm, got %v", plan.Format)
	}
	if plan.Shift != 0 || plan.Scale != 1 {
		t.Errorf("rgba volumes ignore the display range, got %v %v", plan.Shift, plan.Scale)
	}
	if !bytes.Equal(plan.Texels, data) {
		t.Errorf("rgba texels should be uploaded verbatim")
	}
	if plan.BytesPerRow() != 8 {
		t.Errorf("expected 8 bytes per row, got %d", plan.BytesPerRow())
	}

	floats, err := NewGrid([6]int{0, 0, 0, 0, 0, 0}, 4, []float32{1, 0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	var unsupported *UnsupportedScalarTypeError
	if _, err := Prepare(floats, nil); !errors.As(err, &unsupported) {
		t.Errorf("expected UnsupportedScalarTypeError for float rgba, got %v", err)
	}
}

func TestPrepare_UnsupportedKinds(t *testing.T) {
	wide, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 1, []int64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	uwide, err := NewGrid([6]int{0, 1, 0, 0, 0, 0}, 1, []uint64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	grids := []*Grid{
		wide,
		uwide,
		{Kind: KindBit, Components: 1, Extent: [6]int{0, 7, 0, 0, 0, 0}, Data: []byte{0xff}},
		{Kind: KindString, Components: 1, Extent: [6]int{0, 0, 0, 0, 0, 0}},
		{Kind: KindUint8, Components: 2, Extent: [6]int{0, 0, 0, 0, 0, 0}, Data: []byte{1, 2}},
	}
	for _, g := range grids {
		plan, err := Prepare(g, nil)
		var unsupported *UnsupportedScalarTypeError
		if !errors.As(err, &unsupported) {
			t.Errorf("%v: expected UnsupportedScalarTypeError, got %v", g.Kind, err)
			continue
		}
		if plan != nil {
			t.Errorf("%v: no plan should be produced", g.Kind)
		}
		if unsupported.Kind != g.Kind {
			t.Errorf("expected kind %v in error, got %v", g.Kind, unsupported.Kind)
		}
	}
}

func TestPrepare_ExtentDerivation(t *testing.T) {
	grid := &Grid{
		Kind:       KindUint8,
		Components: 1,
		Extent:     [6]int{0, 255, 0, 255, 0, 255},
		Data:       make([]byte, 256*256*256),
	}
	plan, err := Prepare(grid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if plan.Size != [3]uint32{256, 256, 256} {
		t.Errorf("expected 256x256x256, got %v", plan.Size)
	}

	offset := &Grid{Kind: KindUint8, Components: 1, Extent: [6]int{-10, 10, 5, 6, 3, 3}, Data: make([]byte, 21*2)}
	if got := offset.Dimensions(); got != [3]int{21, 2, 1} {
		t.Errorf("expected 21x2x1, got %v", got)
	}
}

func TestPrepare_DataLengthMismatch(t *testing.T) {
	grid := &Grid{Kind: KindUint16, Components: 1, Extent: [6]int{0, 3, 0, 0, 0, 0}, Data: make([]byte, 6)}
	_, err := Prepare(grid, nil)
	if err == nil {
		t.Fatal("expected an error for short data")
	}
	var unsupported *UnsupportedScalarTypeError
	if errors.As(err, &unsupported) {
		t.Errorf("length mismatch is not a type error: %v", err)
	}

	if _, err := Prepare(nil, nil); err == nil {
		t.Error("expected an error for a nil grid")
	}
}
