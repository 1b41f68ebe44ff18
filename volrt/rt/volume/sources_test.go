package volume

import (
	"testing"
)

func TestSphereSource_Generate(t *testing.T) {
	src := SphereSource{
		Dims:   [3]int{5, 5, 5},
		Bounds: [6]float64{-1, 1, -1, 1, -1, 1},
		Radius: 0.5,
	}
	grid, err := src.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if grid.Kind != KindFloat64 || grid.Dimensions() != [3]int{5, 5, 5} {
		t.Fatalf("unexpected grid %v %v", grid.Kind, grid.Dimensions())
	}

	lo, hi := grid.Bounds()
	if lo != [3]float64{-1, -1, -1} || hi != [3]float64{1, 1, 1} {
		t.Errorf("expected bounds [-1,1]^3, got %v %v", lo, hi)
	}

	center := (2*5+2)*5 + 2
	if got := grid.Value(center); !near(got, -0.25, 1e-12) {
		t.Errorf("expected -r^2 at the center, got %v", got)
	}
	if got := grid.Value(0); !near(got, 3-0.25, 1e-12) {
		t.Errorf("expected 3-r^2 at the corner, got %v", got)
	}

	if _, err := (SphereSource{Dims: [3]int{1, 5, 5}}).Generate(); err == nil {
		t.Error("expected an error for a single-sample axis")
	}
}

func TestWaveletSource_Generate(t *testing.T) {
	grid, err := DefaultWaveletSource().Generate()
	if err != nil {
		t.Fatal(err)
	}
	if grid.Kind != KindFloat32 {
		t.Errorf("expected float32 samples, got %v", grid.Kind)
	}
	if grid.Dimensions() != [3]int{21, 21, 21} {
		t.Errorf("expected 21^3, got %v", grid.Dimensions())
	}
	r := grid.ScalarRange()
	if r[0] >= r[1] {
		t.Errorf("expected a non-degenerate range, got %v", r)
	}
}

func TestShiftScaleToUint8(t *testing.T) {
	src, err := NewGrid([6]int{0, 2, 0, 0, 0, 0}, 1, []float64{-2, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	src.Spacing = [3]float64{0.5, 1, 1}

	out, err := ShiftScaleToUint8(src)
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != KindUint8 || out.Extent != src.Extent || out.Spacing != src.Spacing {
		t.Fatalf("expected uint8 grid with the same geometry, got %+v", out)
	}
	want := []byte{0, 127, 255}
	for i, w := range want {
		if out.Data[i] != w {
			t.Errorf("sample %d: expected %d, got %d", i, w, out.Data[i])
		}
	}
	if out.ID == src.ID {
		t.Error("converted grid should get its own identity")
	}
}
