package volume

import (
	"fmt"
	"math"
)

// SphereSource samples the implicit sphere x²+y²+z²-r² on a regular grid
// spanning Bounds.
type SphereSource struct {
	Dims   [3]int
	Bounds [6]float64
	Center [3]float64
	Radius float64
}

// DefaultSphereSource is a 127³ sample of a 0.1 radius sphere over [-1,1]³.
func DefaultSphereSource() SphereSource {
	return SphereSource{
		Dims:   [3]int{127, 127, 127},
		Bounds: [6]float64{-1, 1, -1, 1, -1, 1},
		Radius: 0.1,
	}
}

// Generate evaluates the sphere function into a float64 grid whose spacing
// and origin place the samples on Bounds.
func (s SphereSource) Generate() (*Grid, error) {
	for i, d := range s.Dims {
		if d < 2 {
			return nil, fmt.Errorf("sphere source: axis %d needs at least 2 samples, got %d", i, d)
		}
	}

	var spacing, origin [3]float64
	for i := 0; i < 3; i++ {
		origin[i] = s.Bounds[2*i]
		spacing[i] = (s.Bounds[2*i+1] - s.Bounds[2*i]) / float64(s.Dims[i]-1)
	}

	nx, ny, nz := s.Dims[0], s.Dims[1], s.Dims[2]
	samples := make([]float64, nx*ny*nz)
	r2 := s.Radius * s.Radius
	for k := 0; k < nz; k++ {
		z := origin[2] + float64(k)*spacing[2] - s.Center[2]
		for j := 0; j < ny; j++ {
			y := origin[1] + float64(j)*spacing[1] - s.Center[1]
			row := (k*ny + j) * nx
			for i := 0; i < nx; i++ {
				x := origin[0] + float64(i)*spacing[0] - s.Center[0]
				samples[row+i] = x*x + y*y + z*z - r2
			}
		}
	}

	grid, err := NewGrid([6]int{0, nx - 1, 0, ny - 1, 0, nz - 1}, 1, samples)
	if err != nil {
		return nil, err
	}
	grid.Spacing = spacing
	grid.Origin = origin
	return grid, nil
}

// WaveletSource is a gaussian modulated by per-axis sinusoids over a
// symmetric integer extent, a common synthetic test field.
type WaveletSource struct {
	HalfExtent int
	Maximum    float64
	StdDev     float64
	Freq       [3]float64
	Mag        [3]float64
}

func DefaultWaveletSource() WaveletSource {
	return WaveletSource{
		HalfExtent: 10,
		Maximum:    255,
		StdDev:     0.5,
		Freq:       [3]float64{60, 30, 40},
		Mag:        [3]float64{10, 18, 5},
	}
}

// Generate evaluates the wavelet into a float32 grid.
func (w WaveletSource) Generate() (*Grid, error) {
	if w.HalfExtent < 1 {
		return nil, fmt.Errorf("wavelet source: half extent must be positive, got %d", w.HalfExtent)
	}
	if w.StdDev <= 0 {
		return nil, fmt.Errorf("wavelet source: standard deviation must be positive, got %v", w.StdDev)
	}

	h := w.HalfExtent
	n := 2*h + 1
	span := float64(2 * h)
	inv := 1 / (2 * w.StdDev * w.StdDev)

	samples := make([]float32, 0, n*n*n)
	for k := -h; k <= h; k++ {
		z := float64(k) / span
		for j := -h; j <= h; j++ {
			y := float64(j) / span
			for i := -h; i <= h; i++ {
				x := float64(i) / span
				v := w.Maximum*math.Exp(-(x*x+y*y+z*z)*inv) +
					w.Mag[0]*math.Sin(w.Freq[0]*x) +
					w.Mag[1]*math.Sin(w.Freq[1]*y) +
					w.Mag[2]*math.Cos(w.Freq[2]*z)
				samples = append(samples, float32(v))
			}
		}
	}

	grid, err := NewGrid([6]int{-h, h, -h, h, -h, h}, 1, samples)
	if err != nil {
		return nil, err
	}
	return grid, nil
}

// ShiftScaleToUint8 maps the first component of src linearly from its value
// range onto [0,255] and returns a new single-component uint8 grid with the
// same geometry.
func ShiftScaleToUint8(src *Grid) (*Grid, error) {
	if src.Kind.Size() == 0 {
		return nil, &UnsupportedScalarTypeError{Kind: src.Kind, Components: src.Components}
	}
	r := src.ScalarRange()
	magnitude := r[1] - r[0]
	if magnitude == 0 {
		magnitude = 1
	}
	scale := 255 / magnitude

	n := src.NumSamples() / src.Components
	out := make([]uint8, n)
	for i := range out {
		v := (src.Value(i*src.Components) - r[0]) * scale
		out[i] = uint8(math.Max(0, math.Min(255, v)))
	}

	grid, err := NewGrid(src.Extent, 1, out)
	if err != nil {
		return nil, err
	}
	grid.Spacing = src.Spacing
	grid.Origin = src.Origin
	return grid, nil
}
