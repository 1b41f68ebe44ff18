package transfer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ControlPoint is one knot of a transfer function. Position is expressed in
// table index units; Value holds r, g, b, opacity.
type ControlPoint struct {
	Position float32
	Value    mgl32.Vec4
}

// ColorPoint returns a color knot. Opacity is fixed to 1 and is overwritten
// by the opacity spline when the table is rasterized.
func ColorPoint(position, r, g, b float32) ControlPoint {
	return ControlPoint{Position: position, Value: mgl32.Vec4{r, g, b, 1}}
}

// AlphaPoint returns an opacity knot with the value stored in the 4th channel.
func AlphaPoint(position, alpha float32) ControlPoint {
	return ControlPoint{Position: position, Value: mgl32.Vec4{0, 0, 0, alpha}}
}

// DegenerateSplineError reports a knot sequence that cannot be fitted.
type DegenerateSplineError struct {
	Points int
	Reason string
}

func (e *DegenerateSplineError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("degenerate spline (%d points): %s", e.Points, e.Reason)
	}
	return fmt.Sprintf("degenerate spline: need at least 2 control points, got %d", e.Points)
}

// Cubic is one segment a + b*s + c*s^2 + d*s^3 for s in [0,1].
type Cubic struct {
	A, B, C, D mgl32.Vec4
}

// Evaluate returns the point on the segment at parameter s.
func (c Cubic) Evaluate(s float32) mgl32.Vec4 {
	return c.D.Mul(s).Add(c.C).Mul(s).Add(c.B).Mul(s).Add(c.A)
}

// Derivative returns the analytic first derivative at parameter s.
func (c Cubic) Derivative(s float32) mgl32.Vec4 {
	return c.B.Add(c.C.Mul(2 * s)).Add(c.D.Mul(3 * s * s))
}

// FitCubicSpline fits a natural cubic spline through points and returns one
// segment per adjacent pair.
//
// The derivatives D[i] at the knots solve the tridiagonal system
//
//	[2 1       ] [D[0]]   [3(v[1] - v[0])  ]
//	|1 4 1     | |D[1]|   |3(v[2] - v[0])  |
//	|  ....    | | .. | = |      ..        |
//	|     1 4 1| |    |   |3(v[n] - v[n-2])|
//	[       1 2] [D[n]]   [3(v[n] - v[n-1])]
//
// reduced to upper triangular form (gamma, delta) and back substituted.
func FitCubicSpline(points []ControlPoint) ([]Cubic, error) {
	if len(points) < 2 {
		return nil, &DegenerateSplineError{Points: len(points)}
	}
	for i := 1; i < len(points); i++ {
		if points[i].Position <= points[i-1].Position {
			return nil, &DegenerateSplineError{
				Points: len(points),
				Reason: fmt.Sprintf("positions not strictly increasing at knot %d (%v <= %v)", i, points[i].Position, points[i-1].Position),
			}
		}
	}

	n := len(points) - 1
	v := func(i int) mgl32.Vec4 { return points[i].Value }

	gamma := make([]float32, n+1)
	delta := make([]mgl32.Vec4, n+1)
	d := make([]mgl32.Vec4, n+1)

	// The matrix is the same for every channel, so gamma is a scalar.
	gamma[0] = 1.0 / 2.0
	for i := 1; i < n; i++ {
		gamma[i] = 1 / (4 - gamma[i-1])
	}
	gamma[n] = 1 / (2 - gamma[n-1])

	delta[0] = v(1).Sub(v(0)).Mul(3 * gamma[0])
	for i := 1; i < n; i++ {
		delta[i] = v(i + 1).Sub(v(i - 1)).Mul(3).Sub(delta[i-1]).Mul(gamma[i])
	}
	delta[n] = v(n).Sub(v(n - 1)).Mul(3).Sub(delta[n-1]).Mul(gamma[n])

	d[n] = delta[n]
	for i := n - 1; i >= 0; i-- {
		d[i] = delta[i].Sub(d[i+1].Mul(gamma[i]))
	}

	segments := make([]Cubic, n)
	for i := 0; i < n; i++ {
		diff := v(i + 1).Sub(v(i))
		segments[i] = Cubic{
			A: v(i),
			B: d[i],
			C: diff.Mul(3).Sub(d[i].Mul(2)).Sub(d[i+1]),
			D: diff.Mul(-2).Add(d[i]).Add(d[i+1]),
		}
	}
	return segments, nil
}
