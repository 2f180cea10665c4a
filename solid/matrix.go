package solid

import (
	"math"

	"github.com/tracefinity/binforge/internal/d2"
	"github.com/tracefinity/binforge/internal/d3"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Affine transform matrices. All constructors build affine matrices
// (last row 0  0 0 1) so Inverse can use the block formula for
// [A t; 0 1] rather than a general cofactor expansion.

// m44 is a 4x4 matrix, row major order.
type m44 struct {
	x00, x01, x02, x03 float64
	x10, x11, x12, x13 float64
	x20, x21, x22, x23 float64
}

// m33 is a 3x3 matrix acting on 2d homogeneous coordinates, row major order.
type m33 struct {
	x00, x01, x02 float64
	x10, x11, x12 float64
}

// Identity3d returns the identity transform.
func Identity3d() m44 {
	return m44{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	}
}

// Translate3d returns a translation transform.
func Translate3d(v r3.Vec) m44 {
	return m44{
		1, 0, 0, v.X,
		0, 1, 0, v.Y,
		0, 0, 1, v.Z,
	}
}

// Scale3d returns a scaling transform. Scale factors must be nonzero.
func Scale3d(v r3.Vec) m44 {
	return m44{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
	}
}

// RotateZ3d returns a rotation about the Z axis, angle in radians.
func RotateZ3d(theta float64) m44 {
	s, c := math.Sincos(theta)
	return m44{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
	}
}

// Mul multiplies two transforms, a then applied after b.
func (a m44) Mul(b m44) m44 {
	return m44{
		a.x00*b.x00 + a.x01*b.x10 + a.x02*b.x20,
		a.x00*b.x01 + a.x01*b.x11 + a.x02*b.x21,
		a.x00*b.x02 + a.x01*b.x12 + a.x02*b.x22,
		a.x00*b.x03 + a.x01*b.x13 + a.x02*b.x23 + a.x03,
		a.x10*b.x00 + a.x11*b.x10 + a.x12*b.x20,
		a.x10*b.x01 + a.x11*b.x11 + a.x12*b.x21,
		a.x10*b.x02 + a.x11*b.x12 + a.x12*b.x22,
		a.x10*b.x03 + a.x11*b.x13 + a.x12*b.x23 + a.x13,
		a.x20*b.x00 + a.x21*b.x10 + a.x22*b.x20,
		a.x20*b.x01 + a.x21*b.x11 + a.x22*b.x21,
		a.x20*b.x02 + a.x21*b.x12 + a.x22*b.x22,
		a.x20*b.x03 + a.x21*b.x13 + a.x22*b.x23 + a.x23,
	}
}

// MulPosition multiplies a position vector by the transform.
func (a m44) MulPosition(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: a.x00*v.X + a.x01*v.Y + a.x02*v.Z + a.x03,
		Y: a.x10*v.X + a.x11*v.Y + a.x12*v.Z + a.x13,
		Z: a.x20*v.X + a.x21*v.Y + a.x22*v.Z + a.x23,
	}
}

// Inverse inverts the affine transform.
func (a m44) Inverse() m44 {
	det := a.x00*(a.x11*a.x22-a.x12*a.x21) -
		a.x01*(a.x10*a.x22-a.x12*a.x20) +
		a.x02*(a.x10*a.x21-a.x11*a.x20)
	if det == 0 {
		panic("singular transform")
	}
	k := 1 / det
	// inverse of the 3x3 linear block by cofactors
	i := m44{
		x00: k * (a.x11*a.x22 - a.x12*a.x21),
		x01: k * (a.x02*a.x21 - a.x01*a.x22),
		x02: k * (a.x01*a.x12 - a.x02*a.x11),
		x10: k * (a.x12*a.x20 - a.x10*a.x22),
		x11: k * (a.x00*a.x22 - a.x02*a.x20),
		x12: k * (a.x02*a.x10 - a.x00*a.x12),
		x20: k * (a.x10*a.x21 - a.x11*a.x20),
		x21: k * (a.x01*a.x20 - a.x00*a.x21),
		x22: k * (a.x00*a.x11 - a.x01*a.x10),
	}
	// translation block: -A^-1 t
	i.x03 = -(i.x00*a.x03 + i.x01*a.x13 + i.x02*a.x23)
	i.x13 = -(i.x10*a.x03 + i.x11*a.x13 + i.x12*a.x23)
	i.x23 = -(i.x20*a.x03 + i.x21*a.x13 + i.x22*a.x23)
	return i
}

// MulBox transforms a bounding box, returning an axis-aligned box
// containing all transformed corners.
func (a m44) MulBox(b r3.Box) r3.Box {
	v := d3.Box(b).Vertices()
	out := d3.Box{Min: a.MulPosition(v[0]), Max: a.MulPosition(v[0])}
	for _, p := range v[1:] {
		out = out.Include(a.MulPosition(p))
	}
	return r3.Box(out)
}

// Rotate2d returns a 2d rotation transform, angle in radians.
func Rotate2d(theta float64) m33 {
	s, c := math.Sincos(theta)
	return m33{
		c, -s, 0,
		s, c, 0,
	}
}

// Translate2d returns a 2d translation transform.
func Translate2d(v r2.Vec) m33 {
	return m33{
		1, 0, v.X,
		0, 1, v.Y,
	}
}

// MulPosition multiplies a 2d position vector by the transform.
func (a m33) MulPosition(v r2.Vec) r2.Vec {
	return r2.Vec{
		X: a.x00*v.X + a.x01*v.Y + a.x02,
		Y: a.x10*v.X + a.x11*v.Y + a.x12,
	}
}

// Inverse inverts the affine 2d transform.
func (a m33) Inverse() m33 {
	det := a.x00*a.x11 - a.x01*a.x10
	if det == 0 {
		panic("singular transform")
	}
	k := 1 / det
	i := m33{
		x00: k * a.x11,
		x01: -k * a.x01,
		x10: -k * a.x10,
		x11: k * a.x00,
	}
	i.x02 = -(i.x00*a.x02 + i.x01*a.x12)
	i.x12 = -(i.x10*a.x02 + i.x11*a.x12)
	return i
}

// MulBox transforms a 2d bounding box.
func (a m33) MulBox(b r2.Box) r2.Box {
	v := d2.Box(b).Vertices()
	out := d2.Box{Min: a.MulPosition(v[0]), Max: a.MulPosition(v[0])}
	for _, p := range v[1:] {
		out = out.Include(a.MulPosition(p))
	}
	return r2.Box(out)
}
