package solid

import (
	"math"

	"github.com/tracefinity/binforge/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// polygon is an SDF2 made from a closed set of line segments.
type polygon struct {
	vertex []r2.Vec  // vertices
	vector []r2.Vec  // unit line vectors
	length []float64 // line lengths
	bb     r2.Box    // bounding box
}

// Polygon returns an SDF2 made from a closed set of line segments.
// The winding-number inside test makes the result orientation independent:
// clockwise and counter-clockwise rings evaluate identically.
func Polygon(vertex []r2.Vec) SDF2 {
	s := polygon{}

	n := len(vertex)
	if n < 3 {
		panic("number of vertices < 3")
	}

	// Close the loop (if necessary)
	s.vertex = vertex
	if !d2.EqualWithin(vertex[0], vertex[n-1], tolerance) {
		s.vertex = append(s.vertex, vertex[0])
	}

	// allocate pre-calculated line segment info
	nsegs := len(s.vertex) - 1
	s.vector = make([]r2.Vec, nsegs)
	s.length = make([]float64, nsegs)

	vmin := s.vertex[0]
	vmax := s.vertex[0]

	for i := 0; i < nsegs; i++ {
		l := r2.Sub(s.vertex[i+1], s.vertex[i])
		s.length[i] = r2.Norm(l)
		s.vector[i] = r2.Unit(l)
		vmin = d2.MinElem(vmin, s.vertex[i])
		vmax = d2.MaxElem(vmax, s.vertex[i])
	}

	s.bb = r2.Box{Min: vmin, Max: vmax}
	return &s
}

// Evaluate returns the minimum distance for a 2d polygon.
func (s *polygon) Evaluate(p r2.Vec) float64 {
	dd := math.MaxFloat64 // d^2 to polygon (>0)
	wn := 0               // winding number (inside/outside)

	// iterate over the line segments
	nsegs := len(s.vertex) - 1
	pb := r2.Sub(p, s.vertex[0])

	for i := 0; i < nsegs; i++ {
		a := s.vertex[i]
		b := s.vertex[i+1]

		pa := pb
		pb = r2.Sub(p, b)

		t := r2.Dot(pa, s.vector[i])                            // t-parameter of projection onto line
		dn := r2.Dot(pa, r2.Vec{X: s.vector[i].Y, Y: -s.vector[i].X}) // normal distance from p to line

		// Distance to line segment
		if t < 0 {
			dd = math.Min(dd, r2.Norm2(pa)) // distance to vertex[0] of line
		} else if t > s.length[i] {
			dd = math.Min(dd, r2.Norm2(pb)) // distance to vertex[1] of line
		} else {
			dd = math.Min(dd, dn*dn) // normal distance to line
		}

		// Is the point in the polygon?
		// See: http://geomalgorithms.com/a03-_inclusion.html
		if a.Y <= p.Y {
			if b.Y > p.Y { // upward crossing
				if dn < 0 { // p is to the left of the line segment
					wn++ // up intersect
				}
			}
		} else {
			if b.Y <= p.Y { // downward crossing
				if dn > 0 { // p is to the right of the line segment
					wn-- // down intersect
				}
			}
		}
	}

	// normalise d*d to d
	d := math.Sqrt(dd)
	if wn != 0 {
		// p is inside the polygon
		return -d
	}
	return d
}

// Bounds returns the bounding box of a 2d polygon.
func (s *polygon) Bounds() r2.Box {
	return s.bb
}

// union2 is a union of multiple SDF2s.
type union2 struct {
	sdf []SDF2
	bb  r2.Box
}

// Union2D returns the union of one or more SDF2 objects.
func Union2D(sdf ...SDF2) SDF2 {
	if len(sdf) == 0 {
		panic("union requires at least 1 sdf")
	}
	if len(sdf) == 1 {
		return sdf[0]
	}
	s := union2{sdf: sdf}
	bb := d2.Box(sdf[0].Bounds())
	for _, x := range sdf[1:] {
		if x == nil {
			panic("nil sdf argument to Union2D")
		}
		bb = bb.Extend(d2.Box(x.Bounds()))
	}
	s.bb = r2.Box(bb)
	return &s
}

// Evaluate returns the minimum distance to an SDF2 union.
func (s *union2) Evaluate(p r2.Vec) float64 {
	d := s.sdf[0].Evaluate(p)
	for _, x := range s.sdf[1:] {
		d = math.Min(d, x.Evaluate(p))
	}
	return d
}

// Bounds returns the bounding box of an SDF2 union.
func (s *union2) Bounds() r2.Box {
	return s.bb
}

// diff2 is the difference of two SDF2s, s0 - s1. Used by even-odd
// contour nesting to carve letter holes out of glyph outlines.
type diff2 struct {
	s0, s1 SDF2
	bb     r2.Box
}

// Difference2D returns the difference of two SDF2s, s0 - s1.
func Difference2D(s0, s1 SDF2) SDF2 {
	if s0 == nil || s1 == nil {
		panic("nil argument to Difference2D")
	}
	return &diff2{s0: s0, s1: s1, bb: s0.Bounds()}
}

// Evaluate returns the minimum distance to the SDF2 difference.
func (s *diff2) Evaluate(p r2.Vec) float64 {
	return math.Max(s.s0.Evaluate(p), -s.s1.Evaluate(p))
}

// Bounds returns the bounding box of the SDF2 difference.
func (s *diff2) Bounds() r2.Box {
	return s.bb
}

// evenOddPoly is an SDF2 over multiple rings with even-odd membership.
// A point is inside when a ray crosses the rings an odd number of
// times, so nested rings alternate between solid and hole regardless of
// their orientation.
type evenOddPoly struct {
	rings []SDF2
	bb    r2.Box
}

// EvenOddPolygon returns an SDF2 built from a set of closed rings with
// even-odd fill. Nested rings carve holes; holes within holes fill again.
func EvenOddPolygon(rings [][]r2.Vec) SDF2 {
	if len(rings) == 0 {
		panic("even-odd polygon requires at least 1 ring")
	}
	s := evenOddPoly{rings: make([]SDF2, len(rings))}
	for i, ring := range rings {
		s.rings[i] = Polygon(ring)
	}
	bb := d2.Box(s.rings[0].Bounds())
	for _, r := range s.rings[1:] {
		bb = bb.Extend(d2.Box(r.Bounds()))
	}
	s.bb = r2.Box(bb)
	return &s
}

// Evaluate returns the signed distance under even-odd membership: the
// minimum absolute ring distance, negative when inside an odd number of
// rings.
func (s *evenOddPoly) Evaluate(p r2.Vec) float64 {
	d := math.MaxFloat64
	inside := false
	for _, ring := range s.rings {
		rd := ring.Evaluate(p)
		if rd < 0 {
			inside = !inside
		}
		d = math.Min(d, math.Abs(rd))
	}
	if inside {
		return -d
	}
	return d
}

// Bounds returns the bounding box of an even-odd polygon.
func (s *evenOddPoly) Bounds() r2.Box {
	return s.bb
}

// transform2 is an SDF2 transformed with a 3x3 matrix.
type transform2 struct {
	sdf  SDF2
	mInv m33
	bb   r2.Box
}

// Transform2D applies a transformation matrix to an SDF2.
// Distance is *not* preserved with scaling.
func Transform2D(sdf SDF2, m m33) SDF2 {
	return &transform2{
		sdf:  sdf,
		mInv: m.Inverse(),
		bb:   m.MulBox(sdf.Bounds()),
	}
}

// Evaluate returns the minimum distance to a transformed SDF2.
func (s *transform2) Evaluate(p r2.Vec) float64 {
	return s.sdf.Evaluate(s.mInv.MulPosition(p))
}

// Bounds returns the bounding box of a transformed SDF2.
func (s *transform2) Bounds() r2.Box {
	return s.bb
}
