package gridbin

import (
	"math"

	"github.com/tracefinity/binforge/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// RoundedRectRing returns the CCW outline of a w×d rectangle with
// corner radius r, centred at the origin. Corners are tessellated as
// circular arcs with segsPerQuarter segments. An oversized radius is
// clamped, never an error.
func RoundedRectRing(w, d, r float64, segsPerQuarter int) []r2.Vec {
	if segsPerQuarter < 3 {
		segsPerQuarter = 3
	}
	rmax := math.Min(w, d)/2 - 1e-9
	if r > rmax {
		r = rmax
	}
	if r < 0 {
		r = 0
	}
	cx, cy := w/2-r, d/2-r
	corners := [4]r2.Vec{
		{X: -cx, Y: -cy},
		{X: cx, Y: -cy},
		{X: cx, Y: cy},
		{X: -cx, Y: cy},
	}
	pts := make([]r2.Vec, 0, 4*segsPerQuarter)
	for i, c := range corners {
		base := float64(i)*math.Pi/2 + math.Pi
		for j := 0; j < segsPerQuarter; j++ {
			a := base + float64(j)*(math.Pi/2)/float64(segsPerQuarter)
			pts = append(pts, r2.Vec{
				X: c.X + r*math.Cos(a),
				Y: c.Y + r*math.Sin(a),
			})
		}
	}
	return pts
}

// TaperedLayer is one extruded slice of a layer stack. The cross section
// is linearly scaled from 1 at the bottom to TopScale at the top.
type TaperedLayer struct {
	Ring     []r2.Vec
	Height   float64
	TopScale r2.Vec
}

// straight reports whether the layer has no taper.
func (l TaperedLayer) straight() bool {
	const tol = 1e-12
	return math.Abs(l.TopScale.X-1) < tol && math.Abs(l.TopScale.Y-1) < tol
}

// LayerStack extrudes layers bottom-to-top starting at z0, stacked with
// zero gap, and returns their union.
func LayerStack(layers []TaperedLayer, z0 float64) solid.SDF3 {
	z := z0
	parts := make([]solid.SDF3, 0, len(layers))
	for _, l := range layers {
		ring := solid.Polygon(l.Ring)
		var s solid.SDF3
		if l.straight() {
			s = solid.Extrude3D(ring, l.Height)
		} else {
			s = solid.ScaleExtrude3D(ring, l.Height, l.TopScale)
		}
		s = solid.Transform3D(s, solid.Translate3d(r3.Vec{Z: z + l.Height/2}))
		parts = append(parts, s)
		z += l.Height
	}
	return solid.Union3D(parts...)
}
