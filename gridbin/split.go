package gridbin

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tracefinity/binforge/solid"
)

// SplitPoints returns the interior cut coordinates, in the bin-centered
// frame, needed to divide a row of gridCount cells spanning totalMM so
// that every piece fits on a print bed bedSize wide. An empty slice
// means the axis fits whole.
//
// Cells are never cut through: pieces are whole multiples of the grid
// pitch, with remainder cells assigned to the earliest pieces.
func SplitPoints(totalMM float64, gridCount int, bedSize float64) []float64 {
	if bedSize <= 0 || totalMM <= bedSize || gridCount <= 1 {
		return nil
	}
	cellsPerPiece := int(bedSize / GridPitch)
	if cellsPerPiece < 1 {
		cellsPerPiece = 1
	}
	if cellsPerPiece >= gridCount {
		return nil
	}
	pieces := (gridCount + cellsPerPiece - 1) / cellsPerPiece
	base := gridCount / pieces
	extra := gridCount % pieces
	sizes := make([]int, pieces)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	points := make([]float64, 0, pieces-1)
	pos := -totalMM / 2
	for _, n := range sizes[:len(sizes)-1] {
		pos += float64(n) * GridPitch
		points = append(points, pos)
	}
	return points
}

// SplitPlan holds the per-axis cut coordinates for one bin.
type SplitPlan struct {
	X []float64
	Y []float64
}

// Empty reports whether no cutting is needed.
func (p SplitPlan) Empty() bool {
	return len(p.X) == 0 && len(p.Y) == 0
}

// Pieces is the number of parts the plan will produce.
func (p SplitPlan) Pieces() int {
	return (len(p.X) + 1) * (len(p.Y) + 1)
}

// PlanSplit decides whether and where a bin must be cut to fit the
// print bed. A bin that overflows one axis but fits across the bed
// diagonal is left whole, since it can be printed rotated 45 degrees.
// Requesting a split with a bed narrower than a single grid cell is a
// configuration error.
func PlanSplit(req Request) (SplitPlan, error) {
	if req.BedSize <= 0 {
		return SplitPlan{}, nil
	}
	// Full-pitch spans, not the clearance-reduced wall footprint: cut
	// planes must land exactly on cell boundaries, clear of the foot
	// taper of the neighbouring cell.
	w := float64(req.GridX) * GridPitch
	d := float64(req.GridY) * GridPitch
	if w <= req.BedSize && d <= req.BedSize {
		return SplitPlan{}, nil
	}
	if (w+d)/math.Sqrt2 <= req.BedSize {
		return SplitPlan{}, nil
	}
	if req.BedSize < GridPitch {
		return SplitPlan{}, errors.Errorf("bed size %.1fmm cannot fit a %.0fmm grid cell", req.BedSize, GridPitch)
	}
	return SplitPlan{
		X: SplitPoints(w, req.GridX, req.BedSize),
		Y: SplitPoints(d, req.GridY, req.BedSize),
	}, nil
}

// SplitSolid cuts s along the plan's X planes, then cuts each slab
// along the Y planes. Pieces are ordered column-major, left to right
// then front to back.
func SplitSolid(s solid.SDF3, plan SplitPlan) []solid.SDF3 {
	slabs := cutAxis(s, plan.X, r3.Vec{X: 1})
	if len(plan.Y) == 0 {
		return slabs
	}
	pieces := make([]solid.SDF3, 0, plan.Pieces())
	for _, slab := range slabs {
		pieces = append(pieces, cutAxis(slab, plan.Y, r3.Vec{Y: 1})...)
	}
	return pieces
}

// cutAxis slices s at each coordinate along axis, keeping the lower
// side at each cut and carrying the remainder forward.
func cutAxis(s solid.SDF3, points []float64, axis r3.Vec) []solid.SDF3 {
	if len(points) == 0 {
		return []solid.SDF3{s}
	}
	out := make([]solid.SDF3, 0, len(points)+1)
	rest := s
	for _, c := range points {
		anchor := r3.Scale(c, axis)
		out = append(out, solid.Cut3D(rest, anchor, r3.Scale(-1, axis)))
		rest = solid.Cut3D(rest, anchor, axis)
	}
	return append(out, rest)
}
