package gridbin

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

// Polygon repair for pocket cutouts. Traced tool outlines arrive
// simplified but may still self-intersect or carry near-touching edges
// that produce degenerate extrusion topology. RepairRing runs a
// two-stage repair:
//
//  1. Self-intersections are resolved by splitting the ring at every
//     crossing and extracting the resulting simple loops.
//  2. A morphological open (inset then outset by pocketRepairEpsilon)
//     collapses thin peninsulas and near-touching edges. The opened
//     result is accepted only when it retains at least 90% of the
//     pre-open area, so legitimate thin features survive.
//
// Output rings are simple, CCW, with at least 3 points each.

const (
	ringWeldTol = 1e-7 // vertex identity quantum for loop extraction
	ringMinArea = 1e-6 // square mm; loops below this are noise
)

// RepairRing repairs one polygon ring. It returns one or more simple
// rings and flags describing what the repair did. An empty result with a
// nil error cannot happen: rings that vanish entirely are an error.
func RepairRing(pts []r2.Vec) (rings [][]r2.Vec, selfIntersecting, opened bool, err error) {
	pts = dedupRing(pts)
	if len(pts) < 3 {
		return nil, false, false, errors.New("ring has fewer than 3 distinct points")
	}

	rings = [][]r2.Vec{pts}
	if !ringIsSimple(pts) {
		selfIntersecting = true
		rings = untangleRing(pts)
		if len(rings) == 0 {
			return nil, true, false, errors.New("ring vanished resolving self-intersections")
		}
	}

	// Morphological open: collapses thin peninsulas and near-touching
	// edges that survive the untangle. Accepted only when it retains
	// enough area; a mitered erode+dilate round trip leaves well-formed
	// rings bit-identical in area, so `opened` flags real changes only.
	baseArea := totalArea(rings)
	openedRings := openRings(rings, pocketRepairEpsilon)
	if a := totalArea(openedRings); len(openedRings) > 0 && a >= pocketRepairMinArea*baseArea {
		changed := len(openedRings) != len(rings) ||
			math.Abs(a-baseArea) > 1e-9*math.Max(1, baseArea)
		rings = openedRings
		opened = changed
	}

	out := rings[:0]
	for _, r := range rings {
		r = dedupRing(r)
		if len(r) < 3 || math.Abs(ringArea(r)) < ringMinArea {
			continue
		}
		out = append(out, orientCCW(r))
	}
	if len(out) == 0 {
		return nil, selfIntersecting, opened, errors.New("ring vanished during repair")
	}
	return out, selfIntersecting, opened, nil
}

// dedupRing removes consecutive duplicate points, including a repeated
// closing point.
func dedupRing(pts []r2.Vec) []r2.Vec {
	out := make([]r2.Vec, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && nearEqual(out[len(out)-1], p) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && nearEqual(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func nearEqual(a, b r2.Vec) bool {
	return math.Abs(a.X-b.X) <= ringWeldTol && math.Abs(a.Y-b.Y) <= ringWeldTol
}

// ringArea returns the signed area (positive for CCW).
func ringArea(pts []r2.Vec) float64 {
	a := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func totalArea(rings [][]r2.Vec) float64 {
	a := 0.0
	for _, r := range rings {
		a += math.Abs(ringArea(r))
	}
	return a
}

func orientCCW(pts []r2.Vec) []r2.Vec {
	if ringArea(pts) >= 0 {
		return pts
	}
	rev := make([]r2.Vec, len(pts))
	for i, p := range pts {
		rev[len(pts)-1-i] = p
	}
	return rev
}

// ringIsSimple reports whether no two non-adjacent edges intersect.
func ringIsSimple(pts []r2.Vec) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue // adjacent edges share a vertex
			}
			if _, hit := segmentIntersect(a1, a2, pts[j], pts[(j+1)%n]); hit {
				return false
			}
		}
	}
	return true
}

// segmentIntersect returns the proper intersection point of segments
// a1a2 and b1b2, excluding shared endpoints.
func segmentIntersect(a1, a2, b1, b2 r2.Vec) (r2.Vec, bool) {
	d1 := r2.Sub(a2, a1)
	d2 := r2.Sub(b2, b1)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-15 {
		return r2.Vec{}, false // parallel or collinear
	}
	w := r2.Sub(b1, a1)
	t := (w.X*d2.Y - w.Y*d2.X) / denom
	u := (w.X*d1.Y - w.Y*d1.X) / denom
	const eps = 1e-12
	if t <= eps || t >= 1-eps || u <= eps || u >= 1-eps {
		return r2.Vec{}, false
	}
	return r2.Add(a1, r2.Scale(t, d1)), true
}

// untangleRing splits a self-intersecting ring at every edge crossing
// and extracts the simple loops. A bowtie yields its two lobes.
func untangleRing(pts []r2.Vec) [][]r2.Vec {
	n := len(pts)
	// collect intersection points per edge, sorted along the edge
	splits := make([][]r2.Vec, n)
	for i := 0; i < n; i++ {
		a1, a2 := pts[i], pts[(i+1)%n]
		for j := 0; j < n; j++ {
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			if p, hit := segmentIntersect(a1, a2, pts[j], pts[(j+1)%n]); hit {
				splits[i] = append(splits[i], p)
			}
		}
		sortAlong(a1, splits[i])
	}
	// rebuild the ring with crossings inserted as vertices
	seq := make([]r2.Vec, 0, n*2)
	for i := 0; i < n; i++ {
		seq = append(seq, pts[i])
		seq = append(seq, splits[i]...)
	}
	return extractLoops(seq)
}

func sortAlong(origin r2.Vec, pts []r2.Vec) {
	for i := 1; i < len(pts); i++ {
		for j := i; j > 0; j-- {
			if r2.Norm2(r2.Sub(pts[j], origin)) < r2.Norm2(r2.Sub(pts[j-1], origin)) {
				pts[j], pts[j-1] = pts[j-1], pts[j]
			} else {
				break
			}
		}
	}
}

// extractLoops walks the vertex sequence, splitting off a loop whenever
// a vertex repeats. Loops below the area floor are discarded.
func extractLoops(seq []r2.Vec) [][]r2.Vec {
	type key [2]int64
	quant := func(p r2.Vec) key {
		return key{int64(math.Round(p.X / ringWeldTol)), int64(math.Round(p.Y / ringWeldTol))}
	}
	var loops [][]r2.Vec
	stack := make([]r2.Vec, 0, len(seq))
	seen := make(map[key]int)
	for _, p := range seq {
		k := quant(p)
		if at, ok := seen[k]; ok {
			loop := make([]r2.Vec, len(stack)-at)
			copy(loop, stack[at:])
			for _, q := range stack[at+1:] {
				delete(seen, quant(q))
			}
			stack = stack[:at+1]
			if len(loop) >= 3 && math.Abs(ringArea(loop)) >= ringMinArea {
				loops = append(loops, loop)
			}
			continue
		}
		seen[k] = len(stack)
		stack = append(stack, p)
	}
	if len(stack) >= 3 && math.Abs(ringArea(stack)) >= ringMinArea {
		loops = append(loops, stack)
	}
	return loops
}

// openRings applies a morphological open: inset by eps, discard
// collapsed loops, then outset by eps. Either offset may introduce new
// self-intersections which are untangled again.
func openRings(rings [][]r2.Vec, eps float64) [][]r2.Vec {
	var out [][]r2.Vec
	for _, ring := range rings {
		inset := offsetRing(orientCCW(ring), -eps)
		for _, r := range cleanOffset(inset) {
			for _, opened := range cleanOffset(offsetRing(r, eps)) {
				out = append(out, opened)
			}
		}
	}
	return out
}

// cleanOffset untangles an offset ring and keeps only CCW loops of
// meaningful area. Offsetting a CCW ring leaves collapsed regions as CW
// loops, which are exactly the features the open is meant to remove.
func cleanOffset(ring []r2.Vec) [][]r2.Vec {
	ring = dedupRing(ring)
	if len(ring) < 3 {
		return nil
	}
	candidates := [][]r2.Vec{ring}
	if !ringIsSimple(ring) {
		candidates = untangleRing(ring)
	}
	var out [][]r2.Vec
	for _, c := range candidates {
		if ringArea(c) >= ringMinArea {
			out = append(out, c)
		}
	}
	return out
}

// offsetRing offsets a CCW ring outward by delta (inward when
// negative) using mitered edge offsets.
func offsetRing(pts []r2.Vec, delta float64) []r2.Vec {
	n := len(pts)
	out := make([]r2.Vec, 0, n)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		cur := pts[i]
		next := pts[(i+1)%n]

		n1 := edgeNormal(prev, cur)
		n2 := edgeNormal(cur, next)
		// intersection of the two offset edges
		a1 := r2.Add(prev, r2.Scale(delta, n1))
		a2 := r2.Add(cur, r2.Scale(delta, n1))
		b1 := r2.Add(cur, r2.Scale(delta, n2))
		b2 := r2.Add(next, r2.Scale(delta, n2))
		p, ok := lineIntersect(a1, a2, b1, b2)
		if !ok || r2.Norm(r2.Sub(p, cur)) > 16*math.Abs(delta) {
			// near-parallel edges or a spiked miter: use the mean normal
			mean := r2.Unit(r2.Add(n1, n2))
			p = r2.Add(cur, r2.Scale(delta, mean))
		}
		out = append(out, p)
	}
	return out
}

// edgeNormal returns the outward unit normal of edge ab on a CCW ring.
func edgeNormal(a, b r2.Vec) r2.Vec {
	d := r2.Unit(r2.Sub(b, a))
	return r2.Vec{X: d.Y, Y: -d.X}
}

// lineIntersect intersects the infinite lines a1a2 and b1b2.
func lineIntersect(a1, a2, b1, b2 r2.Vec) (r2.Vec, bool) {
	d1 := r2.Sub(a2, a1)
	d2 := r2.Sub(b2, b1)
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-12 {
		return r2.Vec{}, false
	}
	w := r2.Sub(b1, a1)
	t := (w.X*d2.Y - w.Y*d2.X) / denom
	return r2.Add(a1, r2.Scale(t, d1)), true
}
