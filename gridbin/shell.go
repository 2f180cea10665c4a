package gridbin

import (
	"github.com/pkg/errors"
	"github.com/tracefinity/binforge/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// BaseUnit builds the tapered gridfinity foot for one cell, centred at
// the origin, spanning z=0..BaseHeight. Three layers bottom to top:
// taper in, straight, taper out to the full cell footprint.
func BaseUnit(outerW, outerD float64) solid.SDF3 {
	midW := outerW - 2*baseLayerTop
	midD := outerD - 2*baseLayerTop
	botW := midW - 2*baseLayerBottom
	botD := midD - 2*baseLayerBottom

	layers := []TaperedLayer{
		{
			Ring:     RoundedRectRing(botW, botD, CornerRadius, circleSegments),
			Height:   baseLayerBottom,
			TopScale: r2.Vec{X: midW / botW, Y: midD / botD},
		},
		{
			Ring:     RoundedRectRing(midW, midD, CornerRadius, circleSegments),
			Height:   baseLayerMiddle,
			TopScale: r2.Vec{X: 1, Y: 1},
		},
		{
			Ring:     RoundedRectRing(midW, midD, CornerRadius, circleSegments),
			Height:   baseLayerTop,
			TopScale: r2.Vec{X: outerW / midW, Y: outerD / midD},
		},
	}
	return LayerStack(layers, 0)
}

// stackingLipNotch builds the inner notch solid subtracted from the lip
// slab, in notch-local coordinates where z=0 is the notch bottom
// (wallTop − lipD3 − lipD4 in bin coordinates). Width profile bottom to
// top: outer → outer−2·d4 (taper in), straight, → outer−2·d0 (taper
// out), straight, → outer (taper out to the lip top opening).
func stackingLipNotch(outerW, outerD float64) solid.SDF3 {
	innerW := outerW - 2*lipD4
	innerD := outerD - 2*lipD4
	midW := outerW - 2*lipD0
	midD := outerD - 2*lipD0

	outerRing := RoundedRectRing(outerW, outerD, CornerRadius, circleSegments)
	innerRing := RoundedRectRing(innerW, innerD, CornerRadius, circleSegments)
	midRing := RoundedRectRing(midW, midD, CornerRadius, circleSegments)

	layers := []TaperedLayer{
		{Ring: outerRing, Height: lipD4, TopScale: r2.Vec{X: innerW / outerW, Y: innerD / outerD}},
		{Ring: innerRing, Height: lipD3, TopScale: r2.Vec{X: 1, Y: 1}},
		{Ring: innerRing, Height: lipD2, TopScale: r2.Vec{X: midW / innerW, Y: midD / innerD}},
		{Ring: midRing, Height: lipD1, TopScale: r2.Vec{X: 1, Y: 1}},
		{Ring: midRing, Height: lipD0, TopScale: r2.Vec{X: outerW / midW, Y: outerD / midD}},
	}
	return LayerStack(layers, 0)
}

// Shell builds the bare bin solid: one base unit per grid cell on the
// 42 mm pitch, the outer wall up to WallTop, and the groove-cut stacking
// lip above it when requested. No cutters are applied here.
func Shell(req Request) (s solid.SDF3, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("shell construction: %v", r)
		}
	}()

	cellW := GridPitch - OuterClearance
	outerW, outerD := req.OuterSize()
	wallTop := req.WallTop()

	parts := make([]solid.SDF3, 0, req.GridX*req.GridY+2)
	for iy := 0; iy < req.GridY; iy++ {
		for ix := 0; ix < req.GridX; ix++ {
			cx := (float64(ix) - float64(req.GridX-1)/2) * GridPitch
			cy := (float64(iy) - float64(req.GridY-1)/2) * GridPitch
			unit := BaseUnit(cellW, cellW)
			parts = append(parts, solid.Transform3D(unit, solid.Translate3d(r3.Vec{X: cx, Y: cy})))
		}
	}

	wallRing := solid.Polygon(RoundedRectRing(outerW, outerD, CornerRadius, circleSegments))
	wall := solid.Extrude3D(wallRing, wallTop-BaseHeight)
	wall = solid.Transform3D(wall, solid.Translate3d(r3.Vec{Z: BaseHeight + (wallTop-BaseHeight)/2}))
	parts = append(parts, wall)

	if req.StackingLip {
		parts = append(parts, stackingLip(outerW, outerD, wallTop))
	}
	return solid.Union3D(parts...), nil
}

// stackingLip returns the lip slab above wallTop with the groove notch
// already subtracted. The notch reaches lipD3+lipD4 below wallTop but is
// cut from the slab only, so the floor at wallTop stays flat.
func stackingLip(outerW, outerD, wallTop float64) solid.SDF3 {
	const lipTotal = lipD0 + lipD1 + lipD2
	ring := solid.Polygon(RoundedRectRing(outerW, outerD, CornerRadius, circleSegments))
	slab := solid.Extrude3D(ring, lipTotal)
	slab = solid.Transform3D(slab, solid.Translate3d(r3.Vec{Z: wallTop + lipTotal/2}))

	notch := stackingLipNotch(outerW, outerD)
	notch = solid.Transform3D(notch, solid.Translate3d(r3.Vec{Z: wallTop - lipD3 - lipD4}))
	return solid.Difference3D(slab, notch)
}
