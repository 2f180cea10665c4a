package gridbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRoundedRectRing(t *testing.T) {
	ring := RoundedRectRing(42, 42, 3.75, circleSegments)
	require.Len(t, ring, 4*circleSegments)
	assert.Positive(t, ringArea(ring), "outline must be counterclockwise")
	for _, p := range ring {
		assert.LessOrEqual(t, p.X, 21.0+1e-9)
		assert.GreaterOrEqual(t, p.X, -21.0-1e-9)
		assert.LessOrEqual(t, p.Y, 21.0+1e-9)
		assert.GreaterOrEqual(t, p.Y, -21.0-1e-9)
	}
	// corner deficit of a rounded rect: (4-pi)r^2
	assert.InDelta(t, 42*42-(4-3.14159265)*3.75*3.75, ringArea(ring), 1.0)
}

func TestRoundedRectRingClampsRadius(t *testing.T) {
	ring := RoundedRectRing(10, 10, 50, circleSegments)
	require.Len(t, ring, 4*circleSegments)
	for _, p := range ring {
		assert.LessOrEqual(t, p.X*p.X+p.Y*p.Y, 5.0*5.0+1e-6, "oversized radius degenerates to a circle")
	}
}

func TestBaseUnitTaper(t *testing.T) {
	const w = GridPitch - OuterClearance // 41.5
	unit := BaseUnit(w, w)

	// bottom layer is inset from the cell footprint
	assert.Positive(t, unit.Evaluate(r3.Vec{X: 20, Z: 0.3}))
	// top of the base flares out to the full footprint
	assert.Negative(t, unit.Evaluate(r3.Vec{X: 20, Z: BaseHeight - 0.05}))
	// interior
	assert.Negative(t, unit.Evaluate(r3.Vec{Z: BaseHeight / 2}))
	// nothing above the base
	assert.Positive(t, unit.Evaluate(r3.Vec{Z: BaseHeight + 1}))
	// nothing below z=0
	assert.Positive(t, unit.Evaluate(r3.Vec{Z: -1}))
}

func TestShellWall(t *testing.T) {
	req := Request{GridX: 1, GridY: 1, HeightUnits: 3, WallThickness: 1.2}
	s, err := Shell(req)
	require.NoError(t, err)

	wallTop := req.WallTop()
	assert.Negative(t, s.Evaluate(r3.Vec{Z: wallTop / 2}), "wall block is solid before carving")
	assert.Positive(t, s.Evaluate(r3.Vec{Z: wallTop + 0.5}), "no lip without stacking_lip")
	assert.Positive(t, s.Evaluate(r3.Vec{X: 25, Z: wallTop / 2}), "outside the footprint")
}

func TestShellStackingLip(t *testing.T) {
	req := Request{GridX: 1, GridY: 1, HeightUnits: 3, WallThickness: 1.2, StackingLip: true}
	s, err := Shell(req)
	require.NoError(t, err)

	wallTop := req.WallTop()
	outerW, _ := req.OuterSize()
	// lip wall material just above the rim, near the outer face
	assert.Negative(t, s.Evaluate(r3.Vec{X: outerW/2 - 0.5, Z: wallTop + 0.1}))
	// the groove notch opens the lip center
	assert.Positive(t, s.Evaluate(r3.Vec{Z: wallTop + 0.1}))
	// floor under the notch stays solid
	assert.Negative(t, s.Evaluate(r3.Vec{Z: wallTop - 0.5}))
}

func TestShellMultiCellBases(t *testing.T) {
	req := Request{GridX: 2, GridY: 1, HeightUnits: 2, WallThickness: 1.2}
	s, err := Shell(req)
	require.NoError(t, err)

	// each cell has its own foot; between feet at foot height is void
	assert.Negative(t, s.Evaluate(r3.Vec{X: -GridPitch / 2, Z: 1}))
	assert.Negative(t, s.Evaluate(r3.Vec{X: GridPitch / 2, Z: 1}))
	assert.Positive(t, s.Evaluate(r3.Vec{X: 0, Z: 0.3}), "gap between the two tapered feet")
}
