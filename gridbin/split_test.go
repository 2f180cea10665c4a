package gridbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/tracefinity/binforge/solid"
)

func TestSplitPoints(t *testing.T) {
	// 3 cells on a 50mm bed: one cell per piece, cuts at the pitch lines
	pts := SplitPoints(126, 3, 50)
	require.Len(t, pts, 2)
	assert.InDelta(t, -21, pts[0], 1e-9)
	assert.InDelta(t, 21, pts[1], 1e-9)

	// fits whole
	assert.Empty(t, SplitPoints(84, 2, 200))

	// 3 cells on a 130mm bed: three cells per piece, no cut
	assert.Empty(t, SplitPoints(126, 3, 130))

	// remainder cells go to the earliest pieces
	pts = SplitPoints(210, 5, 100) // 2 per piece, sizes 2,2,1
	require.Len(t, pts, 2)
	assert.InDelta(t, -21, pts[0], 1e-9)
	assert.InDelta(t, 63, pts[1], 1e-9)
}

func TestPlanSplitFitsWhole(t *testing.T) {
	req := Request{GridX: 2, GridY: 1, HeightUnits: 3, WallThickness: 1.2, BedSize: 200}
	plan, err := PlanSplit(req)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Equal(t, 1, plan.Pieces())
}

func TestPlanSplitDiagonal(t *testing.T) {
	// 3x1 bin: 126mm wide, overflows a 120mm bed straight on, but
	// (126+42)/sqrt(2) = 118.8mm fits rotated 45 degrees
	req := Request{GridX: 3, GridY: 1, HeightUnits: 3, WallThickness: 1.2, BedSize: 120}
	plan, err := PlanSplit(req)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
}

func TestPlanSplitCutsOnCellBoundaries(t *testing.T) {
	// cuts derive from the full 42mm pitch, not the clearance-reduced
	// wall footprint: a 3x1 bin splits at exactly +-21 so no plane
	// grazes the neighbouring cell's foot taper
	req := Request{GridX: 3, GridY: 1, HeightUnits: 2, WallThickness: 1.2, BedSize: 50}
	plan, err := PlanSplit(req)
	require.NoError(t, err)
	require.Len(t, plan.X, 2)
	assert.InDelta(t, -21, plan.X[0], 1e-9)
	assert.InDelta(t, 21, plan.X[1], 1e-9)
}

func TestPlanSplitBedTooSmall(t *testing.T) {
	req := Request{GridX: 2, GridY: 1, HeightUnits: 3, WallThickness: 1.2, BedSize: 30}
	_, err := PlanSplit(req)
	assert.Error(t, err, "a bed under one grid cell cannot hold any piece")
}

func TestPlanSplitCuts(t *testing.T) {
	req := Request{GridX: 4, GridY: 1, HeightUnits: 3, WallThickness: 1.2, BedSize: 100}
	plan, err := PlanSplit(req)
	require.NoError(t, err)
	require.Len(t, plan.X, 1)
	assert.Empty(t, plan.Y)
	assert.Equal(t, 2, plan.Pieces())
}

func TestSplitSolid(t *testing.T) {
	box := solid.Box(r3.Vec{X: 100, Y: 40, Z: 10})
	pieces := SplitSolid(box, SplitPlan{X: []float64{0}})
	require.Len(t, pieces, 2)

	left, right := pieces[0], pieces[1]
	assert.Negative(t, left.Evaluate(r3.Vec{X: -25}))
	assert.Positive(t, left.Evaluate(r3.Vec{X: 25}))
	assert.Negative(t, right.Evaluate(r3.Vec{X: 25}))
	assert.Positive(t, right.Evaluate(r3.Vec{X: -25}))
}

func TestSplitSolidBothAxes(t *testing.T) {
	box := solid.Box(r3.Vec{X: 100, Y: 100, Z: 10})
	pieces := SplitSolid(box, SplitPlan{X: []float64{0}, Y: []float64{0}})
	require.Len(t, pieces, 4)
	// column-major: left-front, left-back, right-front, right-back
	assert.Negative(t, pieces[0].Evaluate(r3.Vec{X: -25, Y: -25}))
	assert.Negative(t, pieces[1].Evaluate(r3.Vec{X: -25, Y: 25}))
	assert.Negative(t, pieces[2].Evaluate(r3.Vec{X: 25, Y: -25}))
	assert.Negative(t, pieces[3].Evaluate(r3.Vec{X: 25, Y: 25}))
	assert.Positive(t, pieces[0].Evaluate(r3.Vec{X: 25, Y: 25}))
}
