package gridbin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func cutoutRequest() Request {
	return Request{GridX: 1, GridY: 1, HeightUnits: 3, WallThickness: 1.2, CutoutDepth: 10}
}

func TestPocketDepthClamp(t *testing.T) {
	req := cutoutRequest()
	assert.InDelta(t, 10, req.PocketDepth(), 1e-9)

	req.CutoutDepth = 100
	// ceiling: wallTop - base - floor margin = 21 - 4.75 - 2
	assert.InDelta(t, 14.25, req.PocketDepth(), 1e-9)

	req.CutoutDepth = 1
	assert.InDelta(t, pocketDepthMin, req.PocketDepth(), 1e-9)

	// a one-unit bin has no room for the floor margin; the minimum
	// depth still wins over the collapsed ceiling
	req.HeightUnits = 1
	req.CutoutDepth = 10
	assert.InDelta(t, pocketDepthMin, req.PocketDepth(), 1e-9)
}

func TestMagnetHoles(t *testing.T) {
	holes := MagnetHoles(cutoutRequest())
	require.NotNil(t, holes)

	// sockets sit at +-13mm from the cell center, opening at z=0
	assert.Negative(t, holes.Evaluate(r3.Vec{X: 13, Y: 13, Z: 1}))
	assert.Negative(t, holes.Evaluate(r3.Vec{X: -13, Y: 13, Z: 1}))
	assert.Positive(t, holes.Evaluate(r3.Vec{Z: 1}), "no socket at the cell center")
	assert.Positive(t, holes.Evaluate(r3.Vec{X: 13, Y: 13, Z: MagnetDepth + 1}), "socket depth is bounded")
}

func TestBinFrame(t *testing.T) {
	f := newBinFrame(cutoutRequest())
	// the image center maps to the bin origin, y flipped
	c := f.point(21, 21)
	assert.InDelta(t, 0, c.X, 1e-9)
	assert.InDelta(t, 0, c.Y, 1e-9)
	// image y grows downward, bin y grows away from the viewer
	p := f.point(21, 31)
	assert.InDelta(t, -10, p.Y, 1e-9)
}

func TestPocketCutouts(t *testing.T) {
	req := cutoutRequest()
	report := &Report{}
	polys := []ScaledPolygon{{
		ID:     "p1",
		Points: []Point{{X: 11, Y: 11}, {X: 31, Y: 11}, {X: 31, Y: 31}, {X: 11, Y: 31}},
	}}
	cutter := PocketCutouts(polys, req, report)
	require.NotNil(t, cutter)

	wallTop := req.WallTop()
	depth := req.PocketDepth()
	assert.Negative(t, cutter.Evaluate(r3.Vec{Z: wallTop - 1}), "pocket interior")
	assert.Positive(t, cutter.Evaluate(r3.Vec{Z: wallTop - depth - 1}), "below the pocket floor")
	assert.Positive(t, cutter.Evaluate(r3.Vec{X: 15, Z: wallTop - 1}), "outside the silhouette")

	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Built)
	assert.False(t, report.Results[0].Repaired)
}

func TestPocketCutoutsRepairsSelfIntersection(t *testing.T) {
	req := cutoutRequest()
	report := &Report{}
	polys := []ScaledPolygon{{
		ID:     "bowtie",
		Points: []Point{{X: 11, Y: 11}, {X: 31, Y: 31}, {X: 31, Y: 11}, {X: 11, Y: 31}},
	}}
	cutter := PocketCutouts(polys, req, report)
	require.NotNil(t, cutter)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Built)
	assert.True(t, report.Results[0].Repaired)
}

func TestPocketCutoutsDropsDegenerate(t *testing.T) {
	report := &Report{}
	polys := []ScaledPolygon{{ID: "line", Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 10}}}}
	cutter := PocketCutouts(polys, cutoutRequest(), report)
	assert.Nil(t, cutter)
	require.Len(t, report.Results, 1)
	assert.Error(t, report.Results[0].Err)
	assert.Len(t, report.Dropped(), 1)
}

func TestFingerHoleCutters(t *testing.T) {
	req := cutoutRequest()
	report := &Report{}
	polys := []ScaledPolygon{{
		ID:     "p1",
		Points: []Point{{X: 1, Y: 1}, {X: 41, Y: 1}, {X: 41, Y: 41}, {X: 1, Y: 41}},
		FingerHoles: []FingerHole{
			{ID: "circle", X: 21, Y: 21, Shape: Circle{Radius: 10}},
			{ID: "square", X: 6, Y: 6, Shape: Square{Half: 4}},
			{ID: "rect", X: 36, Y: 36, Rotation: 45, Shape: Rectangle{Width: 10, Height: 4}},
		},
	}}
	cutter := FingerHoleCutters(polys, req, report)
	require.NotNil(t, cutter)
	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.True(t, res.Built, res.ID)
	}

	wallTop := req.WallTop()
	depth := req.PocketDepth()
	// sphere dish crosses the rim plane at the bin center
	assert.Negative(t, cutter.Evaluate(r3.Vec{Z: wallTop - 0.5}))
	// square prism spans the pocket depth at (-15, 15)
	assert.Negative(t, cutter.Evaluate(r3.Vec{X: -15, Y: 15, Z: wallTop - depth/2}))
	assert.Positive(t, cutter.Evaluate(r3.Vec{X: -15, Y: 15, Z: wallTop - depth - 2}))
}

func TestFingerHoleMissingShape(t *testing.T) {
	report := &Report{}
	polys := []ScaledPolygon{{
		ID:          "p1",
		Points:      []Point{{X: 1, Y: 1}, {X: 41, Y: 1}, {X: 41, Y: 41}},
		FingerHoles: []FingerHole{{ID: "bad", X: 21, Y: 21}},
	}}
	cutter := FingerHoleCutters(polys, cutoutRequest(), report)
	assert.Nil(t, cutter)
	require.Len(t, report.Dropped(), 1)
}

func TestFingerHoleJSON(t *testing.T) {
	in := []byte(`{"id":"f1","x_mm":20,"y_mm":30,"shape":"rectangle","width_mm":12,"height_mm":6,"rotation":90}`)
	var fh FingerHole
	require.NoError(t, json.Unmarshal(in, &fh))
	assert.Equal(t, Rectangle{Width: 12, Height: 6}, fh.Shape)
	assert.Equal(t, 90.0, fh.Rotation)

	// squares reuse the radius as half-width, rectangles fall back to 2r
	var sq FingerHole
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s","x_mm":0,"y_mm":0,"shape":"square","radius_mm":5}`), &sq))
	assert.Equal(t, Square{Half: 5}, sq.Shape)

	var rect FingerHole
	require.NoError(t, json.Unmarshal([]byte(`{"id":"r","x_mm":0,"y_mm":0,"shape":"rectangle","radius_mm":5}`), &rect))
	assert.Equal(t, Rectangle{Width: 10, Height: 10}, rect.Shape)

	// default shape is a circle
	var c FingerHole
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","x_mm":0,"y_mm":0,"radius_mm":7}`), &c))
	assert.Equal(t, Circle{Radius: 7}, c.Shape)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"x","shape":"hexagon"}`), &c))

	out, err := json.Marshal(fh)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"f1","x_mm":20,"y_mm":30,"shape":"rectangle","width_mm":12,"height_mm":6,"rotation":90}`, string(out))
}
