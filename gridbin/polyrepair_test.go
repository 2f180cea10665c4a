package gridbin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestRepairRingSimple(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	rings, selfIntersecting, opened, err := RepairRing(square)
	require.NoError(t, err)
	assert.False(t, selfIntersecting)
	assert.False(t, opened)
	require.Len(t, rings, 1)
	assert.InDelta(t, 100, ringArea(rings[0]), 1e-6)
}

func TestRepairRingClockwiseInput(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}
	rings, _, _, err := RepairRing(square)
	require.NoError(t, err)
	require.Len(t, rings, 1)
	assert.Positive(t, ringArea(rings[0]), "output is always counterclockwise")
}

func TestRepairRingBowtie(t *testing.T) {
	bowtie := []r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 2}, {X: 2, Y: 0}, {X: 0, Y: 2}}
	rings, selfIntersecting, _, err := RepairRing(bowtie)
	require.NoError(t, err)
	assert.True(t, selfIntersecting)
	require.Len(t, rings, 2, "bowtie splits into two lobes at the crossing")

	total := 0.0
	for _, r := range rings {
		area := ringArea(r)
		assert.Positive(t, area)
		total += area
	}
	// two unit triangles; repair must retain at least 90% of the area
	assert.Greater(t, total, 0.9*2.0)
}

func TestRepairRingDuplicatePoints(t *testing.T) {
	ring := []r2.Vec{
		{X: 0, Y: 0}, {X: 0, Y: 0},
		{X: 10, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 10},
		{X: 0, Y: 10}, {X: 0, Y: 0},
	}
	rings, selfIntersecting, _, err := RepairRing(ring)
	require.NoError(t, err)
	assert.False(t, selfIntersecting)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 4)
}

func TestRepairRingDegenerate(t *testing.T) {
	_, _, _, err := RepairRing([]r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}})
	assert.Error(t, err)

	_, _, _, err = RepairRing([]r2.Vec{{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 0}})
	assert.Error(t, err)
}

func TestOffsetRingRoundTrip(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}
	eroded := offsetRing(square, -1)
	require.Len(t, eroded, 4)
	assert.InDelta(t, 64, ringArea(eroded), 1e-6)
	dilated := offsetRing(eroded, 1)
	assert.InDelta(t, 100, ringArea(dilated), 1e-6)
}
