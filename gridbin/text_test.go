package gridbin

import (
	"math"
	"sort"
	"testing"

	"github.com/golang/freetype/truetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/spatial/r3"
)

func testFont(t *testing.T) *truetype.Font {
	t.Helper()
	fnt, err := truetype.Parse(goregular.TTF)
	require.NoError(t, err)
	return fnt
}

func TestTraceContoursSquare(t *testing.T) {
	inside := func(x, y int) bool {
		return x >= 3 && x <= 6 && y >= 3 && y <= 6
	}
	loops := traceContours(10, 10, inside)
	require.Len(t, loops, 1)
	require.GreaterOrEqual(t, len(loops[0]), 4)

	// contour encloses the filled block: 3x3 of solid cells plus the
	// half-cell fringe where the field crosses zero
	area := math.Abs(ringArea(loops[0]))
	assert.Greater(t, area, 9.0)
	assert.Less(t, area, 25.0)
}

func TestTraceContoursHole(t *testing.T) {
	inside := func(x, y int) bool {
		if x >= 7 && x <= 9 && y >= 7 && y <= 9 {
			return false // hole
		}
		return x >= 3 && x <= 13 && y >= 3 && y <= 13
	}
	loops := traceContours(17, 17, inside)
	assert.Len(t, loops, 2, "outer outline plus hole contour")
}

func TestTextRingsTwoLetters(t *testing.T) {
	rings, err := textRings("AB", 8, testFont(t))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rings), 2)

	// project each ring onto x and merge; two letters leave two
	// disjoint spans with a gap between them
	type span struct{ lo, hi float64 }
	spans := make([]span, 0, len(rings))
	for _, ring := range rings {
		s := span{lo: math.Inf(1), hi: math.Inf(-1)}
		for _, p := range ring {
			s.lo = math.Min(s.lo, p.X)
			s.hi = math.Max(s.hi, p.X)
		}
		spans = append(spans, s)
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].lo < spans[j].lo })
	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.lo <= last.hi {
			if s.hi > last.hi {
				last.hi = s.hi
			}
			continue
		}
		merged = append(merged, s)
	}
	assert.Len(t, merged, 2, "expected two disjoint letter outlines")

	// glyphs are roughly the requested height
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, ring := range rings {
		for _, p := range ring {
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}
	assert.InDelta(t, 8, maxY-minY, 3)
}

func TestTextRingsEmptyText(t *testing.T) {
	_, err := textRings("   ", 8, testFont(t))
	assert.Error(t, err)
}

func TestTextCutters(t *testing.T) {
	req := cutoutRequest()
	req.Labels = []TextLabel{
		{Text: "A1", X: 21, Y: 21, FontSize: 6, Depth: 1},
	}
	report := &Report{}
	recessed, embossed := TextCutters(req, fontPathsFixture(), report)
	require.NotNil(t, recessed)
	assert.Nil(t, embossed)
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Built)

	wallTop := req.WallTop()
	b := recessed.Bounds()
	assert.Less(t, b.Min.Z, wallTop)
	assert.InDelta(t, wallTop+cutterOvershoot/2, b.Max.Z, 0.1, "recess cuts down from the rim")
}

func TestTextCuttersEmboss(t *testing.T) {
	req := cutoutRequest()
	req.Labels = []TextLabel{
		{Text: "B", X: 21, Y: 21, FontSize: 6, Depth: 1.2, Emboss: true},
	}
	report := &Report{}
	recessed, embossed := TextCutters(req, fontPathsFixture(), report)
	assert.Nil(t, recessed)
	require.NotNil(t, embossed)

	wallTop := req.WallTop()
	b := embossed.Bounds()
	assert.InDelta(t, wallTop, b.Min.Z, 0.1, "emboss sits on the rim")
	assert.InDelta(t, wallTop+1.2, b.Max.Z, 0.1)
	assert.True(t, hasInk(embossed), "emboss midplane holds solid glyph material")
}

// fontPathsFixture forces the embedded fallback font so tests do not
// depend on system font files.
func fontPathsFixture() FontPaths {
	return FontPaths{}
}

// hasInk scans the solid's midplane for any interior sample. Glyph
// coverage depends on the font, so probe instead of hardcoding points.
func hasInk(s interface {
	Evaluate(r3.Vec) float64
	Bounds() r3.Box
}) bool {
	b := s.Bounds()
	z := (b.Min.Z + b.Max.Z) / 2
	for x := b.Min.X; x <= b.Max.X; x += 0.05 {
		if s.Evaluate(r3.Vec{X: x, Z: z}) < 0 {
			return true
		}
	}
	return false
}
