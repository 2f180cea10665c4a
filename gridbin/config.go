package gridbin

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Request carries one bin generation. Fields are validated at the API
// boundary before they reach the engine.
type Request struct {
	// Grid footprint in cells, 1..10 per axis.
	GridX int `json:"grid_x"`
	GridY int `json:"grid_y"`
	// Height in 7 mm units, 1..20.
	HeightUnits int `json:"height_units"`
	// WallThickness in mm, 0.4..5.
	WallThickness float64 `json:"wall_thickness"`
	// CutoutDepth is the requested pocket depth in mm before clamping.
	CutoutDepth float64 `json:"cutout_depth"`
	// CutoutClearance was already applied upstream when polygons were
	// expanded. Kept so it participates in the content hash.
	CutoutClearance float64 `json:"cutout_clearance"`
	Magnets         bool    `json:"magnets"`
	StackingLip     bool    `json:"stacking_lip"`
	// BedSize is the printer bed edge in mm. 0 disables splitting.
	BedSize float64 `json:"bed_size"`
	Labels  []TextLabel `json:"text_labels,omitempty"`
}

// WallTop returns the z coordinate of the bin rim (pocket floor plane).
func (r Request) WallTop() float64 {
	return float64(r.HeightUnits) * HeightUnit
}

// OuterSize returns the outer wall footprint in mm, clearance applied.
func (r Request) OuterSize() (w, d float64) {
	return float64(r.GridX)*GridPitch - OuterClearance,
		float64(r.GridY)*GridPitch - OuterClearance
}

// PocketDepth returns the clamped pocket depth for this request. The
// ceiling applies before the floor, so the minimum depth wins even on
// bins too short to leave pocketFloorMargin above the base.
func (r Request) PocketDepth() float64 {
	maxDepth := r.WallTop() - BaseHeight - pocketFloorMargin
	d := r.CutoutDepth
	if d > maxDepth {
		d = maxDepth
	}
	if d < pocketDepthMin {
		d = pocketDepthMin
	}
	return d
}

// ScaledPolygon is one tool cutout footprint in millimeter space,
// clearance-expanded and simplified upstream. The ring is closed without
// a repeated last point and may be self-intersecting.
type ScaledPolygon struct {
	ID          string      `json:"id"`
	Label       string      `json:"label,omitempty"`
	Points      []Point     `json:"points_mm"`
	FingerHoles []FingerHole `json:"finger_holes,omitempty"`
}

// Point is a 2D millimeter coordinate in the upstream image frame:
// origin at the bin's top-left corner, y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FingerHole eases lifting a tool out of its pocket. Owned by exactly
// one ScaledPolygon.
type FingerHole struct {
	ID string `json:"id"`
	// Center in the upstream image frame, mm.
	X float64 `json:"x_mm"`
	Y float64 `json:"y_mm"`
	// Rotation about the vertical axis in degrees. Circles ignore it.
	Rotation float64 `json:"rotation"`
	Shape    FingerShape `json:"-"`
}

// FingerShape is the closed set of finger hole cross-sections. The
// cutter builder switches over it exhaustively; adding a shape is a
// compile-time-checked change.
type FingerShape interface {
	isFingerShape()
}

// Circle is a spherical dish cutter sized by its radius.
type Circle struct {
	Radius float64
}

// Square is a square prism cutter; Half is the half-width.
type Square struct {
	Half float64
}

// Rectangle is a rectangular prism cutter.
type Rectangle struct {
	Width  float64
	Height float64
}

func (Circle) isFingerShape()    {}
func (Square) isFingerShape()    {}
func (Rectangle) isFingerShape() {}

// fingerHoleJSON is the wire form. Squares reuse the radius field as
// half-width; rectangles fall back to 2x radius per missing dimension.
type fingerHoleJSON struct {
	ID       string  `json:"id"`
	X        float64 `json:"x_mm"`
	Y        float64 `json:"y_mm"`
	Rotation float64 `json:"rotation,omitempty"`
	Shape    string  `json:"shape,omitempty"`
	Radius   float64 `json:"radius_mm,omitempty"`
	Width    float64 `json:"width_mm,omitempty"`
	Height   float64 `json:"height_mm,omitempty"`
}

func (fh *FingerHole) UnmarshalJSON(b []byte) error {
	var raw fingerHoleJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	fh.ID = raw.ID
	fh.X = raw.X
	fh.Y = raw.Y
	fh.Rotation = raw.Rotation
	switch raw.Shape {
	case "", "circle":
		fh.Shape = Circle{Radius: raw.Radius}
	case "square":
		fh.Shape = Square{Half: raw.Radius}
	case "rectangle":
		w, h := raw.Width, raw.Height
		if w == 0 {
			w = raw.Radius * 2
		}
		if h == 0 {
			h = raw.Radius * 2
		}
		fh.Shape = Rectangle{Width: w, Height: h}
	default:
		return errors.Errorf("finger hole %s: unknown shape %q", raw.ID, raw.Shape)
	}
	return nil
}

func (fh FingerHole) MarshalJSON() ([]byte, error) {
	raw := fingerHoleJSON{ID: fh.ID, X: fh.X, Y: fh.Y, Rotation: fh.Rotation}
	switch s := fh.Shape.(type) {
	case Circle:
		raw.Shape = "circle"
		raw.Radius = s.Radius
	case Square:
		raw.Shape = "square"
		raw.Radius = s.Half
	case Rectangle:
		raw.Shape = "rectangle"
		raw.Width = s.Width
		raw.Height = s.Height
	}
	return json.Marshal(raw)
}

// TextLabel is engraved or embossed text on the bin rim.
type TextLabel struct {
	Text string `json:"text"`
	// Anchor in the upstream image frame, mm.
	X float64 `json:"x"`
	Y float64 `json:"y"`
	// Rotation about the vertical axis in degrees.
	Rotation float64 `json:"rotation"`
	// FontSize is the glyph height in mm.
	FontSize float64 `json:"font_size"`
	// Depth of the recess or emboss in mm.
	Depth  float64 `json:"depth"`
	Emboss bool    `json:"emboss"`
}
