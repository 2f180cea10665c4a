// Package gridbin builds gridfinity storage bin solids: a tapered-foot
// shell on a 42 mm grid with optional stacking lip, magnet sockets,
// tool pocket cutouts, finger holes and text labels. The assembled solid
// is exported as STL/3MF artifacts and split into printer bed sized
// pieces when needed.
package gridbin

// Gridfinity manufacturing constants. These are fixed by the gridfinity
// interoperability standard, not derived.
const (
	// GridPitch is the spacing between storage cell centers.
	GridPitch = 42.0
	// HeightUnit is the vertical increment for bin height.
	HeightUnit = 7.0
	// BaseHeight is the total height of the tapered foot profile.
	BaseHeight = 4.75
	// CornerRadius is the outer corner radius (4.0 minus 0.25 inset).
	CornerRadius = 3.75
	// OuterClearance shrinks the outer wall so adjacent bins don't bind.
	OuterClearance = 0.5
)

// Base unit layer heights, bottom to top. They sum to BaseHeight.
const (
	baseLayerBottom = 0.8
	baseLayerMiddle = 1.8
	baseLayerTop    = 2.15
)

// Stacking lip profile depths d0..d4 from the gridfinity spec.
const (
	lipD0 = 1.9
	lipD1 = 1.8
	lipD2 = 0.7
	lipD3 = 1.2
	lipD4 = lipD0 + lipD2 // 2.6
)

// Magnet socket dimensions. Centers sit 13 mm from the cell center on
// both axes, equal to MagnetInset from the cell corner.
const (
	MagnetDiameter = 6.0
	MagnetDepth    = 2.4
	MagnetInset    = 4.8
	magnetOffset   = 13.0
)

// Pocket depth clamp. Empirical manufacturing limits: shallower pockets
// don't hold tools, deeper ones break through the base.
const (
	pocketDepthMin      = 5.0
	pocketFloorMargin   = 2.0
	pocketRepairEpsilon = 0.05 // morphological open distance
	pocketRepairMinArea = 0.9  // minimum area retention for accepting the open
)

// TextDPI is the rasterisation density for text labels.
const TextDPI = 200

// cutterOvershoot extends subtractive solids slightly past the faces
// they open onto so booleans don't leave coplanar skins.
const cutterOvershoot = 0.01

// circleSegments is the per-quarter tessellation for profile corners.
const circleSegments = 12
