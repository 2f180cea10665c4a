package gridbin

import (
	"github.com/pkg/errors"
	"github.com/tracefinity/binforge/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Cutter families. Each builder returns a batch union of zero or more
// solids (nil when empty); the assembler unions the batches into one
// master cutter set and performs exactly one subtraction against the
// shell. Subtracting sequentially instead would compound mesh
// intersection error at shared boundaries.

// MagnetHoles builds four socket cylinders per grid cell, symmetric
// about each cell center, opening onto the bin underside at z=0.
func MagnetHoles(req Request) solid.SDF3 {
	hole := solid.Cylinder(MagnetDepth+cutterOvershoot, MagnetDiameter/2)
	offsets := [4][2]float64{
		{-magnetOffset, -magnetOffset},
		{magnetOffset, -magnetOffset},
		{magnetOffset, magnetOffset},
		{-magnetOffset, magnetOffset},
	}
	parts := make([]solid.SDF3, 0, 4*req.GridX*req.GridY)
	for iy := 0; iy < req.GridY; iy++ {
		for ix := 0; ix < req.GridX; ix++ {
			cx := (float64(ix) - float64(req.GridX-1)/2) * GridPitch
			cy := (float64(iy) - float64(req.GridY-1)/2) * GridPitch
			for _, o := range offsets {
				at := r3.Vec{
					X: cx + o[0],
					Y: cy + o[1],
					Z: (MagnetDepth + cutterOvershoot) / 2,
				}
				parts = append(parts, solid.Transform3D(hole, solid.Translate3d(at)))
			}
		}
	}
	return solid.Union3D(parts...)
}

// binFrame converts upstream image-frame mm coordinates (origin at the
// bin top-left corner, y down) to bin-centred coordinates.
type binFrame struct {
	offsetX float64
	offsetY float64
}

func newBinFrame(req Request) binFrame {
	return binFrame{
		offsetX: -float64(req.GridX) * GridPitch / 2,
		offsetY: -float64(req.GridY) * GridPitch / 2,
	}
}

func (f binFrame) point(x, y float64) r2.Vec {
	return r2.Vec{X: x + f.offsetX, Y: -(y + f.offsetY)}
}

// PocketCutouts builds the tool silhouette cutters. Each polygon ring
// runs through repair; accepted rings extrude downward from the rim by
// the clamped pocket depth. A polygon that fails repair is dropped with
// a Result entry and the rest still build.
func PocketCutouts(polygons []ScaledPolygon, req Request, report *Report) solid.SDF3 {
	frame := newBinFrame(req)
	depth := req.PocketDepth()
	wallTop := req.WallTop()

	var parts []solid.SDF3
	for _, poly := range polygons {
		res := Result{Kind: CutterPocket, ID: poly.ID}
		if len(poly.Points) < 3 {
			res.Err = errors.Errorf("polygon has %d points, need at least 3", len(poly.Points))
			report.add(res)
			continue
		}
		shifted := make([]r2.Vec, len(poly.Points))
		for i, p := range poly.Points {
			shifted[i] = frame.point(p.X, p.Y)
		}
		rings, repaired, opened, err := RepairRing(shifted)
		res.Repaired = repaired
		res.Opened = opened
		if err != nil {
			res.Err = err
			report.add(res)
			continue
		}
		for _, ring := range rings {
			cutter := solid.Extrude3D(solid.Polygon(ring), depth+cutterOvershoot)
			at := r3.Vec{Z: wallTop - depth + (depth+cutterOvershoot)/2}
			parts = append(parts, solid.Transform3D(cutter, solid.Translate3d(at)))
		}
		res.Built = true
		report.add(res)
	}
	if len(parts) == 0 {
		return nil
	}
	return solid.Union3D(parts...)
}

// FingerHoleCutters builds one cutter per finger hole, switched over
// the closed shape variant. A circle becomes a sphere positioned so its
// cut intersects the pocket floor, approximating a dished finger access
// notch. Squares and rectangles become rotated prisms spanning the full
// pocket depth. Failed cutters are dropped individually.
func FingerHoleCutters(polygons []ScaledPolygon, req Request, report *Report) solid.SDF3 {
	frame := newBinFrame(req)
	depth := req.PocketDepth()
	wallTop := req.WallTop()

	var parts []solid.SDF3
	for _, poly := range polygons {
		for _, fh := range poly.FingerHoles {
			res := Result{Kind: CutterFinger, ID: fh.ID}
			cutter, err := buildFingerHole(fh, frame, wallTop, depth)
			if err != nil {
				res.Err = err
				report.add(res)
				continue
			}
			res.Built = true
			report.add(res)
			parts = append(parts, cutter)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	return solid.Union3D(parts...)
}

func buildFingerHole(fh FingerHole, frame binFrame, wallTop, depth float64) (s solid.SDF3, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = errors.Errorf("finger hole cutter: %v", r)
		}
	}()
	at := frame.point(fh.X, fh.Y)
	switch shape := fh.Shape.(type) {
	case Circle:
		floor := wallTop - depth
		z := wallTop
		if floor+shape.Radius > z {
			z = floor + shape.Radius
		}
		sphere := solid.Sphere(shape.Radius)
		return solid.Transform3D(sphere, solid.Translate3d(r3.Vec{X: at.X, Y: at.Y, Z: z})), nil
	case Square:
		return fingerPrism(at, 2*shape.Half, 2*shape.Half, fh.Rotation, wallTop, depth), nil
	case Rectangle:
		return fingerPrism(at, shape.Width, shape.Height, fh.Rotation, wallTop, depth), nil
	case nil:
		return nil, errors.New("finger hole has no shape")
	default:
		return nil, errors.Errorf("unknown finger hole shape %T", shape)
	}
}

func fingerPrism(at r2.Vec, w, h, rotation, wallTop, depth float64) solid.SDF3 {
	prism := solid.Box(r3.Vec{X: w, Y: h, Z: depth + cutterOvershoot})
	m := solid.Translate3d(r3.Vec{X: at.X, Y: at.Y, Z: wallTop - depth/2}).
		Mul(solid.RotateZ3d(solid.DtoR(rotation)))
	return solid.Transform3D(prism, m)
}
