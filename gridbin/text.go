package gridbin

import (
	"image"
	"image/draw"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	"github.com/tracefinity/binforge/solid"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Text labels are rasterised at TextDPI, binarised, and their contours
// traced from the bitmap. Nested contours combine with even-odd fill so
// letter holes (O, A, 8) stay holes. Traced pixel contours map back to
// millimeter space centred on the label anchor.

// TextCutters builds the solids for all labels of a request. Recessed
// labels return as a subtractive cutter batch; embossed labels return
// as a separate additive body that is kept apart from the cutter set
// for multi-material export. Either may be nil.
func TextCutters(req Request, fonts FontResolver, report *Report) (recessed, embossed solid.SDF3) {
	if len(req.Labels) == 0 {
		return nil, nil
	}
	if fonts == nil {
		fonts = DefaultFonts
	}
	fnt, err := fonts.ResolveFont()
	if err != nil {
		// embedded fallback failed to parse; report every label dropped
		for _, tl := range req.Labels {
			report.add(Result{Kind: CutterText, ID: tl.Text, Err: errors.Wrap(err, "resolve font")})
		}
		return nil, nil
	}

	frame := newBinFrame(req)
	wallTop := req.WallTop()
	var cut, add []solid.SDF3
	for _, tl := range req.Labels {
		res := Result{Kind: CutterText, ID: tl.Text}
		s, err := buildLabel(tl, fnt, frame, wallTop)
		if err != nil {
			res.Err = err
			report.add(res)
			continue
		}
		res.Built = true
		report.add(res)
		if tl.Emboss {
			add = append(add, s)
		} else {
			cut = append(cut, s)
		}
	}
	if len(cut) > 0 {
		recessed = solid.Union3D(cut...)
	}
	if len(add) > 0 {
		embossed = solid.Union3D(add...)
	}
	return recessed, embossed
}

func buildLabel(tl TextLabel, fnt *truetype.Font, frame binFrame, wallTop float64) (s solid.SDF3, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = errors.Errorf("text label cutter: %v", r)
		}
	}()
	rings, err := textRings(tl.Text, tl.FontSize, fnt)
	if err != nil {
		return nil, err
	}
	shape := solid.EvenOddPolygon(rings)

	at := frame.point(tl.X, tl.Y)
	var height, zc float64
	if tl.Emboss {
		height = tl.Depth
		zc = wallTop + height/2
	} else {
		height = tl.Depth + cutterOvershoot
		zc = wallTop - height/2
	}
	s = solid.Extrude3D(shape, height)
	m := solid.Translate3d(r3.Vec{X: at.X, Y: at.Y, Z: zc}).
		Mul(solid.RotateZ3d(solid.DtoR(tl.Rotation)))
	return solid.Transform3D(s, m), nil
}

// textRings rasterises text at TextDPI scaled to the mm font size and
// returns the traced contours in millimeter space about the text centre.
func textRings(text string, fontSizeMM float64, fnt *truetype.Font) ([][]r2.Vec, error) {
	const padPx = 8
	pxPerMM := float64(TextDPI) / 25.4
	sizePx := fontSizeMM * pxPerMM
	if sizePx < 8 {
		sizePx = 8
	}

	face := truetype.NewFace(fnt, &truetype.Options{
		Size:    sizePx,
		DPI:     72, // size already in pixels
		Hinting: font.HintingFull,
	})
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	tw := (bounds.Max.X - bounds.Min.X).Ceil()
	th := (bounds.Max.Y - bounds.Min.Y).Ceil()
	if tw <= 0 || th <= 0 {
		return nil, errors.New("text renders to an empty bitmap")
	}

	img := image.NewGray(image.Rect(0, 0, tw+2*padPx, th+2*padPx))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	d := font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(padPx) - bounds.Min.X,
			Y: fixed.I(padPx) - bounds.Min.Y,
		},
	}
	d.DrawString(text)

	w, h := img.Rect.Dx(), img.Rect.Dy()
	inside := func(x, y int) bool {
		return img.GrayAt(x, y).Y < 128
	}
	contours := traceContours(w, h, inside)
	if len(contours) == 0 {
		return nil, errors.New("no contours traced from text bitmap")
	}

	cx := float64(w) / 2
	cy := float64(h) / 2
	rings := make([][]r2.Vec, 0, len(contours))
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		ring := make([]r2.Vec, len(c))
		for i, p := range c {
			ring[i] = r2.Vec{
				X: (p.X - cx) / pxPerMM,
				Y: -(p.Y - cy) / pxPerMM, // bitmap y grows downward
			}
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, errors.New("all traced contours degenerate")
	}
	return rings, nil
}

// traceContours extracts closed iso-contours from a binary bitmap with
// marching squares. Contour vertices sit on pixel edge midpoints; outer
// outlines and interior holes come out as separate loops.
func traceContours(w, h int, inside func(x, y int) bool) [][]r2.Vec {
	// endpoints on the half-integer grid, scaled by 2 to stay integral
	type pt [2]int
	next := make(map[pt]pt)
	link := func(ax, ay, bx, by int) {
		next[pt{ax, ay}] = pt{bx, by}
	}
	for y := 0; y < h-1; y++ {
		for x := 0; x < w-1; x++ {
			code := 0
			if inside(x, y) {
				code |= 1
			}
			if inside(x+1, y) {
				code |= 2
			}
			if inside(x+1, y+1) {
				code |= 4
			}
			if inside(x, y+1) {
				code |= 8
			}
			// edge midpoints, ×2: top, right, bottom, left
			tx, ty := 2*x+1, 2*y
			rx, ry := 2*x+2, 2*y+1
			bx, by := 2*x+1, 2*y+2
			lx, ly := 2*x, 2*y+1
			switch code {
			case 1:
				link(lx, ly, tx, ty)
			case 2:
				link(tx, ty, rx, ry)
			case 3:
				link(lx, ly, rx, ry)
			case 4:
				link(rx, ry, bx, by)
			case 5: // ambiguous saddle
				link(lx, ly, tx, ty)
				link(rx, ry, bx, by)
			case 6:
				link(tx, ty, bx, by)
			case 7:
				link(lx, ly, bx, by)
			case 8:
				link(bx, by, lx, ly)
			case 9:
				link(bx, by, tx, ty)
			case 10: // ambiguous saddle
				link(tx, ty, rx, ry)
				link(bx, by, lx, ly)
			case 11:
				link(bx, by, rx, ry)
			case 12:
				link(rx, ry, lx, ly)
			case 13:
				link(rx, ry, tx, ty)
			case 14:
				link(tx, ty, lx, ly)
			}
		}
	}

	var loops [][]r2.Vec
	for start := range next {
		if _, ok := next[start]; !ok {
			continue // consumed by an earlier walk
		}
		var loop []r2.Vec
		cur := start
		for {
			n, ok := next[cur]
			if !ok {
				loop = nil // broken chain, drop it
				break
			}
			delete(next, cur)
			loop = append(loop, r2.Vec{X: float64(cur[0]) / 2, Y: float64(cur[1]) / 2})
			cur = n
			if cur == start {
				break
			}
		}
		if len(loop) >= 3 {
			loops = append(loops, loop)
		}
	}
	return loops
}
