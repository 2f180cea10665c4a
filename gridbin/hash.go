package gridbin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
)

// ContentHash digests the full generation input: configuration plus
// every polygon point and finger hole. Any change, including float
// precision sensitive fields, produces a new hash and invalidates the
// memoized artifacts.
func ContentHash(req Request, polygons []ScaledPolygon) (string, error) {
	canon := hashInput{
		Request:  req,
		Polygons: make([]hashPolygon, len(polygons)),
	}
	for i, p := range polygons {
		hp := hashPolygon{ID: p.ID, Label: p.Label, Points: p.Points}
		for _, fh := range p.FingerHoles {
			hp.FingerHoles = append(hp.FingerHoles, flattenFingerHole(fh))
		}
		canon.Polygons[i] = hp
	}
	// Struct fields marshal in declaration order, so the encoding is
	// canonical without sorting.
	b, err := json.Marshal(canon)
	if err != nil {
		return "", errors.Wrap(err, "marshal hash input")
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

type hashInput struct {
	Request  Request       `json:"request"`
	Polygons []hashPolygon `json:"polygons"`
}

type hashPolygon struct {
	ID          string           `json:"id"`
	Label       string           `json:"label"`
	Points      []Point          `json:"points"`
	FingerHoles []hashFingerHole `json:"finger_holes,omitempty"`
}

// hashFingerHole flattens the shape variant into explicit fields so the
// digest does not depend on interface marshalling.
type hashFingerHole struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Shape    string  `json:"shape"`
	Radius   float64 `json:"radius,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation"`
}

func flattenFingerHole(fh FingerHole) hashFingerHole {
	out := hashFingerHole{ID: fh.ID, X: fh.X, Y: fh.Y, Rotation: fh.Rotation}
	switch s := fh.Shape.(type) {
	case Circle:
		out.Shape = "circle"
		out.Radius = s.Radius
	case Square:
		out.Shape = "square"
		out.Radius = s.Half
	case Rectangle:
		out.Shape = "rectangle"
		out.Width = s.Width
		out.Height = s.Height
	}
	return out
}
