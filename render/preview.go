package render

import (
	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"github.com/tracefinity/binforge/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// PreviewConfig controls PNG preview rendering of generated models.
type PreviewConfig struct {
	// what position (point) to look at
	LookAt r3.Vec
	// which way is up (direction)
	Up r3.Vec
	// where the camera/eye is located at (point)
	EyePos r3.Vec
	Near   float64
	Far    float64
	Width  int
	Height int
	// model and background colors as sRGB hex
	ObjectColor     string
	BackgroundColor string
}

// DefaultPreview is an isometric view sized for web thumbnails.
var DefaultPreview = PreviewConfig{
	Up:              r3.Vec{Z: 1},
	EyePos:          d3.Elem(2.4), // iso view.
	Near:            1,
	Far:             10,
	Width:           768,
	Height:          432,
	ObjectColor:     "#468966",
	BackgroundColor: "#FFF8E3",
}

// CreatePNG renders an STL file to a shaded PNG preview image.
func CreatePNG(stlPath, pngPath string, view PreviewConfig) error {
	mesh, err := fauxgl.LoadSTL(stlPath)
	if err != nil {
		return err
	}
	const (
		scale = 2  // supersampling for antialiasing
		fovy  = 30 // vertical field of view in degrees
	)
	var (
		eye    = fauxgl.V(view.EyePos.X, view.EyePos.Y, view.EyePos.Z)
		center = fauxgl.V(view.LookAt.X, view.LookAt.Y, view.LookAt.Z)
		up     = fauxgl.V(view.Up.X, view.Up.Y, view.Up.Z)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
		color  = fauxgl.HexColor(view.ObjectColor)
	)
	// fit mesh in a bi-unit cube centered at the origin
	mesh.BiUnitCube()
	context := fauxgl.NewContext(view.Width*scale, view.Height*scale)
	context.ClearColorBufferWith(fauxgl.HexColor(view.BackgroundColor))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(fovy, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = color
	context.Shader = shader
	context.DrawMesh(mesh)
	// downsample image for antialiasing
	image := context.Image()
	image = resize.Resize(uint(view.Width), uint(view.Height), image, resize.Bilinear)
	return fauxgl.SavePNG(pngPath, image)
}
