package render_test

import (
	"archive/zip"
	"bytes"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/deadsy/sdfx/obj"
	sdfxrender "github.com/deadsy/sdfx/render"
	"github.com/tracefinity/binforge/render"
	"github.com/tracefinity/binforge/solid"
	"gonum.org/v1/gonum/spatial/r3"
)

const benchQuality = 300

func TestSTLCreateWriteRead(t *testing.T) {
	const quality = 20
	box := solid.Box(r3.Vec{X: 3, Y: 2, Z: 1})
	path := filepath.Join(t.TempDir(), "box.stl")
	err := render.CreateSTL(path, render.NewOctreeRenderer(box, quality))
	if err != nil {
		t.Fatal(err)
	}
	bfile, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	model, err := render.RenderAll(render.NewOctreeRenderer(box, quality))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = render.WriteSTL(&b, model)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != len(bfile) {
		t.Fatal("WriteSTL and CreateSTL output length mismatch")
	}
	if b.String() != string(bfile) {
		t.Fatal("WriteSTL and CreateSTL output mismatch")
	}
}

func Test3MFPackage(t *testing.T) {
	model, err := render.RenderAll(render.NewOctreeRenderer(solid.Box(r3.Vec{X: 4, Y: 4, Z: 2}), 24))
	if err != nil {
		t.Fatal(err)
	}
	text, err := render.RenderAll(render.NewOctreeRenderer(solid.Box(r3.Vec{X: 2, Y: 1, Z: 1}), 16))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.3mf")
	err = render.Create3MF(path,
		render.ThreeMFPart{Name: "bin", Color: "#D0D0D0", Mesh: render.NewMesh(model)},
		render.ThreeMFPart{Name: "text", Color: "#202020", Mesh: render.NewMesh(text)},
	)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()
	want := map[string]bool{
		"[Content_Types].xml": false,
		"_rels/.rels":         false,
		"3D/3dmodel.model":    false,
	}
	for _, f := range zr.File {
		if _, ok := want[f.Name]; ok {
			want[f.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("3mf package missing %s", name)
		}
	}
	rc, err := zr.Open("3D/3dmodel.model")
	if err != nil {
		t.Fatal(err)
	}
	xmlb, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatal(err)
	}
	for _, substr := range []string{`name="bin"`, `name="text"`, `unit="millimeter"`} {
		if !bytes.Contains(xmlb, []byte(substr)) {
			t.Errorf("model xml missing %s", substr)
		}
	}
}

func TestPreviewPNG(t *testing.T) {
	dir := t.TempDir()
	stlPath := filepath.Join(dir, "sphere.stl")
	err := render.CreateSTL(stlPath, render.NewOctreeRenderer(solid.Sphere(8), 32))
	if err != nil {
		t.Fatal(err)
	}
	pngPath := filepath.Join(dir, "sphere.png")
	if err := render.CreatePNG(stlPath, pngPath, render.DefaultPreview); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != render.DefaultPreview.Width || bounds.Dy() != render.DefaultPreview.Height {
		t.Errorf("preview is %dx%d, want %dx%d",
			bounds.Dx(), bounds.Dy(), render.DefaultPreview.Width, render.DefaultPreview.Height)
	}
}

func BenchmarkSDFXBolt(b *testing.B) {
	stdout := os.Stdout
	defer func() {
		os.Stdout = stdout // pesky sdfx prints out stuff
	}()
	os.Stdout, _ = os.Open(os.DevNull)
	output := filepath.Join(b.TempDir(), "sdfx_bolt.stl")
	object, _ := obj.Bolt(&obj.BoltParms{
		Thread:      "npt_1/2",
		Style:       "hex",
		Tolerance:   0.1,
		TotalLength: 20,
		ShankLength: 10,
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sdfxrender.ToSTL(object, benchQuality, output, &sdfxrender.MarchingCubesOctree{})
	}
}

func BenchmarkSphere(b *testing.B) {
	output := filepath.Join(b.TempDir(), "sphere.stl")
	object := solid.Sphere(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		render.CreateSTL(output, render.NewOctreeRenderer(object, benchQuality))
	}
}
