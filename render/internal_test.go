package render

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/tracefinity/binforge/internal/d3"
	"github.com/tracefinity/binforge/solid"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestMarchingCubes(t *testing.T) {
	max := 0
	for _, tri := range mcTriangleTable {
		if len(tri) > max {
			max = len(tri)
		}
	}
	got := max / 3
	if got != marchingCubesMaxTriangles {
		t.Errorf("mismatch marching cubes max triangles. got %d. want %d", got, marchingCubesMaxTriangles)
	}
	for i, tri := range mcTriangleTable {
		if len(tri)%3 != 0 {
			t.Errorf("entry %d not a multiple of 3", i)
		}
		if (len(tri) == 0) != (mcEdgeTable[i] == 0) {
			t.Errorf("entry %d: edge table and triangle table disagree on emptiness", i)
		}
	}
}

func TestSTLWriteReadback(t *testing.T) {
	const (
		quality = 100
		tol     = 1e-5
	)
	s0 := solid.Sphere(12)
	size := r3.Norm(d3.Box(s0.Bounds()).Size())
	// calculate relative tolerance
	rtol := tol * size / quality
	input, err := RenderAll(NewOctreeRenderer(s0, quality))
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	err = WriteSTL(&b, input)
	if err != nil {
		t.Fatal(err)
	}
	output, err := readBinarySTL(&b)
	if err != nil && !errors.Is(err, errCalculatedNormalMismatch) {
		t.Fatal(err)
	}
	if len(output) != len(input) {
		t.Fatal("length of triangles written/read not equal")
	}
	mismatches := 0
	for iface, expect := range input {
		got := output[iface]
		if got.Degenerate(1e-12) {
			t.Fatalf("triangle degenerate: %+v", got)
		}
		for i := range expect.V {
			if !d3.EqualWithin(got.V[i], expect.V[i], rtol) {
				mismatches++
				t.Errorf("%dth triangle equality out of tolerance. got vertex %0.5g, want %0.5g", iface, got.V[i], expect.V[i])
			}
		}
		if mismatches > 10 {
			t.Fatal("too many mismatches")
		}
	}
}

func TestOctreeEOF(t *testing.T) {
	oct := NewOctreeRenderer(solid.Sphere(5), 32)
	buf := make([]Triangle3, 64)
	var model []Triangle3
	var err error
	var nt int
	for err == nil {
		nt, err = oct.ReadTriangles(buf)
		model = append(model, buf[:nt]...)
	}
	if err != io.EOF {
		t.Fatal(err)
	}
	if len(model) == 0 {
		t.Fatal("rendered no triangles")
	}
	// All triangles should lie near the sphere surface.
	for _, tri := range model {
		for _, v := range tri.V {
			r := r3.Norm(v)
			if r < 4 || r > 6 {
				t.Fatalf("vertex %v too far from surface", v)
			}
		}
	}
}

func TestMeshWeld(t *testing.T) {
	model, err := RenderAll(NewOctreeRenderer(solid.Box(r3.Vec{X: 10, Y: 8, Z: 6}), 48))
	if err != nil {
		t.Fatal(err)
	}
	m := NewMesh(model)
	if len(m.Faces) == 0 || len(m.Vertices) == 0 {
		t.Fatal("empty mesh")
	}
	// Welding must reduce the vertex count well below 3 per face.
	if len(m.Vertices) >= 3*len(m.Faces)/2 {
		t.Errorf("welding ineffective: %d vertices for %d faces", len(m.Vertices), len(m.Faces))
	}
	if !m.Closed() {
		t.Error("box mesh not watertight after weld")
	}
	back := m.Triangles()
	if len(back) != len(m.Faces) {
		t.Errorf("triangle count mismatch: %d != %d", len(back), len(m.Faces))
	}
}

func TestMeshDropsDegenerate(t *testing.T) {
	a := r3.Vec{X: 0, Y: 0, Z: 0}
	b := r3.Vec{X: 1, Y: 0, Z: 0}
	c := r3.Vec{X: 0, Y: 1, Z: 0}
	soup := []Triangle3{
		{V: [3]r3.Vec{a, b, c}},
		{V: [3]r3.Vec{a, b, b}}, // zero area
		{V: [3]r3.Vec{a, a, a}}, // fully collapsed
	}
	m := NewMesh(soup)
	if len(m.Faces) != 1 {
		t.Errorf("expected 1 face after cleanup, got %d", len(m.Faces))
	}
	if len(m.Vertices) != 3 {
		t.Errorf("expected 3 vertices after cleanup, got %d", len(m.Vertices))
	}
}
