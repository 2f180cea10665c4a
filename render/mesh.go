package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. Faces index into Vertices.
type Mesh struct {
	Vertices []r3.Vec
	Faces    [][3]int
}

// mergeTol is the vertex welding grid size. Triangles output by marching
// cubes share corners only approximately due to float truncation.
const mergeTol = 1e-4

// NewMesh indexes a triangle soup. Vertices closer together than the
// welding tolerance are merged, zero area faces are dropped and unused
// vertices are removed.
func NewMesh(model []Triangle3) *Mesh {
	m := &Mesh{
		Vertices: make([]r3.Vec, 0, len(model)),
		Faces:    make([][3]int, 0, len(model)),
	}
	lookup := make(map[[3]int64]int, len(model))
	for _, t := range model {
		var face [3]int
		for i := 0; i < 3; i++ {
			key := meshKey(t.V[i])
			vi, ok := lookup[key]
			if !ok {
				vi = len(m.Vertices)
				m.Vertices = append(m.Vertices, t.V[i])
				lookup[key] = vi
			}
			face[i] = vi
		}
		if face[0] == face[1] || face[1] == face[2] || face[2] == face[0] {
			continue // collapsed during welding
		}
		if t.Degenerate(mergeTol * mergeTol) {
			continue
		}
		m.Faces = append(m.Faces, face)
	}
	m.removeUnreferenced()
	return m
}

func meshKey(v r3.Vec) [3]int64 {
	return [3]int64{
		int64(math.Round(v.X / mergeTol)),
		int64(math.Round(v.Y / mergeTol)),
		int64(math.Round(v.Z / mergeTol)),
	}
}

// removeUnreferenced drops vertices no face points at and remaps face indices.
func (m *Mesh) removeUnreferenced() {
	used := make([]bool, len(m.Vertices))
	for _, f := range m.Faces {
		used[f[0]] = true
		used[f[1]] = true
		used[f[2]] = true
	}
	remap := make([]int, len(m.Vertices))
	kept := m.Vertices[:0]
	for i, v := range m.Vertices {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(kept)
		kept = append(kept, v)
	}
	if len(kept) == len(m.Vertices) {
		return
	}
	m.Vertices = kept
	for i := range m.Faces {
		m.Faces[i][0] = remap[m.Faces[i][0]]
		m.Faces[i][1] = remap[m.Faces[i][1]]
		m.Faces[i][2] = remap[m.Faces[i][2]]
	}
}

// Closed returns true if every edge of the mesh is shared by exactly
// two faces with opposite winding, i.e. the mesh is watertight.
func (m *Mesh) Closed() bool {
	edges := make(map[[2]int]int, 3*len(m.Faces))
	for _, f := range m.Faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			edges[[2]int{a, b}]++
		}
	}
	for e, n := range edges {
		if n != 1 {
			return false
		}
		if edges[[2]int{e[1], e[0]}] != 1 {
			return false
		}
	}
	return true
}

// Triangles converts the mesh back to a triangle soup.
func (m *Mesh) Triangles() []Triangle3 {
	out := make([]Triangle3, len(m.Faces))
	for i, f := range m.Faces {
		out[i] = Triangle3{V: [3]r3.Vec{
			m.Vertices[f[0]],
			m.Vertices[f[1]],
			m.Vertices[f[2]],
		}}
	}
	return out
}

// Bounds returns the axis aligned bounding box of the mesh vertices.
func (m *Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	bb := r3.Box{Min: m.Vertices[0], Max: m.Vertices[0]}
	for _, v := range m.Vertices[1:] {
		bb.Min.X = math.Min(bb.Min.X, v.X)
		bb.Min.Y = math.Min(bb.Min.Y, v.Y)
		bb.Min.Z = math.Min(bb.Min.Z, v.Z)
		bb.Max.X = math.Max(bb.Max.X, v.X)
		bb.Max.Y = math.Max(bb.Max.Y, v.Y)
		bb.Max.Z = math.Max(bb.Max.Z, v.Z)
	}
	return bb
}
