package gridbin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracefinity/binforge/render"
)

func testGenerator(t *testing.T, cells int) *Generator {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return &Generator{Store: store, MeshCells: cells}
}

func readSTL(t *testing.T, path string) []render.Triangle3 {
	t.Helper()
	tris, err := render.ReadSTLFile(path)
	if err != nil {
		t.Logf("reading %s: %v", filepath.Base(path), err)
	}
	require.NotEmpty(t, tris)
	return tris
}

func TestGenerateWatertight(t *testing.T) {
	if testing.Short() {
		t.Skip("full bin render")
	}
	gen := testGenerator(t, 64)
	req := Request{
		GridX: 2, GridY: 2, HeightUnits: 4,
		WallThickness: 1.2, Magnets: true, StackingLip: true,
	}

	res, err := gen.Generate(context.Background(), "watertight", req, nil)
	require.NoError(t, err)
	assert.False(t, res.CacheHit)
	assert.Equal(t, 1, res.Parts)
	require.NotEmpty(t, res.Paths)

	mesh := render.NewMesh(readSTL(t, res.Paths[0]))
	assert.NotEmpty(t, mesh.Faces)
	assert.True(t, mesh.Closed(), "bin mesh must be watertight")
}

func TestGenerateCacheHit(t *testing.T) {
	gen := testGenerator(t, 32)
	req := Request{GridX: 1, GridY: 1, HeightUnits: 2, WallThickness: 1.2}

	first, err := gen.Generate(context.Background(), "bin-a", req, nil)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := gen.Generate(context.Background(), "bin-a", req, nil)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Paths[0], second.Paths[0])

	// any input change rebuilds
	req.HeightUnits = 3
	third, err := gen.Generate(context.Background(), "bin-a", req, nil)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
}

func TestGenerateMagnetsChangeMesh(t *testing.T) {
	if testing.Short() {
		t.Skip("two bin renders")
	}
	gen := testGenerator(t, 64)
	req := Request{GridX: 1, GridY: 1, HeightUnits: 2, WallThickness: 1.2}

	plain, err := gen.Generate(context.Background(), "plain", req, nil)
	require.NoError(t, err)

	req.Magnets = true
	magnets, err := gen.Generate(context.Background(), "magnets", req, nil)
	require.NoError(t, err)

	assert.NotEqual(t,
		len(readSTL(t, plain.Paths[0])),
		len(readSTL(t, magnets.Paths[0])),
		"magnet sockets must alter the mesh")
}

func TestGenerateSplitParts(t *testing.T) {
	if testing.Short() {
		t.Skip("split renders each piece")
	}
	gen := testGenerator(t, 48)
	req := Request{
		GridX: 3, GridY: 1, HeightUnits: 2,
		WallThickness: 1.2, BedSize: 50,
	}

	res, err := gen.Generate(context.Background(), "split", req, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Parts)

	for n := 1; n <= 3; n++ {
		p := gen.Store.PartPath("split", n)
		assert.FileExists(t, p)
		assert.NotEmpty(t, readSTL(t, p))
	}
	assert.FileExists(t, gen.Store.PartsZipPath("split"))

	// the cache hit reports the same part count as the build
	again, err := gen.Generate(context.Background(), "split", req, nil)
	require.NoError(t, err)
	assert.True(t, again.CacheHit)
	assert.Equal(t, res.Parts, again.Parts)
}

func TestExistingArtifactsCountsParts(t *testing.T) {
	gen := testGenerator(t, 32)

	paths, parts := gen.existingArtifacts("bin")
	assert.Nil(t, paths, "no main STL means no usable cache entry")
	assert.Zero(t, parts)

	// part count comes from the files on disk, not the split plan: a
	// prior build may have dropped empty pieces
	require.NoError(t, os.WriteFile(gen.Store.STLPath("bin"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(gen.Store.PartPath("bin", 1), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(gen.Store.PartPath("bin", 2), []byte("x"), 0o644))

	paths, parts = gen.existingArtifacts("bin")
	assert.Equal(t, 2, parts)
	assert.Len(t, paths, 3)
}

func TestGenerateEmbossProduces3MF(t *testing.T) {
	if testing.Short() {
		t.Skip("renders bin and text bodies")
	}
	gen := testGenerator(t, 48)
	req := Request{
		GridX: 1, GridY: 1, HeightUnits: 2, WallThickness: 1.2,
		Labels: []TextLabel{{Text: "AB", X: 21, Y: 21, FontSize: 6, Depth: 1, Emboss: true}},
	}

	res, err := gen.Generate(context.Background(), "labeled", req, nil)
	require.NoError(t, err)
	assert.FileExists(t, gen.Store.ThreeMFPath("labeled"))
	assert.Contains(t, res.Paths, gen.Store.ThreeMFPath("labeled"))
}

func TestGenerateValidation(t *testing.T) {
	gen := testGenerator(t, 32)
	ctx := context.Background()

	_, err := gen.Generate(ctx, "bad", Request{GridX: 0, GridY: 1, HeightUnits: 2, WallThickness: 1.2}, nil)
	assert.Error(t, err)

	_, err = gen.Generate(ctx, "bad", Request{GridX: 1, GridY: 1, HeightUnits: 0, WallThickness: 1.2}, nil)
	assert.Error(t, err)

	// bed below one grid pitch with an overflowing bin is a config error
	_, err = gen.Generate(ctx, "bad", Request{GridX: 2, GridY: 1, HeightUnits: 2, WallThickness: 1.2, BedSize: 30}, nil)
	assert.Error(t, err)
}

func TestStoreCleanRemovesStaleParts(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{
		store.STLPath("bin"),
		store.PartPath("bin", 1),
		store.PartPath("bin", 2),
		store.PreviewPath("bin"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	require.NoError(t, store.Clean("bin"))

	left, err := filepath.Glob(filepath.Join(store.Dir, "bin*"))
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestStoreCleanKeepsPrefixSiblings(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	// "bin" is a prefix of "bin2"; cleaning one must not touch the other
	require.NoError(t, os.WriteFile(store.STLPath("bin"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(store.STLPath("bin2"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(store.hashPath("bin2"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(store.PartPath("bin2", 1), []byte("x"), 0o644))

	require.NoError(t, store.Clean("bin"))

	assert.NoFileExists(t, store.STLPath("bin"))
	assert.FileExists(t, store.STLPath("bin2"))
	assert.FileExists(t, store.hashPath("bin2"))
	assert.FileExists(t, store.PartPath("bin2", 1))
}
