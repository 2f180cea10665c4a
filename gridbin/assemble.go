package gridbin

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tracefinity/binforge/render"
	"github.com/tracefinity/binforge/solid"
)

// defaultMeshCells is the marching cubes cell count along the longest
// axis when the caller does not override it. Roughly 0.25mm resolution
// on a two cell bin.
const defaultMeshCells = 300

// Generator builds and exports bin models. The zero value is not
// usable; populate Store and optionally Log, Fonts and MeshCells.
type Generator struct {
	Log       *zap.Logger
	Store     *Store
	Fonts     FontResolver
	MeshCells int
}

// StageTime records how long one generation stage took.
type StageTime struct {
	Name     string
	Duration time.Duration
}

// GenerateResult describes the artifacts produced for one bin.
type GenerateResult struct {
	// Paths of all files written or reused, main STL first.
	Paths []string
	// Parts is the number of split pieces, 1 when the bin fit whole.
	Parts int
	// CacheHit is true when the stored content hash matched and the
	// existing artifacts were reused untouched.
	CacheHit bool
	// Report lists every cutter with its repair and failure status.
	Report *Report
	Stages []StageTime
}

// Generate builds the bin for req, carves the cutouts, and writes the
// export artifacts under the store directory keyed by id. Generation
// is memoized on the content hash: an unchanged request returns the
// existing files without rebuilding.
func (g *Generator) Generate(ctx context.Context, id string, req Request, polygons []ScaledPolygon) (*GenerateResult, error) {
	log := g.log().With(zap.String("bin", id))
	if err := validate(req); err != nil {
		return nil, err
	}
	plan, err := PlanSplit(req)
	if err != nil {
		return nil, err
	}

	hash, err := ContentHash(req, polygons)
	if err != nil {
		return nil, err
	}
	unlock := g.Store.Lock(id)
	defer unlock()

	if g.Store.StoredHash(id) == hash {
		if paths, parts := g.existingArtifacts(id); len(paths) > 0 {
			log.Info("content hash unchanged, reusing artifacts",
				zap.Int("files", len(paths)))
			return &GenerateResult{Paths: paths, Parts: maxInt(parts, 1), CacheHit: true}, nil
		}
	}
	if err := g.Store.Clean(id); err != nil {
		return nil, err
	}

	res := &GenerateResult{Parts: 1, Report: &Report{}}
	timer := stageTimer{log: log, res: res, last: time.Now()}

	bin, embossed, err := g.buildSolid(req, polygons, res.Report, &timer)
	if err != nil {
		return nil, err
	}

	// The single file STL carries the raised text fused into the body.
	// The 3MF keeps it as a separate colored part.
	combined := bin
	if embossed != nil {
		combined = solid.Union3D(bin, embossed)
	}

	mesh, err := g.renderMesh(combined)
	if err != nil {
		return nil, errors.Wrap(err, "render bin")
	}
	timer.mark("render")
	log.Info("rendered bin",
		zap.Int("triangles", len(mesh.Faces)),
		zap.Int("vertices", len(mesh.Vertices)))

	stlPath := g.Store.STLPath(id)
	if err := writeMeshSTL(stlPath, mesh); err != nil {
		return nil, err
	}
	res.Paths = append(res.Paths, stlPath)

	if embossed != nil {
		path, err := g.write3MF(id, bin, embossed)
		if err != nil {
			return nil, err
		}
		res.Paths = append(res.Paths, path)
	}
	timer.mark("export")

	if !plan.Empty() {
		parts, err := g.writeParts(ctx, id, combined, plan)
		if err != nil {
			return nil, err
		}
		res.Parts = len(parts) - 1 // last entry is the zip
		res.Paths = append(res.Paths, parts...)
		timer.mark("split")
		log.Info("split bin for print bed",
			zap.Float64("bed_mm", req.BedSize),
			zap.Int("parts", res.Parts))
	}

	previewPath := g.Store.PreviewPath(id)
	if err := render.CreatePNG(stlPath, previewPath, render.DefaultPreview); err != nil {
		// A failed thumbnail should not fail the whole build.
		log.Warn("preview render failed", zap.Error(err))
	} else {
		res.Paths = append(res.Paths, previewPath)
	}
	timer.mark("preview")

	if err := g.Store.WriteHash(id, hash); err != nil {
		return nil, err
	}
	for _, w := range res.Report.Warnings() {
		log.Warn(w)
	}
	return res, nil
}

// buildSolid constructs the shell, gathers every cutter, and carves
// them all in a single subtraction.
func (g *Generator) buildSolid(req Request, polygons []ScaledPolygon, report *Report, timer *stageTimer) (bin, embossed solid.SDF3, err error) {
	shell, err := Shell(req)
	if err != nil {
		return nil, nil, err
	}
	timer.mark("shell")

	var cutters []solid.SDF3
	if req.Magnets {
		cutters = append(cutters, MagnetHoles(req))
	}
	if c := PocketCutouts(polygons, req, report); c != nil {
		cutters = append(cutters, c)
	}
	if c := FingerHoleCutters(polygons, req, report); c != nil {
		cutters = append(cutters, c)
	}
	recessed, embossed := TextCutters(req, g.Fonts, report)
	if recessed != nil {
		cutters = append(cutters, recessed)
	}
	timer.mark("cutters")

	bin = shell
	if len(cutters) > 0 {
		bin = solid.Difference3D(shell, solid.Union3D(cutters...))
	}
	return bin, embossed, nil
}

func (g *Generator) renderMesh(s solid.SDF3) (*render.Mesh, error) {
	cells := g.MeshCells
	if cells == 0 {
		cells = defaultMeshCells
	}
	tris, err := render.RenderAll(render.NewOctreeRenderer(s, cells))
	if err != nil {
		return nil, err
	}
	return render.NewMesh(tris), nil
}

func (g *Generator) write3MF(id string, bin, text solid.SDF3) (string, error) {
	binMesh, err := g.renderMesh(bin)
	if err != nil {
		return "", errors.Wrap(err, "render bin part")
	}
	textMesh, err := g.renderMesh(text)
	if err != nil {
		return "", errors.Wrap(err, "render text part")
	}
	path := g.Store.ThreeMFPath(id)
	err = render.Create3MF(path,
		render.ThreeMFPart{Name: "bin", Mesh: binMesh},
		render.ThreeMFPart{Name: "text", Color: "#1A1A1A", Mesh: textMesh},
	)
	if err != nil {
		return "", errors.Wrap(err, "write 3mf")
	}
	return path, nil
}

// writeParts cuts the bin per the split plan, exports each non-empty
// piece and bundles them into a zip. Pieces that end up empty, which
// happens when a cut plane lands outside the remaining material, are
// skipped without renumbering gaps.
func (g *Generator) writeParts(ctx context.Context, id string, s solid.SDF3, plan SplitPlan) ([]string, error) {
	var paths []string
	n := 0
	for _, piece := range SplitSolid(s, plan) {
		mesh, err := g.renderMesh(piece)
		if err != nil {
			return nil, errors.Wrap(err, "render part")
		}
		if len(mesh.Faces) == 0 {
			continue
		}
		n++
		path := g.Store.PartPath(id, n)
		if err := writeMeshSTL(path, mesh); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, errors.New("split produced no printable pieces")
	}
	zipPath, err := g.Store.ZipParts(ctx, id, paths)
	if err != nil {
		return nil, err
	}
	return append(paths, zipPath), nil
}

// existingArtifacts lists the files a previous generation left behind,
// main STL first, and the number of split part files among them. An
// empty result means the cache entry is unusable.
func (g *Generator) existingArtifacts(id string) (paths []string, parts int) {
	stl := g.Store.STLPath(id)
	if _, err := os.Stat(stl); err != nil {
		return nil, 0
	}
	paths = []string{stl}
	for _, p := range []string{g.Store.ThreeMFPath(id), g.Store.PartsZipPath(id), g.Store.PreviewPath(id)} {
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	for n := 1; ; n++ {
		p := g.Store.PartPath(id, n)
		if _, err := os.Stat(p); err != nil {
			break
		}
		paths = append(paths, p)
		parts++
	}
	return paths, parts
}

func (g *Generator) log() *zap.Logger {
	if g.Log != nil {
		return g.Log
	}
	return zap.NewNop()
}

func validate(req Request) error {
	if req.GridX < 1 || req.GridY < 1 {
		return errors.Errorf("grid size %dx%d: both axes must be at least 1", req.GridX, req.GridY)
	}
	if req.HeightUnits < 1 {
		return errors.Errorf("height units %d: must be at least 1", req.HeightUnits)
	}
	if req.WallThickness <= 0 {
		return errors.Errorf("wall thickness %.2fmm: must be positive", req.WallThickness)
	}
	return nil
}

func writeMeshSTL(path string, mesh *render.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create stl")
	}
	defer f.Close()
	if err := render.WriteSTL(f, mesh.Triangles()); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

type stageTimer struct {
	log  *zap.Logger
	res  *GenerateResult
	last time.Time
}

func (t *stageTimer) mark(name string) {
	now := time.Now()
	d := now.Sub(t.last)
	t.last = now
	t.res.Stages = append(t.res.Stages, StageTime{Name: name, Duration: d})
	t.log.Debug("stage complete", zap.String("stage", name), zap.Duration("took", d))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
