// Command binforge generates gridfinity bin meshes from a JSON request
// file and writes STL, 3MF and preview artifacts to the output
// directory.
//
// Usage:
//
//	binforge [-id <bin-id>] request.json
//
// The request file holds the bin configuration plus the cutout
// polygons. Without -id a random id is assigned.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/tracefinity/binforge/gridbin"
	"github.com/tracefinity/binforge/internal/config"
	"github.com/tracefinity/binforge/internal/logger"
)

type requestFile struct {
	Request  gridbin.Request         `json:"request"`
	Polygons []gridbin.ScaledPolygon `json:"polygons"`
}

func main() {
	id := flag.String("id", "", "bin id, random when empty")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: binforge [-id <bin-id>] request.json")
		os.Exit(2)
	}

	ctx, quit := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT, syscall.SIGTERM,
	)
	defer quit()

	if err := run(ctx, *id, flag.Arg(0)); err != nil {
		logger.Error(ctx, "generation failed", logger.ErrorF(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, id, requestPath string) error {
	if err := config.Load(); err != nil {
		return err
	}
	if err := logger.Init(config.C().Logger.Level, config.C().Logger.AsJSON); err != nil {
		return err
	}
	defer logger.Sync()

	b, err := os.ReadFile(requestPath)
	if err != nil {
		return err
	}
	var req requestFile
	if err := json.Unmarshal(b, &req); err != nil {
		return fmt.Errorf("parse %s: %w", requestPath, err)
	}
	if id == "" {
		id = uuid.NewString()
	}

	store, err := gridbin.NewStore(config.C().Engine.OutputDir)
	if err != nil {
		return err
	}
	var fonts gridbin.FontResolver
	if paths := config.C().Engine.FontPaths; len(paths) > 0 {
		fonts = gridbin.FontPaths(paths)
	}
	gen := &gridbin.Generator{
		Log:       logger.L(),
		Store:     store,
		Fonts:     fonts,
		MeshCells: config.C().Engine.MeshCells,
	}

	res, err := gen.Generate(ctx, id, req.Request, req.Polygons)
	if err != nil {
		return err
	}

	logger.Info(ctx, "bin generated",
		logger.String("id", id),
		logger.Int("parts", res.Parts),
		logger.Bool("cache_hit", res.CacheHit),
	)
	for _, p := range res.Paths {
		fmt.Println(p)
	}
	if res.Report != nil {
		for _, w := range res.Report.Warnings() {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}
