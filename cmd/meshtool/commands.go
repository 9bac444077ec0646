package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/batch"
	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/logger"
	"github.com/Faultbox/midgard-lod/internal/preview"
	"github.com/Faultbox/midgard-lod/pkg/formats"
	"github.com/Faultbox/midgard-lod/pkg/meshgen"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// simplifyFlags registers the simplifier overrides shared by simplify and
// batch. Flags left at their zero value keep the configured setting.
func simplifyFlags(fs *flag.FlagSet, sc *config.SimplifyConfig) func() {
	target := fs.Int("target", 0, "Target triangle count")
	ratio := fs.Float64("ratio", 0, "Fraction of triangles to keep")
	threshold := fs.Float64("error", -1, "Collapse every edge under this error instead of targeting a count")
	aggr := fs.Float64("aggr", 0, "Aggressiveness (threshold growth per pass)")
	iter := fs.Int("iter", 0, "Maximum passes")

	return func() {
		if *target > 0 {
			sc.TargetCount = *target
			sc.Mode = config.ModeCount
		}
		if *ratio > 0 {
			sc.TargetRatio = *ratio
			sc.TargetCount = 0
			sc.Mode = config.ModeCount
		}
		if *threshold >= 0 {
			sc.Threshold = *threshold
			sc.Mode = config.ModeError
		}
		if *aggr > 0 {
			sc.Aggressiveness = *aggr
		}
		if *iter > 0 {
			sc.MaxIterations = *iter
		}
	}
}

func cmdSimplify(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	apply := simplifyFlags(fs, &cfg.Simplify)
	previewPath := fs.String("preview", "", "Write a before/after image (png, webp or tga)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("simplify [options] <in.obj> <out.obj>")
	}
	apply()
	if err := cfg.Validate(); err != nil {
		return err
	}

	job := batch.Job{Input: fs.Arg(0), Output: fs.Arg(1), Preview: *previewPath}
	res := batch.Process(cfg.Simplify, cfg.Preview, job,
		logger.Named(logger.Simplify, zap.String("mode", cfg.Simplify.Mode)))
	if !res.Success {
		return fmt.Errorf("%s: %s", res.Input, res.Error)
	}

	fmt.Printf("%s -> %s\n", res.Input, res.Output)
	fmt.Printf("Triangles: %d -> %d\n", res.InputTriangles, res.OutputTriangles)
	fmt.Printf("Vertices:  %d -> %d\n", res.InputVertices, res.OutputVertices)
	fmt.Printf("Passes:    %d (%v)\n", res.Iterations, res.Duration.Round(time.Millisecond))
	if res.Preview != "" {
		fmt.Printf("Preview:   %s\n", res.Preview)
	}
	return nil
}

func cmdBatch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	apply := simplifyFlags(fs, &cfg.Simplify)
	previews := fs.Bool("previews", cfg.Batch.Previews, "Write a before/after image per mesh")
	report := fs.String("report", cfg.Batch.Report, "Report file name inside the output directory (empty = none)")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("batch [options] <in-dir> <out-dir>")
	}
	apply()
	if err := cfg.Validate(); err != nil {
		return err
	}

	inDir, outDir := fs.Arg(0), fs.Arg(1)
	format := ""
	if *previews {
		format = cfg.Preview.Format
	}
	jobs, err := batch.Jobs(inDir, outDir, format)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no .obj files in %s", inDir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.Named(logger.Batch, zap.String("mode", cfg.Simplify.Mode))
	log.Info("starting batch",
		zap.Int("meshes", len(jobs)),
		zap.Int("workers", cfg.Batch.Workers))

	results := batch.Run(ctx, batch.Config{
		Workers:          cfg.Batch.Workers,
		Simplify:         cfg.Simplify,
		Preview:          cfg.Preview,
		Logger:           log,
		ProgressInterval: 2 * time.Second,
	}, jobs)

	sum := batch.Summarize(results)
	if *report != "" {
		path := filepath.Join(outDir, *report)
		if err := batch.WriteReport(path, results); err != nil {
			return err
		}
		fmt.Printf("Report: %s\n", path)
	}

	fmt.Printf("Meshes:    %d ok, %d failed, %d cancelled\n", sum.Succeeded, sum.Failed, sum.Cancelled)
	fmt.Printf("Triangles: %d -> %d\n", sum.InputTriangles, sum.OutputTriangles)
	for _, r := range results {
		if !r.Success && !r.Cancelled {
			fmt.Printf("  FAILED %s: %s\n", r.Input, r.Error)
		}
	}

	if sum.Failed > 0 || sum.Cancelled > 0 {
		return fmt.Errorf("%d of %d meshes not simplified", sum.Failed+sum.Cancelled, sum.Jobs)
	}
	return nil
}

func cmdGen(args []string) error {
	if len(args) < 1 {
		return usageError("gen sphere|plane [options] <out.obj>")
	}

	var (
		mesh *meshgen.Mesh
		out  string
		err  error
	)
	switch kind := args[0]; kind {
	case "sphere":
		fs := flag.NewFlagSet("gen sphere", flag.ExitOnError)
		radius := fs.Float64("radius", 1, "Sphere radius")
		level := fs.Int("level", 3, "Subdivision level")
		fs.Parse(args[1:])
		if fs.NArg() < 1 {
			return usageError("gen sphere [-radius r] [-level n] <out.obj>")
		}
		out = fs.Arg(0)
		mesh, err = meshgen.Icosphere(float32(*radius), *level)
	case "plane":
		fs := flag.NewFlagSet("gen plane", flag.ExitOnError)
		width := fs.Float64("width", 1, "Size along X")
		height := fs.Float64("height", 1, "Size along Z")
		segments := fs.Int("segments", 16, "Segments per side")
		fs.Parse(args[1:])
		if fs.NArg() < 1 {
			return usageError("gen plane [-width w] [-height h] [-segments n] <out.obj>")
		}
		out = fs.Arg(0)
		mesh, err = meshgen.Plane(float32(*width), float32(*height), *segments, *segments)
	default:
		return fmt.Errorf("unknown generator %q (want sphere or plane)", kind)
	}
	if err != nil {
		return err
	}

	obj := &formats.OBJ{Name: args[0], Positions: mesh.Positions, Indices: mesh.Indices}
	if err := formats.WriteOBJFile(out, obj); err != nil {
		return err
	}
	fmt.Printf("Wrote %s: %d vertices, %d triangles\n", out, len(mesh.Positions), mesh.TriangleCount())
	return nil
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return usageError("info <in.obj>")
	}

	obj, err := formats.ParseOBJFile(args[0])
	if err != nil {
		return err
	}

	s, err := simplify.New(simplify.MeshData{Positions: obj.Positions, Indices: obj.Indices})
	if err != nil {
		return err
	}
	b := meshgen.ComputeBounds(obj.Positions)
	size := b.Size()

	fmt.Printf("File:      %s\n", args[0])
	if obj.Name != "" {
		fmt.Printf("Object:    %s\n", obj.Name)
	}
	fmt.Printf("Vertices:  %d\n", len(obj.Positions))
	fmt.Printf("Faces:     %d (%d triangles)\n", obj.Polygons, obj.TriangleCount())
	fmt.Printf("Border:    %d vertices\n", s.BorderVertexCount())
	fmt.Printf("Bounds:    (%.4g, %.4g, %.4g) - (%.4g, %.4g, %.4g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	fmt.Printf("Size:      %.4g x %.4g x %.4g\n", size.X, size.Y, size.Z)
	return nil
}

func cmdPreview(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	size := fs.Int("size", cfg.Preview.Size, "Image size in pixels")
	ss := fs.Int("ss", cfg.Preview.Supersample, "Supersampling factor")
	yaw := fs.Float64("yaw", float64(cfg.Preview.Yaw), "Camera yaw in degrees")
	pitch := fs.Float64("pitch", float64(cfg.Preview.Pitch), "Camera pitch in degrees")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("preview [options] <in.obj> <out.(png|webp|tga)>")
	}

	cfg.Preview.Size = *size
	cfg.Preview.Supersample = *ss
	cfg.Preview.Yaw = float32(*yaw)
	cfg.Preview.Pitch = float32(*pitch)
	if err := cfg.Validate(); err != nil {
		return err
	}

	obj, err := formats.ParseOBJFile(fs.Arg(0))
	if err != nil {
		return err
	}
	img, err := preview.Render(obj.Positions, obj.Indices, batch.PreviewOptions(cfg.Preview))
	if err != nil {
		return err
	}
	if err := preview.Save(fs.Arg(1), img); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", fs.Arg(1))
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	if len(args) > 0 {
		if err := cfg.SaveTo(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", args[0])
		return nil
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", filepath.Join(config.ConfigDir(), "meshtool.yaml"))
	return nil
}
