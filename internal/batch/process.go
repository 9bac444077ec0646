package batch

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
	"github.com/Faultbox/midgard-lod/internal/preview"
	"github.com/Faultbox/midgard-lod/pkg/formats"
	"github.com/Faultbox/midgard-lod/pkg/simplify"
)

// Process loads, simplifies and writes one mesh. Failures are reported in
// the Result, never returned.
func Process(sc config.SimplifyConfig, pc config.PreviewConfig, job Job, log *zap.Logger) Result {
	res := Result{Name: jobName(job), Input: job.Input}
	start := time.Now()

	fail := func(err error) Result {
		res.Error = err.Error()
		res.Duration = time.Since(start)
		log.Warn("mesh failed", zap.String("mesh", res.Name), zap.Error(err))
		return res
	}

	obj, err := formats.ParseOBJFile(job.Input)
	if err != nil {
		return fail(err)
	}
	in := simplify.MeshData{Positions: obj.Positions, Indices: obj.Indices}

	out, stats, err := Simplify(in, sc, log.With(zap.String("mesh", res.Name)))
	if err != nil {
		return fail(err)
	}
	res.InputTriangles = stats.InputTriangles
	res.OutputTriangles = stats.OutputTriangles
	res.InputVertices = stats.InputVertices
	res.OutputVertices = stats.OutputVertices
	res.Iterations = stats.Iterations

	if job.Output != "" {
		if err := os.MkdirAll(filepath.Dir(job.Output), 0755); err != nil {
			return fail(err)
		}
		lod := &formats.OBJ{Name: obj.Name, Positions: out.Positions, Indices: out.Indices}
		if err := formats.WriteOBJFile(job.Output, lod); err != nil {
			return fail(err)
		}
		res.Output = job.Output
	}

	if job.Preview != "" {
		img, err := Compare(in, out, pc)
		if err != nil {
			return fail(fmt.Errorf("preview: %w", err))
		}
		if err := preview.Save(job.Preview, img); err != nil {
			return fail(err)
		}
		res.Preview = job.Preview
	}

	res.Success = true
	res.Duration = time.Since(start)
	log.Debug("mesh done",
		zap.String("mesh", res.Name),
		zap.Int("triangles_in", res.InputTriangles),
		zap.Int("triangles_out", res.OutputTriangles),
		zap.Duration("elapsed", res.Duration))
	return res
}

// Simplify runs the simplifier in the mode sc selects.
func Simplify(in simplify.MeshData, sc config.SimplifyConfig, log *zap.Logger) (simplify.MeshData, simplify.Stats, error) {
	s, err := simplify.New(in, simplify.WithLogger(log))
	if err != nil {
		return simplify.MeshData{}, simplify.Stats{}, err
	}

	var out simplify.MeshData
	switch sc.Mode {
	case config.ModeError:
		out = s.SimplifyToError(sc.Threshold, sc.MaxIterations)
	default:
		out = s.SimplifyToCount(sc.Target(in.TriangleCount()), sc.Aggressiveness, sc.MaxIterations)
	}
	return out, s.Stats(), nil
}

// PreviewOptions converts preview settings to renderer options.
func PreviewOptions(pc config.PreviewConfig) preview.Options {
	opts := preview.DefaultOptions()
	opts.Size = pc.Size
	opts.Supersample = pc.Supersample
	opts.Yaw = pc.Yaw
	opts.Pitch = pc.Pitch
	return opts
}

// Compare renders the original and simplified mesh side by side.
func Compare(before, after simplify.MeshData, pc config.PreviewConfig) (*image.NRGBA, error) {
	opts := PreviewOptions(pc)
	a, err := preview.Render(before.Positions, before.Indices, opts)
	if err != nil {
		return nil, err
	}
	b, err := preview.Render(after.Positions, after.Indices, opts)
	if errors.Is(err, preview.ErrEmptyMesh) {
		b = image.NewNRGBA(a.Bounds())
	} else if err != nil {
		return nil, err
	}
	return preview.SideBySide(a, b), nil
}
