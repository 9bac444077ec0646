// Package batch simplifies many OBJ files in parallel.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-lod/internal/config"
)

// Config holds the shared settings of a batch run.
type Config struct {
	Workers  int // 0 means one per CPU
	Simplify config.SimplifyConfig
	Preview  config.PreviewConfig
	Logger   *zap.Logger

	// ProgressInterval is how often progress is logged; 0 disables it.
	ProgressInterval time.Duration
}

// Job is one input mesh.
type Job struct {
	Input   string
	Output  string
	Preview string // before/after image path, empty for none
}

// Result holds the outcome of one job.
type Result struct {
	Name            string        `yaml:"name"`
	Input           string        `yaml:"input"`
	Output          string        `yaml:"output,omitempty"`
	Preview         string        `yaml:"preview,omitempty"`
	InputTriangles  int           `yaml:"input_triangles"`
	OutputTriangles int           `yaml:"output_triangles"`
	InputVertices   int           `yaml:"input_vertices"`
	OutputVertices  int           `yaml:"output_vertices"`
	Iterations      int           `yaml:"iterations"`
	Duration        time.Duration `yaml:"duration"`
	Success         bool          `yaml:"success"`
	Cancelled       bool          `yaml:"cancelled,omitempty"`
	Error           string        `yaml:"error,omitempty"`
}

// Jobs lists the .obj files directly inside inDir and maps each to the same
// name in outDir. When previewFormat is set every job also gets a preview
// next to its output.
func Jobs(inDir, outDir, previewFormat string) ([]Job, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", inDir, err)
	}

	var jobs []Job
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".obj") {
			continue
		}
		job := Job{
			Input:  filepath.Join(inDir, e.Name()),
			Output: filepath.Join(outDir, e.Name()),
		}
		if previewFormat != "" {
			stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
			job.Preview = filepath.Join(outDir, stem+"."+previewFormat)
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Input < jobs[j].Input })
	return jobs, nil
}

// Run processes all jobs using a worker pool. Results are in job order.
// Cancelling ctx stops workers from starting new jobs; a job already
// running finishes.
func Run(ctx context.Context, cfg Config, jobs []Job) []Result {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	if cfg.ProgressInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					log.Info("progress",
						zap.Int64("done", p),
						zap.Int("total", total),
						zap.Float64("meshes_per_sec", float64(p)/time.Since(start).Seconds()))
				}
			}
		}()
	}

	jobChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				if err := ctx.Err(); err != nil {
					results[idx] = cancelled(jobs[idx], err)
				} else {
					results[idx] = Process(cfg.Simplify, cfg.Preview, jobs[idx], log)
				}
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)

	log.Info("batch finished",
		zap.Int("jobs", total),
		zap.Int("failed", countFailed(results)),
		zap.Duration("elapsed", time.Since(start)))

	return results
}

func cancelled(job Job, err error) Result {
	return Result{
		Name:      jobName(job),
		Input:     job.Input,
		Cancelled: true,
		Error:     err.Error(),
	}
}

func countFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Success {
			n++
		}
	}
	return n
}

func jobName(job Job) string {
	return strings.TrimSuffix(filepath.Base(job.Input), filepath.Ext(job.Input))
}
