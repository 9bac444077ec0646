package batch

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes a batch run.
type Report struct {
	Generated       time.Time `yaml:"generated"`
	Jobs            int       `yaml:"jobs"`
	Succeeded       int       `yaml:"succeeded"`
	Failed          int       `yaml:"failed"`
	Cancelled       int       `yaml:"cancelled"`
	InputTriangles  int       `yaml:"input_triangles"`
	OutputTriangles int       `yaml:"output_triangles"`
	Results         []Result  `yaml:"results"`
}

// Summarize totals results. Triangle counts include successful jobs only.
func Summarize(results []Result) Report {
	r := Report{
		Generated: time.Now().UTC().Truncate(time.Second),
		Jobs:      len(results),
		Results:   results,
	}
	for _, res := range results {
		switch {
		case res.Success:
			r.Succeeded++
			r.InputTriangles += res.InputTriangles
			r.OutputTriangles += res.OutputTriangles
		case res.Cancelled:
			r.Cancelled++
		default:
			r.Failed++
		}
	}
	return r
}

// WriteReport writes the summary of results to path as YAML.
func WriteReport(path string, results []Result) error {
	data, err := yaml.Marshal(Summarize(results))
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &r, nil
}
