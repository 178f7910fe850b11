package preflight

import (
	"assetpack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks that apply to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckCreatableDirectory("Staging directory", cfg.Paths.StagingDir)}

	if cfg.Paths.OutputDir != "" {
		results = append(results, CheckCreatableDirectory("Output directory", cfg.Paths.OutputDir))
	}
	if cfg.Build.CIOutputFile != "" {
		results = append(results, CheckOutputFile("CI output file", cfg.Build.CIOutputFile))
	}
	return results
}

// Failed returns the failing results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
