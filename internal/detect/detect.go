// Package detect implements heuristic analysis passes that scan source
// files for LLM-introduced defects.
package detect

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

// Result is what a single analyzer returns for a file set.
type Result struct {
	Findings      []model.Finding
	FilesAnalyzed int
	Duration      time.Duration
}

// Analyzer is a stateless scanner producing findings from source files.
// Extension filtering is each analyzer's own responsibility; the
// orchestrator hands every analyzer the full file set.
type Analyzer interface {
	Name() string
	Extensions() []string
	Detect(files []source.File) (Result, error)
}

// AllAnalyzers returns the default analyzer set in declaration order.
// The registry client may be nil; the hallucination analyzer then skips
// its registry-backed checks.
func AllAnalyzers(reg RegistryLookup) []Analyzer {
	return []Analyzer{
		NewHallucinationAnalyzer(reg),
		&DeprecatedAnalyzer{},
		&QualityAnalyzer{},
		&SecurityAnalyzer{},
		&PerformanceAnalyzer{},
	}
}

// AnalyzerNames maps the --skip flag names to the default analyzers.
var AnalyzerNames = []string{"hallucination", "deprecated", "quality", "security", "performance"}

// Run executes every analyzer against the full file set concurrently and
// aggregates findings in analyzer-declaration order. A failing or panicking
// analyzer becomes a single synthetic critical finding; the run continues.
func Run(ctx context.Context, analyzers []Analyzer, files []source.File, logger hclog.Logger) *model.AnalysisReport {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	report := model.NewReport()
	results := make([]Result, len(analyzers))
	errs := make([]error, len(analyzers))

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range analyzers {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				errs[i] = gctx.Err()
				return nil
			default:
			}

			start := time.Now()
			res, err := runIsolated(a, files)
			res.Duration = time.Since(start)

			results[i] = res
			errs[i] = err

			if err != nil {
				logger.Warn("analyzer failed", "analyzer", a.Name(), "error", err)
			} else {
				logger.Debug("analyzer finished",
					"analyzer", a.Name(),
					"findings", len(res.Findings),
					"duration", res.Duration)
			}
			return nil
		})
	}
	g.Wait()

	for i, a := range analyzers {
		stats := model.AnalyzerStats{
			Name:          a.Name(),
			FilesAnalyzed: results[i].FilesAnalyzed,
			Duration:      results[i].Duration,
		}
		if errs[i] != nil {
			stats.Failed = true
			report.Findings = append(report.Findings, model.Finding{
				ID:       fmt.Sprintf("%s-failure", a.Name()),
				Severity: model.SeverityCritical,
				Category: a.Name(),
				Message:  fmt.Sprintf("analyzer %s failed: %v", a.Name(), errs[i]),
			})
		} else {
			report.Findings = append(report.Findings, results[i].Findings...)
		}
		report.Analyzers = append(report.Analyzers, stats)
	}

	return report
}

// runIsolated calls the analyzer and converts a panic into an error.
func runIsolated(a Analyzer, files []source.File) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.Detect(files)
}

// filterByExt keeps only files matching the analyzer's supported extensions.
// An empty extension list means all files.
func filterByExt(files []source.File, exts []string) []source.File {
	if len(exts) == 0 {
		return files
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[e] = true
	}
	var out []source.File
	for _, f := range files {
		if allowed[f.Ext] {
			out = append(out, f)
		}
	}
	return out
}

// inScope reports whether a line is inside the file's changed-line set.
// Files from a whole-tree provider have no set and are fully in scope.
func inScope(f *source.File, line int) bool {
	if f.ChangedLines == nil {
		return true
	}
	return f.ChangedLines[line]
}

// findingID builds an ID that is unique enough to dedupe within a run.
func findingID(category, path string, line int, detail string) string {
	h := sha256.Sum256([]byte(detail))
	return fmt.Sprintf("%s:%s:%d:%x", category, path, line, h[:4])
}
