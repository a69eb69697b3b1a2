package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AnalyzerStats records what one analyzer did during a run.
type AnalyzerStats struct {
	Name          string        `json:"name"`
	FilesAnalyzed int           `json:"files_analyzed"`
	Duration      time.Duration `json:"duration"`
	Failed        bool          `json:"failed,omitempty"`
}

// AnalysisReport holds the aggregated findings from one orchestrator run.
type AnalysisReport struct {
	RunID     string          `json:"run_id"`
	StartedAt time.Time       `json:"started_at"`
	Findings  []Finding       `json:"findings"`
	Analyzers []AnalyzerStats `json:"analyzers"`
}

// NewReport creates an empty report stamped with a fresh run ID.
func NewReport() *AnalysisReport {
	return &AnalysisReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// ByFile returns findings grouped by file path. Pipeline-level findings
// (empty FilePath) group under the empty key.
func (r *AnalysisReport) ByFile() map[string][]Finding {
	m := make(map[string][]Finding)
	for _, f := range r.Findings {
		m[f.FilePath] = append(m[f.FilePath], f)
	}
	return m
}

// BySeverity returns findings at or above the given severity.
func (r *AnalysisReport) BySeverity(min Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity >= min {
			out = append(out, f)
		}
	}
	return out
}

// WithFixes returns only findings that carry a usable fix.
func (r *AnalysisReport) WithFixes() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.HasFix() {
			out = append(out, f)
		}
	}
	return out
}

// MaxSeverity returns the highest severity among all findings.
func (r *AnalysisReport) MaxSeverity() Severity {
	max := SeverityLow
	for _, f := range r.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}

// Summary returns a one-line summary of findings, highest severity first.
func (r *AnalysisReport) Summary() string {
	if len(r.Findings) == 0 {
		return "No issues found"
	}

	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}

	var parts []string
	for _, s := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow} {
		if c := counts[s]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, s))
		}
	}
	return strings.Join(parts, ", ")
}
