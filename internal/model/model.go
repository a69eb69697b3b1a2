// Package model defines the core data types shared across codemend.
package model

import "fmt"

// Severity categorizes how serious a finding is.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name back to its enum value.
// Unknown names map to SeverityLow.
func ParseSeverity(s string) Severity {
	switch s {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// FixKind describes how a FixCandidate was produced and how it applies.
type FixKind int

const (
	FixLiteral   FixKind = iota // exact substring replacement
	FixPattern                  // search came from a pattern match
	FixGenerated                // produced by the suggestion engine
)

func (k FixKind) String() string {
	switch k {
	case FixLiteral:
		return "literal-replace"
	case FixPattern:
		return "pattern-replace"
	case FixGenerated:
		return "externally-generated"
	default:
		return "unknown"
	}
}

// FixCandidate is a proposed textual repair for a finding.
// Confidence is optional; nil means "apply by default".
type FixCandidate struct {
	Kind        FixKind  `json:"kind"`
	Search      string   `json:"search"`
	Replace     string   `json:"replace"`
	Confidence  *float64 `json:"confidence,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// ConfidenceOr returns the confidence value, or def when unset.
func (fc *FixCandidate) ConfidenceOr(def float64) float64 {
	if fc.Confidence == nil {
		return def
	}
	return *fc.Confidence
}

// Finding is one detected defect instance. A Finding with an empty FilePath
// represents a pipeline-level error (an analyzer crashed), not a code location.
type Finding struct {
	ID         string            `json:"id"`
	Severity   Severity          `json:"severity"`
	Category   string            `json:"category"`
	FilePath   string            `json:"file_path"`
	Line       int               `json:"line"`   // 1-indexed
	Column     int               `json:"column"` // 0-indexed, 0 when unknown
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Evidence   string            `json:"evidence,omitempty"`
	Fix        *FixCandidate     `json:"fix,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (f Finding) String() string {
	loc := f.FilePath
	if loc == "" {
		loc = "<pipeline>"
	}
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", loc, f.Line)
	}
	return fmt.Sprintf("[%s] %s: %s", f.Category, loc, f.Message)
}

// HasFix reports whether the finding carries a usable fix candidate.
func (f Finding) HasFix() bool {
	return f.Fix != nil && (f.Fix.Search != "" || f.Fix.Replace != "")
}

// ChangeStats quantifies the textual delta of an applied fix.
type ChangeStats struct {
	LinesChanged int `json:"lines_changed"`
	CharsChanged int `json:"chars_changed"`
}

// PatchResult is the outcome of applying one finding's fix to one file.
// Created once per (file, finding) pair; never mutated after creation.
type PatchResult struct {
	Success      bool        `json:"success"`
	FilePath     string      `json:"file_path"`
	FindingID    string      `json:"finding_id"`
	SnapshotPath string      `json:"snapshot_path,omitempty"`
	Error        string      `json:"error,omitempty"`
	Stats        ChangeStats `json:"stats"`
}

// ValidationOutcome is the result of one external validation procedure
// run after a patch pass.
type ValidationOutcome struct {
	Procedure string `json:"procedure"`
	Passed    bool   `json:"passed"`
	Skipped   bool   `json:"skipped,omitempty"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
	Duration  int64  `json:"duration_ms"`
}

// AllPassed reports whether every attempted (non-skipped) procedure passed.
func AllPassed(outcomes []ValidationOutcome) bool {
	for _, o := range outcomes {
		if o.Skipped {
			continue
		}
		if !o.Passed {
			return false
		}
	}
	return true
}
