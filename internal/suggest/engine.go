// Package suggest obtains fix candidates for findings from an external
// suggestion engine and attaches them under bounded concurrency.
package suggest

import (
	"context"

	"github.com/sprite-ai/codemend/internal/model"
)

// FixContext is the bundle of code context handed to the engine alongside
// a finding.
type FixContext struct {
	FileContent string
	FilePath    string
	FileExt     string

	// Surrounding is a window of lines around the finding, clipped to file
	// bounds. WindowStart is the 1-indexed line number of Surrounding[0].
	Surrounding []string
	WindowStart int
}

// Engine is an external service that may produce a fix for a finding.
type Engine interface {
	// IsAvailable probes the engine. The pipeline must stay fully usable
	// when this returns false.
	IsAvailable(ctx context.Context) bool

	// GenerateFix asks the engine for a textual repair. A nil candidate with
	// a nil error means the engine answered but no well-formed fix could be
	// extracted; callers treat both the same as "no fix".
	GenerateFix(ctx context.Context, finding model.Finding, fctx FixContext) (*model.FixCandidate, error)
}

// DefaultAllowedCategories is the curated set of finding categories
// considered safe to auto-repair.
func DefaultAllowedCategories() map[string]bool {
	return map[string]bool{
		"hallucination": true,
		"deprecated":    true,
		"quality":       true,
	}
}
