package suggest

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/sprite-ai/codemend/internal/model"
)

const (
	defaultMaxConcurrency = 3
	defaultContextRadius  = 3
)

// Enricher attaches fix candidates to eligible findings by consulting a
// suggestion engine under bounded concurrency.
type Enricher struct {
	engine  Engine
	allowed map[string]bool
	maxConc int
	radius  int
	logger  hclog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithAllowedCategories overrides the category allow-set.
func WithAllowedCategories(cats map[string]bool) Option {
	return func(e *Enricher) { e.allowed = cats }
}

// WithMaxConcurrency bounds in-flight engine calls (minimum 1).
func WithMaxConcurrency(n int) Option {
	return func(e *Enricher) {
		if n >= 1 {
			e.maxConc = n
		}
	}
}

// WithContextRadius sets how many lines around a finding go to the engine.
func WithContextRadius(n int) Option {
	return func(e *Enricher) {
		if n >= 0 {
			e.radius = n
		}
	}
}

// NewEnricher builds an Enricher around the given engine.
func NewEnricher(engine Engine, logger hclog.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	e := &Enricher{
		engine:  engine,
		allowed: DefaultAllowedCategories(),
		maxConc: defaultMaxConcurrency,
		radius:  defaultContextRadius,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a slice with the same length and order as findings, where
// eligible findings may have gained a fix. When the engine is unavailable
// the input is returned unchanged; that degradation is silent by contract.
//
// Eligible findings are dispatched in batches of the configured concurrency;
// batches run sequentially, calls within a batch concurrently. A failed or
// unparsable engine call degrades only its own finding.
func (e *Enricher) Enrich(ctx context.Context, findings []model.Finding, fileContents map[string]string) []model.Finding {
	if e.engine == nil || !e.engine.IsAvailable(ctx) {
		e.logger.Info("suggestion engine unavailable, skipping enrichment")
		return findings
	}

	out := make([]model.Finding, len(findings))
	copy(out, findings)

	var eligible []int
	for i, f := range findings {
		if f.HasFix() || f.FilePath == "" {
			continue
		}
		if !e.allowed[f.Category] {
			continue
		}
		if _, ok := fileContents[f.FilePath]; !ok {
			continue
		}
		eligible = append(eligible, i)
	}

	e.logger.Debug("enriching findings", "eligible", len(eligible), "batch_size", e.maxConc)

	for start := 0; start < len(eligible); start += e.maxConc {
		end := start + e.maxConc
		if end > len(eligible) {
			end = len(eligible)
		}

		var wg sync.WaitGroup
		for _, idx := range eligible[start:end] {
			wg.Add(1)
			go func() {
				defer wg.Done()
				e.enrichOne(ctx, &out[idx], fileContents[out[idx].FilePath])
			}()
		}
		wg.Wait()
	}

	return out
}

func (e *Enricher) enrichOne(ctx context.Context, finding *model.Finding, content string) {
	fctx := buildContext(finding, content, e.radius)

	fix, err := e.engine.GenerateFix(ctx, *finding, fctx)
	if err != nil {
		e.logger.Debug("engine call failed", "finding", finding.ID, "error", err)
		return
	}
	if fix == nil || fix.Search == "" {
		return
	}
	finding.Fix = fix
}

// buildContext assembles the code window around the finding, clipped to
// file bounds.
func buildContext(finding *model.Finding, content string, radius int) FixContext {
	fctx := FixContext{
		FileContent: content,
		FilePath:    finding.FilePath,
		FileExt:     strings.ToLower(filepath.Ext(finding.FilePath)),
	}

	lines := strings.Split(content, "\n")
	if finding.Line >= 1 && finding.Line <= len(lines) {
		start := finding.Line - 1 - radius
		if start < 0 {
			start = 0
		}
		end := finding.Line + radius
		if end > len(lines) {
			end = len(lines)
		}
		fctx.Surrounding = lines[start:end]
		fctx.WindowStart = start + 1
	}
	return fctx
}

