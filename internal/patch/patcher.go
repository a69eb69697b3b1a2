// Package patch applies fix candidates to files transactionally, with a
// pre-mutation snapshot per file as the rollback primitive.
package patch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/sprite-ai/codemend/internal/model"
)

// SnapshotSuffix is appended to a file's path to name its snapshot.
const SnapshotSuffix = ".codemend.bak"

// Patcher applies approved fixes. Files are processed one at a time and
// fixes within a file sequentially; each fix's search must match the
// cumulative result of the fixes before it.
type Patcher struct {
	minConfidence float64 // 0 disables the threshold
	dryRun        bool
	logger        hclog.Logger
}

// Option configures a Patcher.
type Option func(*Patcher)

// WithMinConfidence filters out fixes below the threshold before grouping.
// Fixes without a confidence value count as 1.0 and always pass.
func WithMinConfidence(min float64) Option {
	return func(p *Patcher) { p.minConfidence = min }
}

// WithDryRun previews: no snapshot is taken and no file is written.
func WithDryRun(dry bool) Option {
	return func(p *Patcher) { p.dryRun = dry }
}

// New builds a Patcher. A nil logger discards logs.
func New(logger hclog.Logger, opts ...Option) *Patcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	p := &Patcher{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ApplyFixes applies each finding's fix and returns one PatchResult per
// finding, in input order within each file group.
func (p *Patcher) ApplyFixes(findings []model.Finding) []model.PatchResult {
	var results []model.PatchResult

	// Up-front rejection and confidence filtering, before grouping.
	grouped := make(map[string][]model.Finding)
	var fileOrder []string

	for _, f := range findings {
		if f.Fix == nil || (f.Fix.Search == "" && f.Fix.Replace == "") {
			results = append(results, model.PatchResult{
				FilePath:  f.FilePath,
				FindingID: f.ID,
				Error:     "finding has no applicable fix",
			})
			continue
		}
		if p.minConfidence > 0 && f.Fix.ConfidenceOr(1.0) < p.minConfidence {
			results = append(results, model.PatchResult{
				FilePath:  f.FilePath,
				FindingID: f.ID,
				Error: fmt.Sprintf("fix confidence %.2f below threshold %.2f",
					f.Fix.ConfidenceOr(1.0), p.minConfidence),
			})
			continue
		}

		if _, seen := grouped[f.FilePath]; !seen {
			fileOrder = append(fileOrder, f.FilePath)
		}
		grouped[f.FilePath] = append(grouped[f.FilePath], f)
	}

	// Strictly sequential across files; never interleaved.
	for _, path := range fileOrder {
		results = append(results, p.applyFile(path, grouped[path])...)
	}

	return results
}

// applyFile runs the per-file procedure. Any panic mid-procedure restores
// the snapshot so the file is never left partially patched.
func (p *Patcher) applyFile(path string, group []model.Finding) (results []model.PatchResult) {
	failAll := func(msg string) []model.PatchResult {
		out := make([]model.PatchResult, 0, len(group))
		for _, f := range group {
			out = append(out, model.PatchResult{FilePath: path, FindingID: f.ID, Error: msg})
		}
		return out
	}

	info, err := os.Stat(path)
	if err != nil {
		return failAll(fmt.Sprintf("file not found: %v", err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return failAll(fmt.Sprintf("reading file: %v", err))
	}
	original := string(data)

	snapshotPath := ""
	if !p.dryRun {
		snapshotPath = path + SnapshotSuffix
		if err := os.WriteFile(snapshotPath, data, info.Mode().Perm()); err != nil {
			return failAll(fmt.Sprintf("creating snapshot: %v", err))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if snapshotPath != "" {
				if err := copyFile(snapshotPath, path); err != nil {
					p.logger.Error("restore after panic failed", "file", path, "error", err)
				}
			}
			results = failAll(fmt.Sprintf("patching aborted: %v", r))
		}
	}()

	working := original
	perFinding := make([]model.PatchResult, 0, len(group))

	for _, f := range group {
		res := model.PatchResult{FilePath: path, FindingID: f.ID, SnapshotPath: snapshotPath}

		switch {
		case f.Fix.Search == "":
			res.Error = "fix has no search text"
		case !strings.Contains(working, f.Fix.Search):
			// The search target matches against the current working content,
			// not the original; a prior fix may have altered this region.
			res.Error = "search text not found in current file content"
		default:
			working = strings.Replace(working, f.Fix.Search, f.Fix.Replace, 1)
			res.Success = true
		}
		perFinding = append(perFinding, res)
	}

	if working != original && !p.dryRun {
		if err := writeAtomic(path, []byte(working), info.Mode().Perm()); err != nil {
			if restoreErr := copyFile(snapshotPath, path); restoreErr != nil {
				p.logger.Error("restore after write failure failed", "file", path, "error", restoreErr)
			}
			return failAll(fmt.Sprintf("writing patched file: %v", err))
		}
	}

	stats := diffStats(original, working)
	for i := range perFinding {
		if perFinding[i].Success {
			perFinding[i].Stats = stats
		}
	}

	p.logger.Debug("patched file", "file", path,
		"fixes", len(group), "lines_changed", stats.LinesChanged, "dry_run", p.dryRun)

	return perFinding
}

// Rollback restores every distinct (file, snapshot) pair from the given
// results where the snapshot still exists. Returns the number restored.
func (p *Patcher) Rollback(results []model.PatchResult) int {
	restored := 0
	done := make(map[string]bool)

	for _, r := range results {
		if r.SnapshotPath == "" || done[r.SnapshotPath] {
			continue
		}
		done[r.SnapshotPath] = true

		if _, err := os.Stat(r.SnapshotPath); err != nil {
			continue
		}
		if err := copyFile(r.SnapshotPath, r.FilePath); err != nil {
			p.logger.Warn("rollback failed", "file", r.FilePath, "error", err)
			continue
		}
		restored++
	}
	return restored
}

// Cleanup deletes snapshot files referenced by the results. Best-effort;
// individual delete failures are swallowed.
func (p *Patcher) Cleanup(results []model.PatchResult) {
	done := make(map[string]bool)
	for _, r := range results {
		if r.SnapshotPath == "" || done[r.SnapshotPath] {
			continue
		}
		done[r.SnapshotPath] = true
		if err := os.Remove(r.SnapshotPath); err != nil && !os.IsNotExist(err) {
			p.logger.Debug("snapshot cleanup failed", "snapshot", r.SnapshotPath, "error", err)
		}
	}
}

// writeAtomic writes via a temp file in the same directory plus rename.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".codemend-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	return os.WriteFile(dst, data, perm)
}

// diffStats measures the changed region between two versions by trimming
// the common prefix and suffix.
func diffStats(before, after string) model.ChangeStats {
	if before == after {
		return model.ChangeStats{}
	}

	charPrefix := commonPrefix(before, after)
	charSuffix := commonSuffix(before[charPrefix:], after[charPrefix:])
	chars := max(len(before), len(after)) - charPrefix - charSuffix

	bl := strings.Split(before, "\n")
	al := strings.Split(after, "\n")
	linePrefix := 0
	for linePrefix < len(bl) && linePrefix < len(al) && bl[linePrefix] == al[linePrefix] {
		linePrefix++
	}
	lineSuffix := 0
	for lineSuffix < len(bl)-linePrefix && lineSuffix < len(al)-linePrefix &&
		bl[len(bl)-1-lineSuffix] == al[len(al)-1-lineSuffix] {
		lineSuffix++
	}
	lines := max(len(bl), len(al)) - linePrefix - lineSuffix

	return model.ChangeStats{LinesChanged: lines, CharsChanged: chars}
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
