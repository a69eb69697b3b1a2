package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sprite-ai/codemend/internal/model"
)

func conf(v float64) *float64 { return &v }

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestApplyFixSuccess(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.ts", "import {X} from 'pkg'\nconst y = 1\n")

	p := New(nil, WithMinConfidence(0.8))
	results := p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix: &model.FixCandidate{
			Kind:       model.FixLiteral,
			Search:     "'pkg'",
			Replace:    "'pkg2'",
			Confidence: conf(0.9),
		},
	}})

	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if got := readBack(t, path); got != "import {X} from 'pkg2'\nconst y = 1\n" {
		t.Errorf("file content = %q", got)
	}

	snap := results[0].SnapshotPath
	if snap != path+SnapshotSuffix {
		t.Errorf("snapshot path = %q", snap)
	}
	if readBack(t, snap) != "import {X} from 'pkg'\nconst y = 1\n" {
		t.Error("snapshot does not hold pre-patch content")
	}
	if results[0].Stats.LinesChanged != 1 || results[0].Stats.CharsChanged == 0 {
		t.Errorf("stats = %+v", results[0].Stats)
	}
}

func TestConfidenceThresholdFiltersBeforeGrouping(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.ts", "import {X} from 'pkg'\n")

	p := New(nil, WithMinConfidence(0.95))
	results := p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix:      &model.FixCandidate{Search: "'pkg'", Replace: "'pkg2'", Confidence: conf(0.9)},
	}})

	if len(results) != 1 || results[0].Success {
		t.Fatalf("expected filtered failure, got %+v", results)
	}
	if readBack(t, path) != "import {X} from 'pkg'\n" {
		t.Error("filtered finding must not write")
	}
	if _, err := os.Stat(path + SnapshotSuffix); !os.IsNotExist(err) {
		t.Error("filtered finding must not create a snapshot")
	}
}

func TestMissingConfidenceAlwaysPasses(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "old()\n")

	p := New(nil, WithMinConfidence(0.99))
	results := p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix:      &model.FixCandidate{Search: "old()", Replace: "new()"},
	}})

	if !results[0].Success {
		t.Fatalf("missing confidence counts as 1.0, got %+v", results[0])
	}
	if readBack(t, path) != "new()\n" {
		t.Error("fix not applied")
	}
}

func TestNoFixRejectedWithoutSideEffect(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "content\n")

	p := New(nil)
	results := p.ApplyFixes([]model.Finding{
		{ID: "nofix", FilePath: path},
		{ID: "emptyfix", FilePath: path, Fix: &model.FixCandidate{}},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Success || r.Error == "" {
			t.Errorf("expected up-front rejection, got %+v", r)
		}
	}
	if readBack(t, path) != "content\n" {
		t.Error("rejected findings must not touch the file")
	}
}

func TestSearchMissLeavesFileByteIdentical(t *testing.T) {
	dir := t.TempDir()
	content := "alpha\nbeta\ngamma\n"
	path := writeTestFile(t, dir, "a.go", content)

	p := New(nil)
	results := p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix:      &model.FixCandidate{Search: "not-present", Replace: "x"},
	}})

	if results[0].Success {
		t.Fatal("absent search text must fail")
	}
	if readBack(t, path) != content {
		t.Error("file must stay byte-identical after a failed fix")
	}
}

func TestCompositionalFixOrdering(t *testing.T) {
	dir := t.TempDir()
	content := "step_one()\n"
	path := writeTestFile(t, dir, "a.go", content)

	// Fix #2's search text only exists after fix #1 runs.
	first := model.Finding{ID: "f1", FilePath: path,
		Fix: &model.FixCandidate{Search: "step_one()", Replace: "step_two()"}}
	second := model.Finding{ID: "f2", FilePath: path,
		Fix: &model.FixCandidate{Search: "step_two()", Replace: "step_three()"}}

	p := New(nil)
	results := p.ApplyFixes([]model.Finding{first, second})
	if !results[0].Success || !results[1].Success {
		t.Fatalf("declared order should compose, got %+v", results)
	}
	if readBack(t, path) != "step_three()\n" {
		t.Errorf("content = %q", readBack(t, path))
	}

	// Reversed order: fix #2 cannot find its target yet, fix #1 still lands.
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	results = p.ApplyFixes([]model.Finding{second, first})
	if results[0].Success {
		t.Error("reversed fix #2 should fail: target does not exist yet")
	}
	if !results[1].Success {
		t.Error("fix #1 should still succeed in reversed order")
	}
	if readBack(t, path) != "step_two()\n" {
		t.Errorf("content = %q", readBack(t, path))
	}
}

func TestMissingFileFailsWholeGroup(t *testing.T) {
	p := New(nil)
	results := p.ApplyFixes([]model.Finding{
		{ID: "f1", FilePath: "/no/such/file.go", Fix: &model.FixCandidate{Search: "a", Replace: "b"}},
		{ID: "f2", FilePath: "/no/such/file.go", Fix: &model.FixCandidate{Search: "c", Replace: "d"}},
	})

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Success {
			t.Errorf("missing file must fail every finding in the group: %+v", r)
		}
	}
}

func TestDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	content := "old()\n"
	path := writeTestFile(t, dir, "a.go", content)

	p := New(nil, WithDryRun(true))
	results := p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix:      &model.FixCandidate{Search: "old()", Replace: "new()"},
	}})

	if !results[0].Success {
		t.Fatalf("dry run still reports would-be success, got %+v", results[0])
	}
	if results[0].SnapshotPath != "" {
		t.Error("dry run must not take a snapshot")
	}
	if readBack(t, path) != content {
		t.Error("dry run must not write")
	}
	if _, err := os.Stat(path + SnapshotSuffix); !os.IsNotExist(err) {
		t.Error("dry run left a snapshot on disk")
	}
}

func TestNoWriteWhenNothingApplied(t *testing.T) {
	dir := t.TempDir()
	content := "keep\n"
	path := writeTestFile(t, dir, "a.go", content)

	p := New(nil)
	p.ApplyFixes([]model.Finding{{
		ID:       "f1",
		FilePath: path,
		Fix:      &model.FixCandidate{Search: "absent", Replace: "x"},
	}})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if readBack(t, path) != content {
		t.Error("content changed despite no applied fix")
	}
	_ = info
}

func TestRollbackRestoresDistinctPairs(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "original-a\n")
	pathB := writeTestFile(t, dir, "b.go", "original-b\n")

	p := New(nil)
	results := p.ApplyFixes([]model.Finding{
		{ID: "a1", FilePath: pathA, Fix: &model.FixCandidate{Search: "original-a", Replace: "patched-a"}},
		{ID: "b1", FilePath: pathB, Fix: &model.FixCandidate{Search: "original-b", Replace: "patched-b"}},
	})

	if readBack(t, pathA) != "patched-a\n" || readBack(t, pathB) != "patched-b\n" {
		t.Fatal("patching precondition failed")
	}

	restored := p.Rollback(results)
	if restored != 2 {
		t.Errorf("restored = %d, want 2", restored)
	}
	if readBack(t, pathA) != "original-a\n" || readBack(t, pathB) != "original-b\n" {
		t.Error("rollback did not restore original content")
	}
}

func TestCleanupRemovesSnapshots(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "old\n")

	p := New(nil)
	results := p.ApplyFixes([]model.Finding{{
		ID: "f1", FilePath: path,
		Fix: &model.FixCandidate{Search: "old", Replace: "new"},
	}})

	snap := results[0].SnapshotPath
	if _, err := os.Stat(snap); err != nil {
		t.Fatalf("snapshot missing before cleanup: %v", err)
	}

	p.Cleanup(results)
	if _, err := os.Stat(snap); !os.IsNotExist(err) {
		t.Error("snapshot survived cleanup")
	}
}

func TestDiffStats(t *testing.T) {
	stats := diffStats("a\nb\nc\n", "a\nB\nc\n")
	if stats.LinesChanged != 1 {
		t.Errorf("LinesChanged = %d, want 1", stats.LinesChanged)
	}
	if stats.CharsChanged != 1 {
		t.Errorf("CharsChanged = %d, want 1", stats.CharsChanged)
	}

	if s := diffStats("same", "same"); s.LinesChanged != 0 || s.CharsChanged != 0 {
		t.Errorf("identical content should have zero stats, got %+v", s)
	}
}
