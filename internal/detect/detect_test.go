package detect

import (
	"context"
	"errors"
	"testing"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

type stubAnalyzer struct {
	name     string
	findings []model.Finding
	err      error
	panics   bool
}

func (s *stubAnalyzer) Name() string          { return s.name }
func (s *stubAnalyzer) Extensions() []string  { return nil }
func (s *stubAnalyzer) Detect(files []source.File) (Result, error) {
	if s.panics {
		panic("boom")
	}
	return Result{Findings: s.findings, FilesAnalyzed: len(files)}, s.err
}

func TestRunAggregatesInDeclarationOrder(t *testing.T) {
	analyzers := []Analyzer{
		&stubAnalyzer{name: "a", findings: []model.Finding{{ID: "a1"}, {ID: "a2"}}},
		&stubAnalyzer{name: "b", findings: []model.Finding{{ID: "b1"}}},
	}

	report := Run(context.Background(), analyzers, nil, nil)

	var ids []string
	for _, f := range report.Findings {
		ids = append(ids, f.ID)
	}
	want := []string{"a1", "a2", "b1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
}

func TestRunIsolatesAnalyzerError(t *testing.T) {
	analyzers := []Analyzer{
		&stubAnalyzer{name: "ok", findings: []model.Finding{{ID: "ok1", FilePath: "a.go"}}},
		&stubAnalyzer{name: "broken", err: errors.New("bad regex")},
	}

	report := Run(context.Background(), analyzers, nil, nil)

	if len(report.Findings) != 2 {
		t.Fatalf("expected 2 findings (1 real + 1 synthetic), got %d", len(report.Findings))
	}

	synthetic := report.Findings[1]
	if synthetic.Severity != model.SeverityCritical {
		t.Errorf("synthetic finding severity = %v, want critical", synthetic.Severity)
	}
	if synthetic.Category != "broken" {
		t.Errorf("synthetic finding category = %q, want analyzer name", synthetic.Category)
	}
	if synthetic.FilePath != "" {
		t.Errorf("synthetic finding must have empty file path, got %q", synthetic.FilePath)
	}
}

func TestRunIsolatesPanic(t *testing.T) {
	analyzers := []Analyzer{
		&stubAnalyzer{name: "panicky", panics: true},
		&stubAnalyzer{name: "ok", findings: []model.Finding{{ID: "ok1"}}},
	}

	report := Run(context.Background(), analyzers, nil, nil)

	if len(report.Findings) != 2 {
		t.Fatalf("expected synthetic + real finding, got %d", len(report.Findings))
	}
	if report.Findings[0].Severity != model.SeverityCritical {
		t.Errorf("panic should surface as critical, got %v", report.Findings[0].Severity)
	}
	if !report.Analyzers[0].Failed {
		t.Error("analyzer stats should mark the panicking analyzer failed")
	}
}

func TestFilterByExt(t *testing.T) {
	files := []source.File{
		{Path: "a.go", Ext: ".go"},
		{Path: "b.py", Ext: ".py"},
		{Path: "c.rb", Ext: ".rb"},
	}

	got := filterByExt(files, []string{".go", ".py"})
	if len(got) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got))
	}

	all := filterByExt(files, nil)
	if len(all) != 3 {
		t.Errorf("empty extension list should keep all files, got %d", len(all))
	}
}

func TestInScope(t *testing.T) {
	whole := source.File{}
	if !inScope(&whole, 99) {
		t.Error("file without changed-line set must be fully in scope")
	}

	staged := source.File{ChangedLines: map[int]bool{3: true}}
	if !inScope(&staged, 3) || inScope(&staged, 4) {
		t.Error("changed-line scoping broken")
	}
}
