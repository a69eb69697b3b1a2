package detect

import (
	"context"
	"strings"
	"testing"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/registry"
	"github.com/sprite-ai/codemend/internal/source"
)

type fakeRegistry struct {
	missing map[string]bool
}

func (r *fakeRegistry) Lookup(_ context.Context, _ registry.Ecosystem, name string) registry.Existence {
	if r.missing[name] {
		return registry.Missing
	}
	return registry.Exists
}

func TestHallucinationMissingPackage(t *testing.T) {
	reg := &fakeRegistry{missing: map[string]bool{"left-pad-ultra": true}}
	a := NewHallucinationAnalyzer(reg)

	files := []source.File{{
		Path: "app.ts",
		Ext:  ".ts",
		Content: "import fs from 'fs'\n" +
			"import {pad} from 'left-pad-ultra'\n" +
			"import express from 'express'\n" +
			"import helper from './helper'\n",
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d: %v", len(res.Findings), res.Findings)
	}
	f := res.Findings[0]
	if f.Line != 2 || f.Severity != model.SeverityCritical || f.Category != "hallucination" {
		t.Errorf("unexpected finding: %+v", f)
	}
	if f.Metadata["package"] != "left-pad-ultra" {
		t.Errorf("metadata package = %q", f.Metadata["package"])
	}
}

func TestHallucinationScopedAndSubpath(t *testing.T) {
	cases := []struct {
		imp  string
		want string
		ok   bool
	}{
		{"@types/node", "@types/node", true},
		{"@scope/pkg/sub/path", "@scope/pkg", true},
		{"lodash/get", "lodash", true},
		{"./relative", "", false},
		{"node:fs", "", false},
		{"fs", "", false},
	}
	for _, c := range cases {
		_, got, ok := normalizeImport(c.imp, ".ts")
		if ok != c.ok || got != c.want {
			t.Errorf("normalizeImport(%q) = %q ok=%v, want %q ok=%v", c.imp, got, ok, c.want, c.ok)
		}
	}
}

func TestHallucinationPythonStdlibExempt(t *testing.T) {
	if _, _, ok := normalizeImport("os.path", ".py"); ok {
		t.Error("os.path should be exempt as stdlib")
	}
	eco, pkg, ok := normalizeImport("flask_extras.helpers", ".py")
	if !ok || eco != registry.PyPI || pkg != "flask_extras" {
		t.Errorf("got %v/%q ok=%v", eco, pkg, ok)
	}
}

func TestHallucinationInventedAPI(t *testing.T) {
	a := NewHallucinationAnalyzer(nil)
	files := []source.File{{
		Path:    "io.js",
		Ext:     ".js",
		Content: "const data = await fs.readFileAsync('x.txt')\n",
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 || !strings.Contains(res.Findings[0].Message, "readFileAsync") {
		t.Fatalf("expected invented-API finding, got %v", res.Findings)
	}
}

func TestHallucinationNilRegistrySkipsImports(t *testing.T) {
	a := NewHallucinationAnalyzer(nil)
	files := []source.File{{
		Path:    "app.ts",
		Ext:     ".ts",
		Content: "import {x} from 'surely-not-a-package-xyz'\n",
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 0 {
		t.Errorf("import checks need a registry; got %v", res.Findings)
	}
}

func TestDeprecatedAttachesFix(t *testing.T) {
	a := &DeprecatedAnalyzer{}
	files := []source.File{{
		Path:    "read.go",
		Ext:     ".go",
		Content: "data, err := ioutil.ReadFile(path)\n",
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(res.Findings))
	}

	f := res.Findings[0]
	if !f.HasFix() {
		t.Fatal("ioutil.ReadFile should carry a mechanical fix")
	}
	if f.Fix.Search != "ioutil.ReadFile" || f.Fix.Replace != "os.ReadFile" {
		t.Errorf("unexpected fix: %+v", f.Fix)
	}
	if f.Fix.ConfidenceOr(0) != 0.9 {
		t.Errorf("confidence = %v", f.Fix.ConfidenceOr(0))
	}
}

func TestDeprecatedWithoutMechanicalFix(t *testing.T) {
	a := &DeprecatedAnalyzer{}
	files := []source.File{{
		Path:    "app.jsx",
		Ext:     ".jsx",
		Content: "componentWillMount() {\n  this.load()\n}\n",
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 || res.Findings[0].HasFix() {
		t.Fatalf("componentWillMount has no mechanical fix, got %v", res.Findings)
	}
}

func TestQualitySmells(t *testing.T) {
	a := &QualityAnalyzer{}
	files := []source.File{{
		Path: "handler.py",
		Ext:  ".py",
		Content: strings.Join([]string{
			"# TODO: clean this up",
			"try:",
			"    run()",
			"except:",
			"    pass",
			"# def old_handler():",
		}, "\n"),
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}

	var kinds []string
	for _, f := range res.Findings {
		kinds = append(kinds, f.Message)
	}
	if len(res.Findings) != 3 {
		t.Fatalf("expected TODO + broad except + commented code, got %v", kinds)
	}
}

func TestQualityLongFunction(t *testing.T) {
	var b strings.Builder
	b.WriteString("func big() {\n")
	for i := 0; i < 100; i++ {
		b.WriteString("\tx := compute()\n")
	}
	b.WriteString("}\n")

	a := &QualityAnalyzer{}
	res, err := a.Detect([]source.File{{Path: "big.go", Ext: ".go", Content: b.String()}})
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, f := range res.Findings {
		if strings.Contains(f.Message, "spans") {
			found = true
			if f.Line != 1 {
				t.Errorf("long-function finding should point at the signature, got line %d", f.Line)
			}
		}
	}
	if !found {
		t.Errorf("expected long-function finding, got %v", res.Findings)
	}
}

func TestQualityDuplicateBlocks(t *testing.T) {
	block := "alpha()\nbeta()\ngamma()\ndelta()\n"
	files := []source.File{
		{Path: "a.go", Ext: ".go", Content: block},
		{Path: "b.go", Ext: ".go", Content: block},
	}

	findings := checkDuplication(files)
	if len(findings) != 1 {
		t.Fatalf("expected 1 duplicate finding, got %d: %v", len(findings), findings)
	}
	if findings[0].FilePath != "b.go" || !strings.Contains(findings[0].Message, "a.go:1") {
		t.Errorf("duplicate should be reported on the second occurrence: %+v", findings[0])
	}
}

func TestSecurityPatterns(t *testing.T) {
	a := &SecurityAnalyzer{}
	files := []source.File{{
		Path: "cfg.go",
		Ext:  ".go",
		Content: strings.Join([]string{
			`apiKey := "sk_live_abcdefgh12345678"`,
			`tls.Config{InsecureSkipVerify: true}`,
		}, "\n"),
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d: %v", len(res.Findings), res.Findings)
	}
	if res.Findings[0].Severity != model.SeverityCritical {
		t.Errorf("hardcoded secret should be critical, got %v", res.Findings[0].Severity)
	}
}

func TestPerformanceLoopChecks(t *testing.T) {
	a := &PerformanceAnalyzer{}
	files := []source.File{{
		Path: "sync.ts",
		Ext:  ".ts",
		Content: strings.Join([]string{
			"for (const id of ids) {",
			"  const row = await db.query(sql, [id])",
			"  rows.push(row)",
			"}",
		}, "\n"),
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}

	kinds := map[string]bool{}
	for _, f := range res.Findings {
		kinds[f.Metadata["kind"]] = true
	}
	if !kinds["await-in-loop"] || !kinds["query-in-loop"] {
		t.Errorf("expected await-in-loop and query-in-loop, got %v", res.Findings)
	}
}

func TestChangedLineScoping(t *testing.T) {
	a := &SecurityAnalyzer{}
	files := []source.File{{
		Path: "cfg.go",
		Ext:  ".go",
		Content: strings.Join([]string{
			`password := "supersecretvalue123"`,
			`token := "sk_live_abcdefgh12345678"`,
		}, "\n"),
		ChangedLines: map[int]bool{2: true},
	}}

	res, err := a.Detect(files)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Findings) != 1 || res.Findings[0].Line != 2 {
		t.Fatalf("expected only the staged line to be reported, got %v", res.Findings)
	}
}
