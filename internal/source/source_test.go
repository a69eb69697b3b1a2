package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPathsWalksAndSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "sub/util.ts", "export const x = 1\n")
	writeFile(t, dir, "node_modules/dep/index.js", "module.exports = {}\n")
	writeFile(t, dir, ".git/config", "[core]\n")

	files, err := LoadPaths([]string{dir})
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	for _, f := range files {
		if strings.Contains(f.Path, "node_modules") || strings.Contains(f.Path, ".git") {
			t.Errorf("skipped directory leaked into results: %s", f.Path)
		}
	}
}

func TestLoadPathsDropsBinary(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "blob.bin")
	if err := os.WriteFile(bin, []byte{0x00, 0x01, 0x02, 'a'}, 0o644); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "ok.py", "import os\n")

	files, err := LoadPaths([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Ext != ".py" {
		t.Fatalf("expected only ok.py, got %+v", files)
	}
}

func TestFileExtLowercased(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "Widget.TSX", "const a = 1\n")

	files, err := LoadPaths([]string{p})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Ext != ".tsx" {
		t.Fatalf("expected .tsx ext, got %+v", files)
	}
}

const stagedDiff = `diff --git a/app.ts b/app.ts
index abc1234..def5678 100644
--- a/app.ts
+++ b/app.ts
@@ -1,2 +1,4 @@
 import fs from 'fs'
+import {left} from 'left-pad-pro'
+const y = left('x', 4)
 const z = 1
`

func TestChangedLines(t *testing.T) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(stagedDiff))
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed) != 1 {
		t.Fatalf("expected 1 file, got %d", len(parsed))
	}

	lines := changedLines(parsed[0])
	for _, want := range []int{2, 3} {
		if !lines[want] {
			t.Errorf("expected line %d marked changed, got %v", want, lines)
		}
	}
	if lines[1] || lines[4] {
		t.Errorf("context lines must not be marked changed: %v", lines)
	}
}

func TestLines(t *testing.T) {
	f := File{Content: "a\r\nb\nc"}
	got := f.Lines()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("Lines() = %v", got)
	}
}
