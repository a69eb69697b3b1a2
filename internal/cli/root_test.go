package cli

import (
	"testing"

	"github.com/sprite-ai/codemend/internal/detect"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"scan", "fix", "restore", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}
}

func TestFilterAnalyzers(t *testing.T) {
	all := detect.AllAnalyzers(nil)

	kept := filterAnalyzers(all, []string{"performance", "security"})
	if len(kept) != len(all)-2 {
		t.Fatalf("expected %d analyzers, got %d", len(all)-2, len(kept))
	}
	for _, a := range kept {
		if a.Name() == "performance" || a.Name() == "security" {
			t.Errorf("analyzer %q should have been skipped", a.Name())
		}
	}

	if got := filterAnalyzers(all, nil); len(got) != len(all) {
		t.Errorf("empty skip list must keep all analyzers")
	}
}

func TestToSet(t *testing.T) {
	set := toSet([]string{"a", "b"})
	if !set["a"] || !set["b"] || set["c"] {
		t.Errorf("unexpected set contents: %v", set)
	}
}
