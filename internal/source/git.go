package source

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// RepoRoot returns the git repository root for the working directory.
func RepoRoot() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not in a git repository (or git not installed): %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LoadTracked loads every file git tracks under repoDir.
func LoadTracked(repoDir string) ([]File, error) {
	cmd := exec.Command("git", "ls-files")
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []File
	for _, rel := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if rel == "" {
			continue
		}
		if f, ok := loadOne(filepath.Join(repoDir, rel)); ok {
			files = append(files, f)
		}
	}
	return files, nil
}

// LoadStaged loads the files with staged changes, recording which lines the
// staged diff touched so analyzers can scope findings to the change.
// Content comes from the working tree, not the index; the fix pipeline
// patches working-tree files.
func LoadStaged(repoDir string) ([]File, error) {
	cmd := exec.Command("git", "diff", "--cached")
	cmd.Dir = repoDir
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff --cached: %w", err)
	}

	parsed, _, err := gitdiff.Parse(strings.NewReader(string(out)))
	if err != nil {
		return nil, fmt.Errorf("parsing staged diff: %w", err)
	}

	var files []File
	for _, df := range parsed {
		if df.IsDelete || df.IsBinary {
			continue
		}
		name := df.NewName
		if name == "" {
			name = df.OldName
		}

		f, ok := loadOne(filepath.Join(repoDir, name))
		if !ok {
			continue
		}
		f.ChangedLines = changedLines(df)
		files = append(files, f)
	}
	return files, nil
}

// changedLines collects the 1-indexed new-file line numbers the diff added.
func changedLines(df *gitdiff.File) map[int]bool {
	lines := make(map[int]bool)
	for _, frag := range df.TextFragments {
		lineNum := int(frag.NewPosition)
		for _, line := range frag.Lines {
			if line.Op == gitdiff.OpAdd {
				lines[lineNum] = true
			}
			if line.Op == gitdiff.OpAdd || line.Op == gitdiff.OpContext {
				lineNum++
			}
		}
	}
	return lines
}
