// Package source loads the set of files the pipeline analyzes.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// maxFileSize caps how large a file we will load for analysis.
const maxFileSize = 2 << 20 // 2MB

// File is one source file handed to analyzers.
type File struct {
	Path    string
	Content string
	Ext     string // lowercased extension including the dot, e.g. ".ts"

	// ChangedLines restricts which lines were touched (1-indexed) when the
	// file came from a staged-changes provider. Nil means "whole file".
	ChangedLines map[int]bool
}

// Lines splits the content into lines without the trailing newlines.
func (f *File) Lines() []string {
	return strings.Split(strings.ReplaceAll(f.Content, "\r\n", "\n"), "\n")
}

// skipDirs are directories never descended into during discovery.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
}

// LoadPaths reads the given files or directories. Directories are walked
// recursively, skipping well-known non-source directories. Binary files and
// files over the size cap are silently dropped.
func LoadPaths(paths []string) ([]File, error) {
	var files []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if f, ok := loadOne(p); ok {
				files = append(files, f)
			}
			continue
		}

		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if f, ok := loadOne(path); ok {
				files = append(files, f)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	return files, nil
}

func loadOne(path string) (File, bool) {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxFileSize {
		return File{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, false
	}
	if isBinary(data) {
		return File{}, false
	}

	return File{
		Path:    path,
		Content: string(data),
		Ext:     strings.ToLower(filepath.Ext(path)),
	}, true
}

// isBinary uses a NUL-byte / invalid-UTF-8 heuristic over the first chunk.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8000 {
		probe = probe[:8000]
	}
	for _, b := range probe {
		if b == 0 {
			return true
		}
	}
	return len(probe) > 0 && !utf8.Valid(probe) && !utf8.Valid(data)
}
