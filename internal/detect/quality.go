package detect

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

// Quality smell patterns.
var (
	// Broad exception handling
	broadExceptPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)except\s*:`),                            // Python: bare except
		regexp.MustCompile(`(?i)except\s+Exception\s*:`),                // Python: catch-all
		regexp.MustCompile(`(?i)catch\s*\(\s*(Exception|Error|e)\s*\)`), // Java/C#
		regexp.MustCompile(`(?i)catch\s*\{`),                            // bare catch
		regexp.MustCompile(`\.catch\(\s*(?:_|err|\(\s*\))\s*=>`),        // JS swallowed rejection
	}

	// Lines that look like disabled code, not natural comments
	commentedCodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?://|#)\s*(?:func |def |class |if |for |while |return |import |from |const |let |var )`),
		regexp.MustCompile(`^\s*(?://|#)\s*\w+\s*[({=]`),
	}

	todoPattern = regexp.MustCompile(`(?i)\b(TODO|FIXME|HACK|XXX|TEMP|TEMPORARY)\b`)

	funcStartPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+\w+`),
		regexp.MustCompile(`^\s*(?:pub(?:lic)?\s+)?(?:static\s+)?\w[\w<>,\s*\[\]]*\s+\w+\s*\([^;]*\)\s*\{`),
		regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?\w+`),
		regexp.MustCompile(`^\s*(?:async\s+)?def\s+\w+`),
	}
)

const longFunctionLines = 80

// QualityAnalyzer detects quality smells: oversized functions, leftover
// TODO markers, commented-out code, broad exception handling, and
// near-duplicate blocks.
type QualityAnalyzer struct{}

func (a *QualityAnalyzer) Name() string { return "quality" }

// Extensions is empty: quality smells are language-agnostic enough to check everywhere.
func (a *QualityAnalyzer) Extensions() []string { return nil }

func (a *QualityAnalyzer) Detect(files []source.File) (Result, error) {
	res := Result{FilesAnalyzed: len(files)}

	for i := range files {
		f := &files[i]
		res.Findings = append(res.Findings, checkLineSmells(f)...)
		res.Findings = append(res.Findings, checkLongFunctions(f)...)
	}
	res.Findings = append(res.Findings, checkDuplication(files)...)

	return res, nil
}

func checkLineSmells(f *source.File) []model.Finding {
	var findings []model.Finding
	for lineNo, line := range f.Lines() {
		lineNum := lineNo + 1
		if !inScope(f, lineNum) {
			continue
		}

		if m := todoPattern.FindString(line); m != "" {
			findings = append(findings, model.Finding{
				ID:       findingID("quality", f.Path, lineNum, "todo"),
				Severity: model.SeverityLow,
				Category: "quality",
				FilePath: f.Path,
				Line:     lineNum,
				Message:  fmt.Sprintf("Leftover %s marker", m),
				Evidence: strings.TrimSpace(line),
			})
		}

		for _, pat := range broadExceptPatterns {
			if pat.MatchString(line) {
				findings = append(findings, model.Finding{
					ID:       findingID("quality", f.Path, lineNum, "broad-except"),
					Severity: model.SeverityMedium,
					Category: "quality",
					FilePath: f.Path,
					Line:     lineNum,
					Message:  "Broad exception handling swallows errors",
					Evidence: strings.TrimSpace(line),
				})
				break
			}
		}

		for _, pat := range commentedCodePatterns {
			if pat.MatchString(line) {
				findings = append(findings, model.Finding{
					ID:       findingID("quality", f.Path, lineNum, "commented-code"),
					Severity: model.SeverityLow,
					Category: "quality",
					FilePath: f.Path,
					Line:     lineNum,
					Message:  "Commented-out code",
					Evidence: strings.TrimSpace(line),
				})
				break
			}
		}
	}
	return findings
}

// checkLongFunctions counts function length by brace depth (no AST; a
// heuristic, per design). Python functions are bounded by indentation and
// skipped here.
func checkLongFunctions(f *source.File) []model.Finding {
	if f.Ext == ".py" {
		return nil
	}

	var findings []model.Finding
	lines := f.Lines()

	inFunc := false
	depth := 0
	startLine := 0
	startText := ""

	for lineNo, line := range lines {
		lineNum := lineNo + 1

		if !inFunc {
			for _, pat := range funcStartPatterns {
				if pat.MatchString(line) && strings.Contains(line, "{") {
					inFunc = true
					depth = 0
					startLine = lineNum
					startText = strings.TrimSpace(line)
					break
				}
			}
		}

		if inFunc {
			depth += strings.Count(line, "{") - strings.Count(line, "}")
			if depth <= 0 {
				length := lineNum - startLine + 1
				if length > longFunctionLines && inScope(f, startLine) {
					findings = append(findings, model.Finding{
						ID:       findingID("quality", f.Path, startLine, "long-function"),
						Severity: model.SeverityMedium,
						Category: "quality",
						FilePath: f.Path,
						Line:     startLine,
						Message:  fmt.Sprintf("Function spans %d lines; consider splitting", length),
						Evidence: startText,
					})
				}
				inFunc = false
			}
		}
	}
	return findings
}

// checkDuplication slides a window over non-trivial lines and reports
// repeated block hashes, the second and later occurrences only.
func checkDuplication(files []source.File) []model.Finding {
	const windowSize = 4

	type blockLoc struct {
		file *source.File
		line int
	}
	blocks := make(map[string][]blockLoc)
	var order []string

	for i := range files {
		f := &files[i]

		type meaningfulLine struct {
			text    string
			lineNum int
		}
		var kept []meaningfulLine
		for lineNo, line := range f.Lines() {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || trimmed == "{" || trimmed == "}" || trimmed == ")" || trimmed == "(" {
				continue
			}
			kept = append(kept, meaningfulLine{text: trimmed, lineNum: lineNo + 1})
		}

		for j := 0; j+windowSize <= len(kept); j++ {
			window := make([]string, windowSize)
			for k := 0; k < windowSize; k++ {
				window[k] = kept[j+k].text
			}
			h := hashBlock(window)
			if _, seen := blocks[h]; !seen {
				order = append(order, h)
			}
			blocks[h] = append(blocks[h], blockLoc{file: f, line: kept[j].lineNum})
		}
	}

	var findings []model.Finding
	for _, h := range order {
		locs := blocks[h]
		if len(locs) < 2 {
			continue
		}
		first := locs[0]
		for _, loc := range locs[1:] {
			if !inScope(loc.file, loc.line) {
				continue
			}
			findings = append(findings, model.Finding{
				ID:       findingID("quality", loc.file.Path, loc.line, "dup-"+h),
				Severity: model.SeverityMedium,
				Category: "quality",
				FilePath: loc.file.Path,
				Line:     loc.line,
				Message:  fmt.Sprintf("Near-duplicate code block (also at %s:%d)", first.file.Path, first.line),
			})
		}
	}
	return findings
}

func hashBlock(lines []string) string {
	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}
