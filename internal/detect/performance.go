package detect

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

var loopStartPattern = regexp.MustCompile(`^\s*(?:for\b|while\b|\.forEach\(|\.map\()`)

// Patterns that are cheap once but expensive inside a loop body.
var loopBodyChecks = []struct {
	kind     string
	pattern  *regexp.Regexp
	message  string
	severity model.Severity
}{
	{
		kind:     "regex-in-loop",
		pattern:  regexp.MustCompile(`regexp\.MustCompile|new RegExp\(|re\.compile\(`),
		message:  "Regular expression compiled inside a loop; hoist it out",
		severity: model.SeverityMedium,
	},
	{
		kind:     "await-in-loop",
		pattern:  regexp.MustCompile(`\bawait\s+\w`),
		message:  "Sequential await inside a loop; consider Promise.all",
		severity: model.SeverityMedium,
	},
	{
		kind:     "query-in-loop",
		pattern:  regexp.MustCompile(`(?i)\.(query|execute|find|findOne|save)\s*\(`),
		message:  "Database call inside a loop looks like an N+1 pattern",
		severity: model.SeverityHigh,
	},
	{
		kind:     "sleep-in-loop",
		pattern:  regexp.MustCompile(`(?i)(time\.sleep|time\.Sleep|setTimeout)\s*\(`),
		message:  "Sleep inside a loop; prefer a ticker or backoff helper",
		severity: model.SeverityLow,
	},
	{
		kind:     "string-concat-in-loop",
		pattern:  regexp.MustCompile(`\w+\s*\+=\s*["'` + "`" + `]|\w+\s*\+=\s*\w+\s*\+\s*["']`),
		message:  "String concatenation inside a loop; use a builder/join",
		severity: model.SeverityLow,
	},
}

// loopScanRadius bounds how many lines past a loop header we treat as its body.
const loopScanRadius = 15

// PerformanceAnalyzer flags work done inside loops that should be hoisted
// or batched. Loop extent is approximated by indentation and a fixed
// radius, not a parse tree.
type PerformanceAnalyzer struct{}

func (a *PerformanceAnalyzer) Name() string { return "performance" }

func (a *PerformanceAnalyzer) Extensions() []string {
	return []string{".go", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".py", ".java", ".rb"}
}

func (a *PerformanceAnalyzer) Detect(files []source.File) (Result, error) {
	files = filterByExt(files, a.Extensions())
	res := Result{FilesAnalyzed: len(files)}

	// Nested loops can cover the same body line twice; dedupe by finding ID.
	seen := make(map[string]bool)

	for i := range files {
		f := &files[i]
		lines := f.Lines()

		for lineNo, line := range lines {
			if !loopStartPattern.MatchString(line) {
				continue
			}

			end := lineNo + loopScanRadius
			if end > len(lines) {
				end = len(lines)
			}

			for bodyNo := lineNo + 1; bodyNo < end; bodyNo++ {
				bodyLine := lines[bodyNo]
				bodyNum := bodyNo + 1
				if !inScope(f, bodyNum) {
					continue
				}

				for _, check := range loopBodyChecks {
					if check.pattern.MatchString(bodyLine) {
						id := findingID("performance", f.Path, bodyNum, check.kind)
						if seen[id] {
							continue
						}
						seen[id] = true
						res.Findings = append(res.Findings, model.Finding{
							ID:       id,
							Severity: check.severity,
							Category: "performance",
							FilePath: f.Path,
							Line:     bodyNum,
							Message:  check.message,
							Evidence: strings.TrimSpace(bodyLine),
							Metadata: map[string]string{"kind": check.kind},
						})
					}
				}
			}
		}
	}

	return res, nil
}
