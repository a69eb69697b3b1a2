package detect

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

// deprecatedAPIs maps known-deprecated calls to their replacements. Entries
// with a non-empty replace string get a literal fix attached directly by the
// analyzer; the rest need the suggestion engine.
var deprecatedAPIs = []struct {
	pattern    *regexp.Regexp
	search     string // literal text the fix replaces; empty = no mechanical fix
	replace    string
	message    string
	confidence float64
	exts       []string
}{
	{
		pattern: regexp.MustCompile(`\bioutil\.ReadFile\b`),
		search:  "ioutil.ReadFile", replace: "os.ReadFile",
		message:    "io/ioutil is deprecated since Go 1.16; use os.ReadFile",
		confidence: 0.9,
		exts:       []string{".go"},
	},
	{
		pattern: regexp.MustCompile(`\bioutil\.WriteFile\b`),
		search:  "ioutil.WriteFile", replace: "os.WriteFile",
		message:    "io/ioutil is deprecated since Go 1.16; use os.WriteFile",
		confidence: 0.9,
		exts:       []string{".go"},
	},
	{
		pattern: regexp.MustCompile(`\bioutil\.ReadAll\b`),
		search:  "ioutil.ReadAll", replace: "io.ReadAll",
		message:    "io/ioutil is deprecated since Go 1.16; use io.ReadAll",
		confidence: 0.9,
		exts:       []string{".go"},
	},
	{
		pattern: regexp.MustCompile(`\bcomponentWillMount\b`),
		message: "componentWillMount is deprecated in React; use componentDidMount or hooks",
		exts:    []string{".js", ".jsx", ".ts", ".tsx"},
	},
	{
		pattern: regexp.MustCompile(`\bcomponentWillReceiveProps\b`),
		message: "componentWillReceiveProps is deprecated in React; use getDerivedStateFromProps",
		exts:    []string{".js", ".jsx", ".ts", ".tsx"},
	},
	{
		pattern: regexp.MustCompile(`\bnew Buffer\(`),
		message: "new Buffer() is deprecated; use Buffer.from() or Buffer.alloc()",
		exts:    []string{".js", ".jsx", ".ts", ".tsx", ".mjs"},
	},
	{
		pattern: regexp.MustCompile(`\burl\.parse\(`),
		message: "url.parse is deprecated in Node; use the WHATWG URL constructor",
		exts:    []string{".js", ".jsx", ".ts", ".tsx", ".mjs"},
	},
	{
		pattern: regexp.MustCompile(`^\s*import\s+imp\b`),
		search:  "import imp", replace: "import importlib",
		message:    "the imp module is removed in Python 3.12; use importlib",
		confidence: 0.8,
		exts:       []string{".py"},
	},
	{
		pattern: regexp.MustCompile(`\basyncio\.get_event_loop\(\)`),
		message: "asyncio.get_event_loop is deprecated; use asyncio.get_running_loop or asyncio.run",
		exts:    []string{".py"},
	},
	{
		pattern: regexp.MustCompile(`\bdatetime\.utcnow\(\)`),
		search:  "datetime.utcnow()", replace: "datetime.now(timezone.utc)",
		message:    "datetime.utcnow is deprecated since Python 3.12; use datetime.now(timezone.utc)",
		confidence: 0.7,
		exts:       []string{".py"},
	},
}

// DeprecatedAnalyzer flags calls to APIs removed or deprecated in current
// runtime versions, the classic symptom of a model trained on old code.
type DeprecatedAnalyzer struct{}

func (a *DeprecatedAnalyzer) Name() string { return "deprecated" }

func (a *DeprecatedAnalyzer) Extensions() []string {
	return []string{".go", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".py"}
}

func (a *DeprecatedAnalyzer) Detect(files []source.File) (Result, error) {
	files = filterByExt(files, a.Extensions())
	res := Result{FilesAnalyzed: len(files)}

	for i := range files {
		f := &files[i]
		for lineNo, line := range f.Lines() {
			lineNum := lineNo + 1
			if !inScope(f, lineNum) {
				continue
			}

			for _, dep := range deprecatedAPIs {
				if !extMatches(f.Ext, dep.exts) || !dep.pattern.MatchString(line) {
					continue
				}

				finding := model.Finding{
					ID:       findingID("deprecated", f.Path, lineNum, dep.message),
					Severity: model.SeverityMedium,
					Category: "deprecated",
					FilePath: f.Path,
					Line:     lineNum,
					Message:  dep.message,
					Evidence: strings.TrimSpace(line),
				}
				if dep.search != "" {
					conf := dep.confidence
					finding.Fix = &model.FixCandidate{
						Kind:        model.FixLiteral,
						Search:      dep.search,
						Replace:     dep.replace,
						Confidence:  &conf,
						Explanation: dep.message,
					}
				}
				res.Findings = append(res.Findings, finding)
			}
		}
	}
	return res, nil
}
