package detect

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/registry"
	"github.com/sprite-ai/codemend/internal/source"
)

// RegistryLookup is the slice of registry.Client the analyzer needs.
type RegistryLookup interface {
	Lookup(ctx context.Context, eco registry.Ecosystem, name string) registry.Existence
}

// Import statement patterns per language family.
var (
	jsImportPattern  = regexp.MustCompile(`import\s+(?:[\w{}*,\s]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequirePattern = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	pyImportPattern  = regexp.MustCompile(`^\s*(?:import\s+([\w.]+)|from\s+([\w.]+)\s+import\b)`)
)

// nodeBuiltins are module names the Node runtime provides; never registry-checked.
var nodeBuiltins = map[string]bool{
	"assert": true, "buffer": true, "child_process": true, "crypto": true,
	"dns": true, "events": true, "fs": true, "http": true, "https": true,
	"net": true, "os": true, "path": true, "process": true, "querystring": true,
	"readline": true, "stream": true, "string_decoder": true, "timers": true,
	"tls": true, "url": true, "util": true, "worker_threads": true, "zlib": true,
}

// pyStdlib is a curated subset of the Python standard library.
var pyStdlib = map[string]bool{
	"abc": true, "argparse": true, "asyncio": true, "base64": true,
	"collections": true, "contextlib": true, "copy": true, "csv": true,
	"dataclasses": true, "datetime": true, "enum": true, "functools": true,
	"glob": true, "hashlib": true, "http": true, "io": true, "itertools": true,
	"json": true, "logging": true, "math": true, "os": true, "pathlib": true,
	"pickle": true, "random": true, "re": true, "shutil": true, "socket": true,
	"sqlite3": true, "string": true, "subprocess": true, "sys": true,
	"tempfile": true, "threading": true, "time": true, "typing": true,
	"unittest": true, "urllib": true, "uuid": true, "xml": true,
}

// inventedAPIs are methods LLMs commonly invent on real objects. The method
// does not exist in any released version, so a match is high-signal.
var inventedAPIs = []struct {
	pattern *regexp.Regexp
	message string
	exts    []string
}{
	{regexp.MustCompile(`\bfs\.readFileAsync\b`), "fs.readFileAsync does not exist; use fs.promises.readFile", []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}},
	{regexp.MustCompile(`\bfs\.writeFileAsync\b`), "fs.writeFileAsync does not exist; use fs.promises.writeFile", []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}},
	{regexp.MustCompile(`\bJSON\.parseAsync\b`), "JSON.parseAsync does not exist; JSON.parse is synchronous", []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}},
	{regexp.MustCompile(`\.flatten\(\)`), "Array.prototype.flatten does not exist; use flat()", []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}},
	{regexp.MustCompile(`\bos\.path\.ensure_dir\b`), "os.path.ensure_dir does not exist; use os.makedirs(..., exist_ok=True)", []string{".py"}},
	{regexp.MustCompile(`\brequests\.fetch\b`), "requests.fetch does not exist; use requests.get/post", []string{".py"}},
	{regexp.MustCompile(`\bstrings\.Reverse\b`), "strings.Reverse does not exist in the Go standard library", []string{".go"}},
}

const registryLookupTimeout = 10 * time.Second

// HallucinationAnalyzer flags imports of packages that do not exist and
// calls to invented standard-library APIs.
type HallucinationAnalyzer struct {
	reg RegistryLookup
}

func NewHallucinationAnalyzer(reg RegistryLookup) *HallucinationAnalyzer {
	return &HallucinationAnalyzer{reg: reg}
}

func (a *HallucinationAnalyzer) Name() string { return "hallucination" }

func (a *HallucinationAnalyzer) Extensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".py", ".go"}
}

func (a *HallucinationAnalyzer) Detect(files []source.File) (Result, error) {
	files = filterByExt(files, a.Extensions())
	res := Result{FilesAnalyzed: len(files)}

	for i := range files {
		f := &files[i]
		res.Findings = append(res.Findings, a.checkImports(f)...)
		res.Findings = append(res.Findings, checkInventedAPIs(f)...)
	}
	return res, nil
}

func (a *HallucinationAnalyzer) checkImports(f *source.File) []model.Finding {
	if a.reg == nil {
		return nil
	}

	var findings []model.Finding
	for lineNo, line := range f.Lines() {
		lineNum := lineNo + 1
		if !inScope(f, lineNum) {
			continue
		}

		for _, imp := range extractImports(line, f.Ext) {
			eco, pkg, ok := normalizeImport(imp, f.Ext)
			if !ok {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), registryLookupTimeout)
			existence := a.reg.Lookup(ctx, eco, pkg)
			cancel()

			if existence != registry.Missing {
				continue
			}

			findings = append(findings, model.Finding{
				ID:         findingID("hallucination", f.Path, lineNum, pkg),
				Severity:   model.SeverityCritical,
				Category:   "hallucination",
				FilePath:   f.Path,
				Line:       lineNum,
				Message:    fmt.Sprintf("Package %q not found in the %s registry", pkg, eco),
				Suggestion: "Verify the package name; it may be invented or misspelled",
				Evidence:   strings.TrimSpace(line),
				Metadata:   map[string]string{"package": pkg, "ecosystem": string(eco)},
			})
		}
	}
	return findings
}

// extractImports pulls imported module names out of one line.
func extractImports(line, ext string) []string {
	var imports []string
	switch ext {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs":
		for _, m := range jsImportPattern.FindAllStringSubmatch(line, -1) {
			imports = append(imports, m[1])
		}
		for _, m := range jsRequirePattern.FindAllStringSubmatch(line, -1) {
			imports = append(imports, m[1])
		}
	case ".py":
		if m := pyImportPattern.FindStringSubmatch(line); m != nil {
			if m[1] != "" {
				imports = append(imports, m[1])
			} else {
				imports = append(imports, m[2])
			}
		}
	}
	return imports
}

// normalizeImport maps an import specifier to a registry-checkable package
// name. Relative paths, builtins, and stdlib modules are excluded.
func normalizeImport(imp, ext string) (registry.Ecosystem, string, bool) {
	switch ext {
	case ".js", ".jsx", ".ts", ".tsx", ".mjs":
		if strings.HasPrefix(imp, ".") || strings.HasPrefix(imp, "/") {
			return "", "", false
		}
		imp = strings.TrimPrefix(imp, "node:")
		if nodeBuiltins[imp] {
			return "", "", false
		}
		// Scoped packages keep @scope/name; bare packages drop subpaths.
		parts := strings.Split(imp, "/")
		if strings.HasPrefix(imp, "@") {
			if len(parts) < 2 {
				return "", "", false
			}
			return registry.NPM, parts[0] + "/" + parts[1], true
		}
		return registry.NPM, parts[0], true

	case ".py":
		if strings.HasPrefix(imp, ".") {
			return "", "", false
		}
		top := strings.Split(imp, ".")[0]
		if pyStdlib[top] {
			return "", "", false
		}
		return registry.PyPI, top, true
	}
	return "", "", false
}

func checkInventedAPIs(f *source.File) []model.Finding {
	var findings []model.Finding
	for lineNo, line := range f.Lines() {
		lineNum := lineNo + 1
		if !inScope(f, lineNum) {
			continue
		}

		for _, api := range inventedAPIs {
			if !extMatches(f.Ext, api.exts) {
				continue
			}
			if api.pattern.MatchString(line) {
				findings = append(findings, model.Finding{
					ID:       findingID("hallucination", f.Path, lineNum, api.message),
					Severity: model.SeverityHigh,
					Category: "hallucination",
					FilePath: f.Path,
					Line:     lineNum,
					Message:  api.message,
					Evidence: strings.TrimSpace(line),
				})
			}
		}
	}
	return findings
}

func extMatches(ext string, exts []string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}
