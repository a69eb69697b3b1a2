package detect

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/codemend/internal/model"
	"github.com/sprite-ai/codemend/internal/source"
)

// Security anti-patterns grouped by kind.
var securityChecks = []struct {
	kind     string
	patterns []*regexp.Regexp
	message  string
	severity model.Severity
}{
	{
		kind: "hardcoded-secret",
		patterns: compilePatterns(
			`(?i)(api.?key|secret|password|token)\s*[:=]{1,2}\s*["'][A-Za-z0-9_\-/+]{12,}["']`,
			`(?i)(AWS|AKIA)[A-Z0-9]{16,}`,
			`-----BEGIN (?:RSA |EC )?PRIVATE KEY-----`,
		),
		message:  "Possible hardcoded credential",
		severity: model.SeverityCritical,
	},
	{
		kind: "dynamic-eval",
		patterns: compilePatterns(
			`(?i)\beval\s*\(`,
			`(?i)\bnew Function\s*\(`,
			`(?i)\bexec\s*\(\s*f?["'].*\{`,
		),
		message:  "Dynamic code evaluation on constructed input",
		severity: model.SeverityHigh,
	},
	{
		kind: "sql-concat",
		patterns: compilePatterns(
			`(?i)(SELECT|INSERT|UPDATE|DELETE)\b[^"']*["']\s*\+`,
			"(?i)(SELECT|INSERT|UPDATE|DELETE)\\b.*\\$\\{",
			`(?i)(execute|query)\s*\(\s*f["']`,
		),
		message:  "SQL built by string concatenation; use parameterized queries",
		severity: model.SeverityHigh,
	},
	{
		kind: "tls-disabled",
		patterns: compilePatterns(
			`InsecureSkipVerify\s*:\s*true`,
			`(?i)rejectUnauthorized\s*:\s*false`,
			`(?i)verify\s*=\s*False`,
		),
		message:  "TLS certificate verification disabled",
		severity: model.SeverityHigh,
	},
	{
		kind: "shell-injection",
		patterns: compilePatterns(
			`(?i)os\.system\s*\(\s*[^"']`,
			"(?i)subprocess\\.(?:run|call|Popen)\\s*\\(.*shell\\s*=\\s*True",
			"child_process.*exec\\(\\s*[`\"'].*\\$\\{",
		),
		message:  "Shell command built from dynamic input",
		severity: model.SeverityHigh,
	},
	{
		kind: "weak-crypto",
		patterns: compilePatterns(
			`(?i)\bmd5\s*\(`,
			`(?i)crypto\.createHash\s*\(\s*["']md5["']`,
			`(?i)hashlib\.md5\b`,
			`(?i)\bDES\b.*(?:encrypt|cipher)`,
		),
		message:  "Weak cryptographic primitive",
		severity: model.SeverityMedium,
	},
}

func compilePatterns(patterns ...string) []*regexp.Regexp {
	var compiled []*regexp.Regexp
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// SecurityAnalyzer flags security anti-patterns LLMs commonly reproduce
// from old training data.
type SecurityAnalyzer struct{}

func (a *SecurityAnalyzer) Name() string { return "security" }

func (a *SecurityAnalyzer) Extensions() []string { return nil }

func (a *SecurityAnalyzer) Detect(files []source.File) (Result, error) {
	res := Result{FilesAnalyzed: len(files)}

	for i := range files {
		f := &files[i]
		for lineNo, line := range f.Lines() {
			lineNum := lineNo + 1
			if !inScope(f, lineNum) {
				continue
			}

			for _, check := range securityChecks {
				for _, pat := range check.patterns {
					if pat.MatchString(line) {
						res.Findings = append(res.Findings, model.Finding{
							ID:       findingID("security", f.Path, lineNum, check.kind),
							Severity: check.severity,
							Category: "security",
							FilePath: f.Path,
							Line:     lineNum,
							Message:  check.message,
							Evidence: strings.TrimSpace(line),
							Metadata: map[string]string{"kind": check.kind},
						})
						break
					}
				}
			}
		}
	}
	return res, nil
}
