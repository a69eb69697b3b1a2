package cli

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/sprite-ai/codemend/internal/model"
)

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	highColor     = color.New(color.FgMagenta)
	mediumColor   = color.New(color.FgYellow)
	lowColor      = color.New(color.FgCyan)
	fileColor     = color.New(color.FgWhite, color.Bold)
	okColor       = color.New(color.FgGreen)
	dimColor      = color.New(color.Faint)
)

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityCritical:
		return criticalColor
	case model.SeverityHigh:
		return highColor
	case model.SeverityMedium:
		return mediumColor
	default:
		return lowColor
	}
}

func outputText(report *model.AnalysisReport, nFiles int) {
	fmt.Printf("%d file(s) analyzed: %s\n\n", nFiles, report.Summary())

	if len(report.Findings) == 0 {
		okColor.Println("No issues found.")
		return
	}

	byFile := report.ByFile()
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		label := path
		if label == "" {
			label = "(pipeline)"
		}
		fileColor.Printf("  %s\n", label)
		for _, f := range byFile[path] {
			loc := ""
			if f.Line > 0 {
				loc = fmt.Sprintf(":%d", f.Line)
			}
			severityColor(f.Severity).Printf("    [%s]", f.Severity)
			fmt.Printf(" %s%s: %s\n", f.Category, loc, f.Message)
			if f.Suggestion != "" {
				dimColor.Printf("      hint: %s\n", f.Suggestion)
			}
			if f.HasFix() {
				okColor.Printf("      fix available (%s)\n", f.Fix.Kind)
			}
		}
		fmt.Println()
	}
}
