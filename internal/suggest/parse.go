package suggest

import (
	"regexp"
	"strings"

	"github.com/sprite-ai/codemend/internal/model"
)

// Engines answer in prose. Each strategy below extracts a search/replace
// pair from one textual convention; ParseFix tries them in priority order
// and fails closed when none match, never guessing.
type parseStrategy func(text string) *model.FixCandidate

var parseStrategies = []parseStrategy{
	parseFencedBlocks,
	parseLabeledBlocks,
	parseInlineChange,
}

// ParseFix extracts a fix candidate from free-form engine output, or nil.
func ParseFix(text string) *model.FixCandidate {
	for _, strategy := range parseStrategies {
		if fix := strategy(text); fix != nil {
			return fix
		}
	}
	return nil
}

var (
	// REPLACE runs to the first blank line so trailing prose stays out.
	labeledPattern = regexp.MustCompile(`(?s)SEARCH:\s*\n(.*?)\nREPLACE:\s*\n(.*?)(?:\n\n|\s*$)`)
	fencePattern   = regexp.MustCompile("(?s)```[a-zA-Z0-9]*\n(.*?)```")
	inlinePattern  = regexp.MustCompile("(?i)(?:change|replace)\\s+`([^`]+)`\\s+(?:to|with)\\s+`([^`]*)`")
)

// parseLabeledBlocks handles the explicit SEARCH:/REPLACE: convention the
// prompt asks for.
func parseLabeledBlocks(text string) *model.FixCandidate {
	m := labeledPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	search := trimFences(m[1])
	replace := trimFences(m[2])
	if search == "" {
		return nil
	}
	return &model.FixCandidate{
		Kind:    model.FixGenerated,
		Search:  search,
		Replace: replace,
	}
}

// parseFencedBlocks handles a before/after pair of fenced code blocks.
// Anything other than exactly two blocks is ambiguous and rejected.
func parseFencedBlocks(text string) *model.FixCandidate {
	matches := fencePattern.FindAllStringSubmatch(text, -1)
	if len(matches) != 2 {
		return nil
	}

	search := strings.TrimRight(matches[0][1], "\n")
	replace := strings.TrimRight(matches[1][1], "\n")
	if search == "" || search == replace {
		return nil
	}
	return &model.FixCandidate{
		Kind:    model.FixGenerated,
		Search:  search,
		Replace: replace,
	}
}

// parseInlineChange handles "change `X` to `Y`" phrasing.
func parseInlineChange(text string) *model.FixCandidate {
	m := inlinePattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return nil
	}
	return &model.FixCandidate{
		Kind:    model.FixGenerated,
		Search:  m[1],
		Replace: m[2],
	}
}

// trimFences strips an optional code fence wrapper the model sometimes adds
// inside labeled sections.
func trimFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = strings.TrimRight(m[1], "\n")
	}
	return s
}
