package review

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// highlightSnippet applies syntax highlighting to a fix snippet, picking the
// lexer from the finding's file name. Falls back to the unmodified text when
// no lexer matches or tokenising fails.
func highlightSnippet(filename, snippet string) string {
	lexer := lexerForFile(filename)
	if lexer == nil {
		return snippet
	}

	iterator, err := lexer.Tokenise(nil, snippet)
	if err != nil {
		return snippet
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	var b strings.Builder
	for _, token := range iterator.Tokens() {
		color := tokenColor(style, token.Type)
		if color == "" {
			b.WriteString(token.Value)
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(token.Value))
	}
	return b.String()
}

func lexerForFile(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
