// Package review implements the interactive approve/reject gate over
// fix-bearing findings, as a Bubble Tea program.
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/codemend/internal/model"
)

// Decision is the per-finding review outcome.
type Decision int

const (
	DecisionPending Decision = iota
	DecisionApproved
	DecisionRejected
)

// Mode is the review state machine: prompting one finding at a time, or
// latched into auto-resolving the remainder.
type Mode int

const (
	ModePrompting Mode = iota
	ModeAutoApprove
	ModeAutoReject
)

// Result partitions the reviewed findings. When Cancelled is set the
// partitions are empty and callers must apply nothing.
type Result struct {
	Approved  []model.Finding
	Rejected  []model.Finding
	Cancelled bool
}

// Model is the Bubble Tea model for a review session.
type Model struct {
	findings  []model.Finding
	decisions []Decision
	idx       int
	mode      Mode

	width  int
	height int

	done      bool
	cancelled bool
}

// NewModel builds a review model over fix-bearing findings only.
func NewModel(findings []model.Finding) Model {
	var withFixes []model.Finding
	for _, f := range findings {
		if f.HasFix() {
			withFixes = append(withFixes, f)
		}
	}
	return Model{
		findings:  withFixes,
		decisions: make([]Decision, len(withFixes)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if len(m.findings) == 0 {
		return tea.Quit
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Abort):
			m.cancelled = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, keys.Approve):
			return m.decide(DecisionApproved)

		case key.Matches(msg, keys.Reject):
			return m.decide(DecisionRejected)

		case key.Matches(msg, keys.ApproveRest):
			m.mode = ModeAutoApprove
			return m.resolveRemaining(DecisionApproved)

		case key.Matches(msg, keys.RejectRest):
			m.mode = ModeAutoReject
			return m.resolveRemaining(DecisionRejected)

		case key.Matches(msg, keys.Prev):
			if m.idx > 0 {
				m.idx--
			}
		}
	}

	return m, nil
}

func (m Model) decide(d Decision) (tea.Model, tea.Cmd) {
	if m.idx < len(m.decisions) {
		m.decisions[m.idx] = d
	}
	if m.idx+1 >= len(m.findings) {
		m.done = true
		return m, tea.Quit
	}
	m.idx++
	return m, nil
}

func (m Model) resolveRemaining(d Decision) (tea.Model, tea.Cmd) {
	for i := m.idx; i < len(m.decisions); i++ {
		if m.decisions[i] == DecisionPending {
			m.decisions[i] = d
		}
	}
	m.done = true
	return m, tea.Quit
}

// Result assembles the partition from recorded decisions.
func (m Model) Result() *Result {
	if m.cancelled {
		return &Result{Cancelled: true}
	}
	res := &Result{}
	for i, f := range m.findings {
		switch m.decisions[i] {
		case DecisionApproved:
			res.Approved = append(res.Approved, f)
		case DecisionRejected:
			res.Rejected = append(res.Rejected, f)
		}
	}
	return res
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done || len(m.findings) == 0 {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}

	f := m.findings[m.idx]
	var b strings.Builder

	sevStyle, ok := severityStyles[f.Severity.String()]
	if !ok {
		sevStyle = messageStyle
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Fix %d/%d", m.idx+1, len(m.findings))))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s\n",
		sevStyle.Render("["+f.Severity.String()+"]"),
		messageStyle.Render(fmt.Sprintf("%s:%d", f.FilePath, f.Line))))
	b.WriteString(messageStyle.Render(f.Message))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Category: "))
	b.WriteString(f.Category)
	b.WriteString("   ")
	b.WriteString(labelStyle.Render("Source: "))
	b.WriteString(f.Fix.Kind.String())
	if f.Fix.Confidence != nil {
		b.WriteString(fmt.Sprintf("   %s %.0f%%", labelStyle.Render("Confidence:"), *f.Fix.Confidence*100))
	}
	b.WriteString("\n\n")

	before := beforeStyle.Render("- ") + highlightSnippet(f.FilePath, f.Fix.Search)
	after := afterStyle.Render("+ ") + highlightSnippet(f.FilePath, f.Fix.Replace)
	b.WriteString(panelStyle.Width(min(m.width-2, 100)).Render(before + "\n" + after))
	b.WriteString("\n")

	if f.Fix.Explanation != "" {
		b.WriteString("\n")
		b.WriteString(explanationStyle.Render(f.Fix.Explanation))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderStatusBar() string {
	approved, rejected := 0, 0
	for _, d := range m.decisions {
		switch d {
		case DecisionApproved:
			approved++
		case DecisionRejected:
			rejected++
		}
	}

	left := fmt.Sprintf(" %s %d  %s %d  %s %d",
		approvedStyle.Render("✓"), approved,
		rejectedStyle.Render("✗"), rejected,
		pendingStyle.Render("…"), len(m.findings)-approved-rejected)

	right := fmt.Sprintf("%s approve  %s reject  %s approve rest  %s reject rest  %s abort ",
		helpKeyStyle.Render("y"), helpKeyStyle.Render("n"),
		helpKeyStyle.Render("A"), helpKeyStyle.Render("R"),
		helpKeyStyle.Render("q"))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// Run starts the interactive review and blocks until it finishes.
func Run(findings []model.Finding) (*Result, error) {
	m := NewModel(findings)
	if len(m.findings) == 0 {
		return &Result{}, nil
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("review session: %w", err)
	}
	return final.(Model).Result(), nil
}

// ApproveAll is the non-interactive path: every fix-bearing finding is
// approved without prompting.
func ApproveAll(findings []model.Finding) *Result {
	res := &Result{}
	for _, f := range findings {
		if f.HasFix() {
			res.Approved = append(res.Approved, f)
		}
	}
	return res
}
