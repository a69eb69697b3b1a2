package review

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Approve     key.Binding
	Reject      key.Binding
	ApproveRest key.Binding
	RejectRest  key.Binding
	Prev        key.Binding
	Abort       key.Binding
}

var keys = keyMap{
	Approve: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y", "approve"),
	),
	Reject: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "reject"),
	),
	ApproveRest: key.NewBinding(
		key.WithKeys("A"),
		key.WithHelp("A", "approve rest"),
	),
	RejectRest: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "reject rest"),
	),
	Prev: key.NewBinding(
		key.WithKeys("left", "p"),
		key.WithHelp("←/p", "previous"),
	),
	Abort: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "abort"),
	),
}
