package chat

import (
	"github.com/gdamore/tcell/v2"

	"github.com/rheko/matcha/internal/ui/keys"
)

// Dispatcher handles the single global focus-input shortcut. When the chord
// matches, it focuses the thread reply input if the thread panel is in its
// expanded state, and the new-post input otherwise. It owns no state.
type Dispatcher struct {
	bind           string
	threadExpanded func() bool
	focusReply     func()
	focusNewPost   func()
}

// NewDispatcher creates a Dispatcher for the given key binding.
func NewDispatcher(bind string, threadExpanded func() bool, focusReply, focusNewPost func()) *Dispatcher {
	return &Dispatcher{
		bind:           bind,
		threadExpanded: threadExpanded,
		focusReply:     focusReply,
		focusNewPost:   focusNewPost,
	}
}

// Handle reports whether the event matched the shortcut, performing the
// focus side effect when it did.
func (d *Dispatcher) Handle(event *tcell.EventKey) bool {
	if !keys.Matches(event, d.bind) {
		return false
	}
	if d.threadExpanded != nil && d.threadExpanded() {
		if d.focusReply != nil {
			d.focusReply()
		}
	} else if d.focusNewPost != nil {
		d.focusNewPost()
	}
	return true
}
