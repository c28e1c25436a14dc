package chat

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// StatusBar displays connection status, the active team, and unread totals
// at the bottom of the layout.
type StatusBar struct {
	*tview.TextView
	connStatus string
	teamText   string
	unreadText string
}

// NewStatusBar creates the status bar.
func NewStatusBar() *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	return &StatusBar{TextView: tv}
}

// SetConnectionStatus updates the connection status text.
func (sb *StatusBar) SetConnectionStatus(s string) {
	sb.connStatus = s
	sb.render()
}

// SetTeam updates the active team display.
func (sb *StatusBar) SetTeam(name string) {
	sb.teamText = name
	sb.render()
}

// SetUnreadTotals updates the unread summary across teams.
func (sb *StatusBar) SetUnreadTotals(messages, mentions int64) {
	if messages == 0 && mentions == 0 {
		sb.unreadText = ""
	} else {
		sb.unreadText = fmt.Sprintf("%d unread, %d mentions", messages, mentions)
	}
	sb.render()
}

func (sb *StatusBar) render() {
	parts := make([]string, 0, 3)
	if sb.connStatus != "" {
		parts = append(parts, sb.connStatus)
	}
	if sb.teamText != "" {
		parts = append(parts, sb.teamText)
	}
	if sb.unreadText != "" {
		parts = append(parts, sb.unreadText)
	}
	sb.SetText(" " + strings.Join(parts, "  |  "))
}
