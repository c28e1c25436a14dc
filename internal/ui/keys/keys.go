package keys

import (
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Normalize converts tcell key names to the config format.
// tcell outputs "Ctrl-C" (hyphen) for bare Ctrl keys but config uses "Ctrl+C" (plus).
func Normalize(name string) string {
	return strings.ReplaceAll(name, "Ctrl-", "Ctrl+")
}

// Matches reports whether the event corresponds to the configured binding.
func Matches(event *tcell.EventKey, bind string) bool {
	return bind != "" && Normalize(event.Name()) == bind
}
