package app

import "github.com/gdamore/tcell/v2"

// focusScreen wraps a tcell screen to surface terminal focus reporting.
// Focus events are delivered to the callback and swallowed before tview
// sees them; everything else passes through untouched.
type focusScreen struct {
	tcell.Screen
	onFocus func(focused bool)
}

func newFocusScreen(screen tcell.Screen, onFocus func(focused bool)) *focusScreen {
	return &focusScreen{Screen: screen, onFocus: onFocus}
}

// Init initializes the underlying screen and turns on focus reporting,
// which is off by default.
func (f *focusScreen) Init() error {
	if err := f.Screen.Init(); err != nil {
		return err
	}
	f.Screen.EnableFocus()
	return nil
}

// PollEvent intercepts focus events and forwards the rest.
func (f *focusScreen) PollEvent() tcell.Event {
	for {
		ev := f.Screen.PollEvent()
		fe, ok := ev.(*tcell.EventFocus)
		if !ok {
			return ev
		}
		if f.onFocus != nil {
			f.onFocus(fe.Focused)
		}
	}
}
