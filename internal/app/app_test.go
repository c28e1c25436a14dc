package app

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rheko/matcha/internal/client"
	"github.com/rheko/matcha/internal/config"
)

func TestHandleGlobalKey_QuitConsumed(t *testing.T) {
	cfg := &config.Config{}
	cfg.Keybinds.Quit = "Ctrl+C"

	shutdownReached := false
	a := &App{
		Config: cfg,
		tview:  newTestApp(),
		cancel: func() { shutdownReached = true },
	}

	event := tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)

	result := a.handleGlobalKey(event)
	if result != nil {
		t.Error("handleGlobalKey should return nil for quit keybind (event consumed)")
	}
	if !shutdownReached {
		t.Error("shutdown should have called cancel")
	}
}

func TestHandleGlobalKey_NonQuitPassesThrough(t *testing.T) {
	cfg := &config.Config{}
	cfg.Keybinds.Quit = "Ctrl+C"

	a := &App{
		Config: cfg,
		tview:  newTestApp(),
	}

	// An 'a' rune event matches no global binding and no chat view is set.
	event := tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone)

	result := a.handleGlobalKey(event)
	if result == nil {
		t.Error("handleGlobalKey should pass through unbound keys")
	}
}

func TestShutdown_CallsCancel(t *testing.T) {
	cancelCalled := false
	a := &App{
		tview:  newTestApp(),
		cancel: func() { cancelCalled = true },
	}

	a.shutdown()

	if !cancelCalled {
		t.Error("shutdown should call cancel")
	}
}

func TestShutdown_NilCancel(t *testing.T) {
	a := &App{tview: newTestApp()}

	// Should not panic.
	a.shutdown()
}

func TestSplitRoute(t *testing.T) {
	tests := []struct {
		path     string
		wantSlug string
		wantRest string
	}{
		{"/acme", "acme", ""},
		{"/acme/channels/town-square", "acme", "channels/town-square"},
		{"/acme/integrations", "acme", "integrations"},
		{"acme", "acme", ""},
		{"/", "", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			slug, rest := splitRoute(tt.path)
			if slug != tt.wantSlug || rest != tt.wantRest {
				t.Errorf("splitRoute(%q) = (%q, %q), want (%q, %q)",
					tt.path, slug, rest, tt.wantSlug, tt.wantRest)
			}
		})
	}
}

func TestCollectMemberIDs(t *testing.T) {
	cw := &client.ChannelsWithMembers{
		Members: []client.ChannelMember{
			{ChannelID: "c1", UserID: "u2"},
			{ChannelID: "c2", UserID: "u2"},
			{ChannelID: "c3", UserID: "u3"},
			{ChannelID: "c4", UserID: ""},
			{ChannelID: "c5", UserID: "self"},
		},
	}

	got := collectMemberIDs(cw, "self")
	want := []string{"self", "u2", "u3"}
	if len(got) != len(want) {
		t.Fatalf("collectMemberIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("collectMemberIDs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFocusScreen_InterceptsFocusEvents(t *testing.T) {
	sim := tcell.NewSimulationScreen("")
	var transitions []bool
	fs := newFocusScreen(sim, func(focused bool) {
		transitions = append(transitions, focused)
	})

	if err := fs.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer fs.Fini()

	if err := sim.PostEvent(tcell.NewEventFocus(false)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}
	if err := sim.PostEvent(tcell.NewEventFocus(true)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}
	if err := sim.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)); err != nil {
		t.Fatalf("PostEvent: %v", err)
	}

	// Both focus events are swallowed; the key event comes through.
	ev := fs.PollEvent()
	if _, ok := ev.(*tcell.EventKey); !ok {
		t.Fatalf("PollEvent returned %T, want *tcell.EventKey", ev)
	}

	if len(transitions) != 2 || transitions[0] != false || transitions[1] != true {
		t.Errorf("focus transitions = %v, want [false true]", transitions)
	}
}

// newTestApp creates a minimal tview.Application for testing.
func newTestApp() *tview.Application {
	return tview.NewApplication()
}
