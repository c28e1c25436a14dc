package chat

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/rheko/matcha/internal/client"
	"github.com/rheko/matcha/internal/config"
	"github.com/rheko/matcha/internal/ui/keys"
)

// Panel identifies which panel is focused.
type Panel int

const (
	PanelChannels Panel = iota
	PanelMessages
	PanelInput
	PanelThreadInput
)

// View is the main chat layout. It renders nothing meaningful until a team
// is set, and shows a loading placeholder until that team's channels are
// ready.
type View struct {
	*tview.Flex
	app *tview.Application
	cfg *config.Config

	ChannelsTree *ChannelsTree
	Header       *tview.TextView
	Messages     *tview.TextView
	Input        *tview.TextArea
	ThreadPanel  *tview.Flex
	ThreadList   *tview.TextView
	ThreadInput  *tview.TextArea
	StatusBar    *StatusBar
	TeamPicker   *TeamPicker

	pages       *tview.Pages
	contentFlex *tview.Flex
	mainFlex    *tview.Flex
	shortcuts   *Dispatcher

	activePanel Panel
	threadOpen  bool

	team          *client.Team
	channelsReady bool

	onTeamSwitch func(slug string)
}

// New creates the main chat view.
//
// Layout:
//
//	Outer Flex (FlexRow)
//	├── mainFlex (FlexColumn)
//	│   ├── ChannelsTree (fixed 28 cols)
//	│   ├── contentFlex (FlexRow)
//	│   │   ├── Header (fixed 1 row)
//	│   │   ├── Messages (proportional)
//	│   │   └── Input (fixed 3 rows)
//	│   └── ThreadPanel (proportional, hidden by default)
//	└── StatusBar (fixed 1 row)
func New(app *tview.Application, cfg *config.Config) *View {
	v := &View{
		app: app,
		cfg: cfg,
	}

	v.ChannelsTree = NewChannelsTree(cfg)

	v.Header = tview.NewTextView().SetDynamicColors(true)

	v.Messages = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	v.Messages.SetBorder(true).SetTitle(" Messages ")

	v.Input = tview.NewTextArea()
	v.Input.SetBorder(true).SetTitle(" Message ")
	v.Input.SetPlaceholder("Type a message...")

	v.ThreadList = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	v.ThreadInput = tview.NewTextArea()
	v.ThreadInput.SetPlaceholder("Reply...")
	v.ThreadPanel = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.ThreadList, 0, 1, false).
		AddItem(v.ThreadInput, 3, 0, false)
	v.ThreadPanel.SetBorder(true).SetTitle(" Thread ")

	v.StatusBar = NewStatusBar()
	v.TeamPicker = NewTeamPicker(cfg)
	v.TeamPicker.SetOnClose(func() { v.HideTeamPicker() })
	v.TeamPicker.SetOnSelect(func(slug string) {
		v.HideTeamPicker()
		if v.onTeamSwitch != nil {
			v.onTeamSwitch(slug)
		}
	})

	v.contentFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.Header, 1, 0, false).
		AddItem(v.Messages, 0, 1, false).
		AddItem(v.Input, 3, 0, false)

	v.mainFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(v.ChannelsTree, 28, 0, false).
		AddItem(v.contentFlex, 0, 2, false)

	outer := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.mainFlex, 0, 1, false).
		AddItem(v.StatusBar, 1, 0, false)

	v.pages = tview.NewPages().
		AddPage("main", outer, true, true)

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.pages, 0, 1, false)

	v.shortcuts = NewDispatcher(cfg.Keybinds.FocusInput, v.IsThreadOpen,
		func() { v.FocusPanel(PanelThreadInput) },
		func() { v.FocusPanel(PanelInput) },
	)

	v.activePanel = PanelChannels
	v.renderHeader()

	return v
}

// SetOnTeamSwitch registers the callback invoked when the user picks a team.
func (v *View) SetOnTeamSwitch(fn func(slug string)) {
	v.onTeamSwitch = fn
}

// SetTeam updates the header and sidebar for a newly resolved team. A nil
// team clears the view back to its resolving placeholder.
func (v *View) SetTeam(team *client.Team, channelsReady bool) {
	v.team = team
	v.channelsReady = channelsReady
	if !channelsReady {
		v.ChannelsTree.Clear()
	}
	v.renderHeader()
}

// SetChannelsReady flips the readiness indicator for the current team.
func (v *View) SetChannelsReady(ready bool) {
	v.channelsReady = ready
	v.renderHeader()
}

func (v *View) renderHeader() {
	switch {
	case v.team == nil:
		v.Header.SetText("[::d]Resolving team...")
	case !v.channelsReady:
		v.Header.SetText(fmt.Sprintf("[::b]%s[-:-:-]  [::d]loading channels...", tview.Escape(v.team.DisplayName)))
	default:
		v.Header.SetText(fmt.Sprintf("[::b]%s", tview.Escape(v.team.DisplayName)))
	}
}

// OpenThread shows the thread panel on the right.
func (v *View) OpenThread() {
	if v.threadOpen {
		return
	}
	v.threadOpen = true
	v.mainFlex.AddItem(v.ThreadPanel, 0, 1, false)
}

// CloseThread hides the thread panel.
func (v *View) CloseThread() {
	if !v.threadOpen {
		return
	}
	v.threadOpen = false
	v.mainFlex.RemoveItem(v.ThreadPanel)
}

// IsThreadOpen reports whether the thread panel is visible.
func (v *View) IsThreadOpen() bool { return v.threadOpen }

// ShowTeamPicker opens the team switcher popup.
func (v *View) ShowTeamPicker() {
	v.TeamPicker.Reset()
	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(v.TeamPicker, 14, 0, true).
			AddItem(nil, 0, 1, false), 50, 0, true).
		AddItem(nil, 0, 1, false)
	v.pages.AddPage("team-picker", modal, true, true)
	v.app.SetFocus(v.TeamPicker)
}

// HideTeamPicker closes the team switcher popup.
func (v *View) HideTeamPicker() {
	v.pages.RemovePage("team-picker")
	v.FocusPanel(v.activePanel)
}

// FocusPanel sets focus to the given panel.
func (v *View) FocusPanel(panel Panel) {
	v.activePanel = panel
	switch panel {
	case PanelChannels:
		v.app.SetFocus(v.ChannelsTree)
	case PanelMessages:
		v.app.SetFocus(v.Messages)
	case PanelInput:
		v.app.SetFocus(v.Input)
	case PanelThreadInput:
		v.app.SetFocus(v.ThreadInput)
	}
}

// HandleKey processes view-level keybindings. Returns nil to consume the
// event or the original event to let it propagate.
func (v *View) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if v.shortcuts.Handle(event) {
		return nil
	}

	switch {
	case keys.Matches(event, v.cfg.Keybinds.FocusChannels):
		v.FocusPanel(PanelChannels)
		return nil
	case keys.Matches(event, v.cfg.Keybinds.ToggleThread):
		if v.threadOpen {
			v.CloseThread()
		} else {
			v.OpenThread()
		}
		return nil
	case keys.Matches(event, v.cfg.Keybinds.TeamPicker):
		v.ShowTeamPicker()
		return nil
	}
	return event
}
