package chat

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/rheko/matcha/internal/client"
	"github.com/rheko/matcha/internal/config"
	"github.com/rheko/matcha/internal/ui/keys"
)

// teamEntry holds a team's data for the picker.
type teamEntry struct {
	slug        string
	displayText string
	searchText  string
}

// TeamPicker is a modal popup for fuzzy-searching and switching teams.
type TeamPicker struct {
	*tview.Flex
	cfg      *config.Config
	input    *tview.InputField
	list     *tview.List
	entries  []teamEntry
	filtered []int // indices into entries for the current filter
	onSelect func(slug string)
	onClose  func()
}

// NewTeamPicker creates the team switcher component.
func NewTeamPicker(cfg *config.Config) *TeamPicker {
	tp := &TeamPicker{cfg: cfg}

	tp.input = tview.NewInputField()
	tp.input.SetLabel(" Team: ")
	tp.input.SetChangedFunc(tp.onInputChanged)
	tp.input.SetInputCapture(tp.handleInput)

	tp.list = tview.NewList()
	tp.list.SetHighlightFullLine(true)
	tp.list.ShowSecondaryText(false)
	tp.list.SetWrapAround(false)

	tp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tp.input, 1, 0, true).
		AddItem(tp.list, 0, 1, false)
	tp.SetBorder(true).SetTitle(" Switch Team ")

	return tp
}

// SetOnSelect sets the callback for team selection.
func (tp *TeamPicker) SetOnSelect(fn func(slug string)) { tp.onSelect = fn }

// SetOnClose sets the callback for closing the picker.
func (tp *TeamPicker) SetOnClose(fn func()) { tp.onClose = fn }

// SetData populates the picker with the user's teams.
func (tp *TeamPicker) SetData(teams []client.Team) {
	tp.entries = make([]teamEntry, 0, len(teams))
	for _, t := range teams {
		display := t.DisplayName
		if display == "" {
			display = t.Name
		}
		tp.entries = append(tp.entries, teamEntry{
			slug:        t.Name,
			displayText: display,
			searchText:  strings.ToLower(display + " " + t.Name),
		})
	}
}

// Reset clears the input and shows all teams.
func (tp *TeamPicker) Reset() {
	tp.input.SetText("")
	tp.showAll()
}

func (tp *TeamPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	binds := tp.cfg.Keybinds.TeamPickerKeys

	switch {
	case keys.Matches(event, binds.Close) || event.Key() == tcell.KeyEscape:
		if tp.onClose != nil {
			tp.onClose()
		}
		return nil

	case keys.Matches(event, binds.Select) || event.Key() == tcell.KeyEnter:
		tp.selectCurrent()
		return nil

	case keys.Matches(event, binds.Up) || event.Key() == tcell.KeyUp:
		if cur := tp.list.GetCurrentItem(); cur > 0 {
			tp.list.SetCurrentItem(cur - 1)
		}
		return nil

	case keys.Matches(event, binds.Down) || event.Key() == tcell.KeyDown:
		if cur := tp.list.GetCurrentItem(); cur < tp.list.GetItemCount()-1 {
			tp.list.SetCurrentItem(cur + 1)
		}
		return nil
	}
	return event
}

func (tp *TeamPicker) selectCurrent() {
	cur := tp.list.GetCurrentItem()
	if cur < 0 || cur >= len(tp.filtered) {
		return
	}
	entry := tp.entries[tp.filtered[cur]]
	if tp.onSelect != nil {
		tp.onSelect(entry.slug)
	}
}

func (tp *TeamPicker) onInputChanged(text string) {
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		tp.showAll()
		return
	}

	haystack := make([]string, len(tp.entries))
	for i, e := range tp.entries {
		haystack[i] = e.searchText
	}

	matches := fuzzy.Find(query, haystack)
	tp.list.Clear()
	tp.filtered = tp.filtered[:0]
	for _, m := range matches {
		tp.filtered = append(tp.filtered, m.Index)
		tp.list.AddItem(tp.entries[m.Index].displayText, "", 0, nil)
	}
}

func (tp *TeamPicker) showAll() {
	tp.list.Clear()
	tp.filtered = tp.filtered[:0]
	for i, e := range tp.entries {
		tp.filtered = append(tp.filtered, i)
		tp.list.AddItem(e.displayText, "", 0, nil)
	}
}
