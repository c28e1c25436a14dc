package chat

import (
	"fmt"
	"sort"

	"github.com/rivo/tview"

	"github.com/rheko/matcha/internal/client"
	"github.com/rheko/matcha/internal/config"
)

// OnChannelSelectedFunc is invoked with the selected channel's id.
type OnChannelSelectedFunc func(channelID string)

// ChannelsTree is the left sidebar listing the current team's channels,
// grouped by type, with unread markers derived from membership read-state.
type ChannelsTree struct {
	*tview.TreeView
	cfg      *config.Config
	onSelect OnChannelSelectedFunc
}

// NewChannelsTree creates an empty channels sidebar.
func NewChannelsTree(cfg *config.Config) *ChannelsTree {
	t := &ChannelsTree{
		TreeView: tview.NewTreeView(),
		cfg:      cfg,
	}
	root := tview.NewTreeNode("Channels")
	t.SetRoot(root).SetCurrentNode(root)
	t.SetBorder(true).SetTitle(" Channels ")

	t.SetSelectedFunc(func(node *tview.TreeNode) {
		if id, ok := node.GetReference().(string); ok && t.onSelect != nil {
			t.onSelect(id)
		}
	})
	return t
}

// SetOnSelect registers the channel selection callback.
func (t *ChannelsTree) SetOnSelect(fn OnChannelSelectedFunc) {
	t.onSelect = fn
}

// Clear empties the tree, used while a new team's channels are loading.
func (t *ChannelsTree) Clear() {
	t.GetRoot().ClearChildren()
}

// SetChannels rebuilds the tree from a team's channels and the user's
// memberships in them.
func (t *ChannelsTree) SetChannels(channels []client.Channel, members []client.ChannelMember) {
	unread := make(map[string]bool, len(members))
	for _, m := range members {
		unread[m.ChannelID] = false
	}
	byID := make(map[string]client.Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}
	for _, m := range members {
		ch, ok := byID[m.ChannelID]
		if !ok {
			continue
		}
		unread[m.ChannelID] = ch.TotalMsgCount > m.MsgCount
	}

	var public, private []client.Channel
	for _, ch := range channels {
		switch ch.Type {
		case "P":
			private = append(private, ch)
		default:
			public = append(public, ch)
		}
	}
	sortChannels(public)
	sortChannels(private)

	root := t.GetRoot()
	root.ClearChildren()
	addGroup(root, "Public", public, unread)
	addGroup(root, "Private", private, unread)
}

func sortChannels(channels []client.Channel) {
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].DisplayName < channels[j].DisplayName
	})
}

func addGroup(root *tview.TreeNode, label string, channels []client.Channel, unread map[string]bool) {
	if len(channels) == 0 {
		return
	}
	group := tview.NewTreeNode(label).SetSelectable(false)
	for _, ch := range channels {
		text := "# " + ch.DisplayName
		if unread[ch.ID] {
			text = fmt.Sprintf("[::b]%s (unread)[-:-:-]", tview.Escape(text))
		} else {
			text = tview.Escape(text)
		}
		node := tview.NewTreeNode(text).SetReference(ch.ID)
		group.AddChild(node)
	}
	root.AddChild(group)
}
