package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/rheko/matcha/internal/client"
	"github.com/rheko/matcha/internal/config"
	"github.com/rheko/matcha/internal/consts"
	"github.com/rheko/matcha/internal/focussync"
	"github.com/rheko/matcha/internal/idlewake"
	"github.com/rheko/matcha/internal/keyring"
	"github.com/rheko/matcha/internal/routes"
	"github.com/rheko/matcha/internal/store"
	"github.com/rheko/matcha/internal/team"
	"github.com/rheko/matcha/internal/ui/chat"
	"github.com/rheko/matcha/internal/ui/keys"
)

// App is the top-level application struct.
type App struct {
	Config *config.Config

	tview      *tview.Application
	client     *client.Client
	ws         *client.WSClient
	store      *store.Store
	chatView   *chat.View
	directory  *team.Directory
	controller *team.Controller
	focus      *focussync.Sync
	idle       *idlewake.Monitor
	routes     *routes.Registry
	cancel     context.CancelFunc

	mu             sync.Mutex
	flags          team.Flags
	currentChannel string
	memberIDs      []string
}

// New creates a new App with the given config.
func New(cfg *config.Config) *App {
	return &App{
		Config: cfg,
		tview:  tview.NewApplication(),
		focus:  focussync.New(),
		routes: routes.NewRegistry(),
	}
}

// RegisterPluginRoute maps a route suffix to a content slot. Built-in routes
// always win over plugin registrations.
func (a *App) RegisterPluginRoute(suffix, slot string) {
	a.routes.RegisterPlugin(suffix, slot)
}

// Run starts the TUI event loop. Credentials come from the keyring (or their
// env overrides); when the session token is missing Run exits early, before
// any connection or monitor is started.
func (a *App) Run() error {
	a.tview.EnableMouse(a.Config.Mouse)

	// Set up OS signal handling for graceful shutdown.
	sigCtx, sigStop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		sigStop()
		a.shutdown()
	}()

	// Register global keybindings.
	a.tview.SetInputCapture(a.handleGlobalKey)

	token, err := keyring.GetSessionToken()
	if err != nil {
		if !errors.Is(err, gokeyring.ErrNotFound) {
			slog.Warn("error reading session token", "error", err)
		}
		return fmt.Errorf("no session token: set MATCHA_TOKEN or store one in the system keyring")
	}

	serverURL, err := keyring.GetServerURL()
	if err != nil || serverURL == "" {
		serverURL = a.Config.Server.BaseURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server URL: set MATCHA_SERVER_URL or server.base_url in the config")
	}

	cl, err := client.New(serverURL, token)
	if err != nil {
		return fmt.Errorf("authenticating against %s: %w", serverURL, err)
	}
	a.client = cl

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	st, err := store.Open(ctx, filepath.Join(consts.CacheDir, "matcha.db"))
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	a.store = st

	a.mu.Lock()
	a.flags = team.Flags{
		Licensed:     a.Config.Features.Licensed,
		LDAPGroups:   a.Config.Features.LDAPGroups,
		CustomGroups: a.Config.Features.CustomGroups,
	}
	a.mu.Unlock()

	a.directory = team.NewDirectory()
	a.showMain(ctx)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	a.tview.SetScreen(newFocusScreen(screen, func(focused bool) {
		if focused {
			a.focus.OnFocus(time.Now())
		} else {
			a.focus.OnBlur(time.Now())
		}
	}))

	go a.bootstrap(ctx)

	err = a.tview.Run()
	a.shutdown()
	if cerr := a.store.Close(); cerr != nil {
		slog.Error("failed to close session store", "error", cerr)
	}
	return err
}

// shutdown stops the monitors, the controller and the realtime transport,
// then the TUI. Safe to call more than once.
func (a *App) shutdown() {
	if a.idle != nil {
		a.idle.Stop()
	}
	if a.controller != nil {
		a.controller.Stop()
	}
	if a.ws != nil {
		a.ws.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.tview.Stop()
}

// handleGlobalKey processes global keybindings. It returns nil to consume the
// event or the original event to let it propagate.
func (a *App) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Normalize(event.Name())

	if name == a.Config.Keybinds.Quit {
		a.shutdown()
		return nil
	}

	// Delegate to chat view if active.
	if a.chatView != nil {
		return a.chatView.HandleKey(event)
	}

	return event
}

// showMain builds the chat layout and wires the route controller, the data
// prefetcher and the focus sync over it.
func (a *App) showMain(ctx context.Context) {
	a.chatView = chat.New(a.tview, a.Config)
	a.chatView.SetOnTeamSwitch(func(slug string) {
		go a.navigate(ctx, "/"+slug)
	})
	a.chatView.ChannelsTree.SetOnSelect(func(channelID string) {
		a.onChannelSelected(ctx, channelID)
	})

	api := &apiAdapter{
		Client:    a.client,
		memberIDs: a.sidebarMemberIDs,
		onUnreads: a.onUnreads,
	}

	joiner := team.NewJoiner(api, a.client.UserID, a.Config.IsReservedTeamName)
	joiner.RecordAutoJoin = func(teamID string) error {
		return a.store.SetAutoJoinedTeamID(ctx, teamID)
	}

	init := team.NewInitializer(api, a.client.UserID)
	init.Flags = a.currentFlags
	init.IsGuest = func() bool { return a.client.Me.IsGuest() }
	init.CollapsedThreads = func() bool { return a.Config.CollapsedThreads }
	init.SelectTeam = func(t client.Team) {
		a.tview.QueueUpdateDraw(func() {
			a.chatView.StatusBar.SetTeam(t.DisplayName)
		})
	}
	init.PersistPreviousTeam = func(teamID string) error {
		return a.store.SetPreviousTeamID(ctx, teamID)
	}
	init.LoadSidebarPresence = api.LoadSidebarPresence

	a.controller = team.NewController(a.directory, joiner, init, a.Config.IsReservedTeamName)
	a.controller.ClearAutoJoinMarker = func() error {
		return a.store.ClearAutoJoinedTeamID(ctx)
	}
	a.controller.NavigateToError = func(reason string) {
		a.tview.QueueUpdateDraw(func() {
			a.chatView.SetTeam(nil, false)
			a.chatView.StatusBar.SetConnectionStatus("error: " + strings.ReplaceAll(reason, "_", " "))
		})
	}
	a.controller.OnChange = func(snap team.Snapshot) {
		a.tview.QueueUpdateDraw(func() {
			a.chatView.SetTeam(snap.CurrentTeam, snap.ChannelsReady)
		})
	}
	a.controller.OnChannelsData = func(teamID string, cw *client.ChannelsWithMembers) {
		a.onChannelsData(ctx, teamID, cw)
	}

	// Focus effects are independent; each one checks its own inputs.
	a.focus.UserPresent = func() bool { return a.client != nil }
	a.focus.CurrentChannel = a.channelID
	a.focus.ThreadSelected = a.chatView.IsThreadOpen
	a.focus.CurrentTeam = func() string {
		if t := a.controller.CurrentTeam(); t != nil {
			return t.ID
		}
		return ""
	}
	a.focus.MarkChannelRead = func(channelID string) {
		go func() {
			if err := a.client.ViewChannel(ctx, channelID, ""); err != nil {
				slog.Error("failed to mark channel viewed", "channel", channelID, "error", err)
			}
		}()
	}
	a.focus.ClearViewedChannel = func() {
		// An empty channel id clears the active-viewing state server-side.
		go func() {
			if err := a.client.ViewChannel(ctx, "", ""); err != nil {
				slog.Error("failed to clear viewed channel", "error", err)
			}
		}()
	}
	a.focus.RefetchChannels = func(teamID string) {
		go func() {
			cw, err := a.client.GetChannelsAndMembers(ctx, teamID)
			if err != nil {
				slog.Error("failed to refetch channels", "team", teamID, "error", err)
				return
			}
			a.tview.QueueUpdateDraw(func() {
				a.chatView.ChannelsTree.SetChannels(cw.Channels, cw.Members)
			})
		}()
	}

	handler := &client.WSHandler{
		OnConnected: func() {
			slog.Info("realtime transport connected")
			a.tview.QueueUpdateDraw(func() {
				a.chatView.StatusBar.SetConnectionStatus(a.client.Username + " — connected")
			})
		},
		OnDisconnected: func() {
			slog.Warn("realtime transport disconnected")
			a.tview.QueueUpdateDraw(func() {
				a.chatView.StatusBar.SetConnectionStatus(a.client.Username + " — disconnected")
			})
		},
		OnError: func(err error) {
			a.tview.QueueUpdateDraw(func() {
				a.chatView.StatusBar.SetConnectionStatus("error: " + err.Error())
			})
		},
		OnEvent: func(ev client.WSEvent) {
			a.onRealtimeEvent(ctx, ev)
		},
	}
	a.ws = client.NewWSClient(a.client.BaseURL(), a.client.Token(), handler)
	a.idle = idlewake.New(a.ws.Reconnect)

	a.tview.SetRoot(a.chatView, true)
	a.chatView.FocusPanel(chat.PanelChannels)
}

// bootstrap fetches license flags and the team directory, starts the route
// controller on the previous (or first) team, and brings up the realtime
// transport and the idle-wake monitor.
func (a *App) bootstrap(ctx context.Context) {
	if lic, err := a.client.GetClientLicense(ctx); err != nil {
		slog.Warn("failed to fetch license, using configured defaults", "error", err)
	} else {
		a.mu.Lock()
		a.flags = team.Flags{
			Licensed:     lic.Licensed,
			LDAPGroups:   lic.LDAPGroups,
			CustomGroups: lic.CustomGroups,
		}
		a.mu.Unlock()
	}

	teams, err := a.client.GetMyTeams(ctx)
	if err != nil {
		slog.Error("failed to fetch teams", "error", err)
		a.tview.QueueUpdateDraw(func() {
			a.chatView.StatusBar.SetConnectionStatus("error: " + err.Error())
		})
		return
	}
	a.directory.Replace(teams)
	a.tview.QueueUpdateDraw(func() {
		a.chatView.TeamPicker.SetData(a.directory.Teams())
	})

	if slug := a.initialSlug(ctx, teams); slug != "" {
		a.controller.Start(ctx, slug)
	} else {
		a.tview.QueueUpdateDraw(func() {
			a.chatView.StatusBar.SetConnectionStatus("not a member of any team")
		})
	}

	go func() {
		if err := a.ws.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("realtime transport exited", "error", err)
		}
	}()
	a.idle.Start()
}

// initialSlug picks the team shown at startup: the persisted previous team
// when it is still in the directory, otherwise the first team.
func (a *App) initialSlug(ctx context.Context, teams []client.Team) string {
	prev, err := a.store.PreviousTeamID(ctx)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to read previous team", "error", err)
	}
	for _, t := range teams {
		if t.ID == prev {
			return t.Name
		}
	}
	if len(teams) > 0 {
		return teams[0].Name
	}
	return ""
}

// navigate routes a path change. The team slug is the first path segment;
// the registry decides which content slot the remainder selects.
func (a *App) navigate(ctx context.Context, path string) {
	slug, rest := splitRoute(path)
	if rest != "" {
		if slot := a.routes.Match(rest); slot != routes.SlotChannel {
			slog.Debug("route resolves to a non-channel slot", "path", path, "slot", slot)
		}
	}
	a.controller.OnRouteChanged(ctx, slug)
}

// splitRoute separates the team slug from the team-relative remainder of a
// route path.
func splitRoute(path string) (slug, rest string) {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

// onChannelsData receives the channels fetch that flipped readiness. It
// remembers the member set for presence, restores the last viewed channel
// and populates the sidebar.
func (a *App) onChannelsData(ctx context.Context, teamID string, cw *client.ChannelsWithMembers) {
	ids := collectMemberIDs(cw, a.client.UserID)

	last, err := a.store.LastViewedChannel(ctx, teamID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Error("failed to read last viewed channel", "team", teamID, "error", err)
	}
	current := ""
	for _, ch := range cw.Channels {
		if ch.ID == last {
			current = last
			break
		}
	}

	a.mu.Lock()
	a.memberIDs = ids
	a.currentChannel = current
	a.mu.Unlock()

	a.tview.QueueUpdateDraw(func() {
		a.chatView.ChannelsTree.SetChannels(cw.Channels, cw.Members)
	})
}

// onChannelSelected marks the switch server-side and persists the channel
// for the next visit to this team.
func (a *App) onChannelSelected(ctx context.Context, channelID string) {
	a.mu.Lock()
	prev := a.currentChannel
	a.currentChannel = channelID
	a.mu.Unlock()

	var teamID string
	if t := a.controller.CurrentTeam(); t != nil {
		teamID = t.ID
	}

	go func() {
		if err := a.client.ViewChannel(ctx, channelID, prev); err != nil {
			slog.Error("failed to mark channel viewed", "channel", channelID, "error", err)
		}
		if teamID == "" {
			return
		}
		if err := a.store.SetLastViewedChannel(ctx, teamID, channelID); err != nil {
			slog.Error("failed to persist last viewed channel", "channel", channelID, "error", err)
		}
	}()

	a.chatView.FocusPanel(chat.PanelInput)
}

// onRealtimeEvent reacts to pushed events. Anything that can move unread
// counters triggers a refresh of the status bar totals.
func (a *App) onRealtimeEvent(ctx context.Context, ev client.WSEvent) {
	switch ev.Event {
	case "posted", "post_deleted", "channel_viewed":
		go func() {
			unreads, err := a.client.GetTeamUnreads(ctx, a.Config.CollapsedThreads)
			if err != nil {
				slog.Error("failed to refresh unreads", "error", err)
				return
			}
			a.onUnreads(unreads)
		}()
	default:
		slog.Debug("unhandled realtime event", "event", ev.Event, "seq", ev.Seq)
	}
}

// onUnreads folds per-team unreads into the status bar totals.
func (a *App) onUnreads(unreads []client.TeamUnread) {
	var msgs, mentions int64
	for _, u := range unreads {
		msgs += u.MsgCount
		mentions += u.MentionCount
	}
	a.tview.QueueUpdateDraw(func() {
		a.chatView.StatusBar.SetUnreadTotals(msgs, mentions)
	})
}

func (a *App) currentFlags() team.Flags {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flags
}

func (a *App) channelID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentChannel
}

func (a *App) sidebarMemberIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.memberIDs...)
}

// collectMemberIDs gathers the distinct user ids of a channels payload,
// always including self.
func collectMemberIDs(cw *client.ChannelsWithMembers, selfID string) []string {
	ids := []string{selfID}
	seen := map[string]bool{selfID: true}
	for _, m := range cw.Members {
		if m.UserID == "" || seen[m.UserID] {
			continue
		}
		seen[m.UserID] = true
		ids = append(ids, m.UserID)
	}
	return ids
}
