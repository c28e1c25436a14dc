package team

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rheko/matcha/internal/client"
)

const groupsPerPage = 60

// API is the server surface the initializer drives.
type API interface {
	GetTeamUnreads(ctx context.Context, collapsedThreads bool) ([]client.TeamUnread, error)
	GetChannelsAndMembers(ctx context.Context, teamID string) (*client.ChannelsWithMembers, error)
	GetGroupsForUser(ctx context.Context, userID string, filterAllowReference bool, page, perPage int, includeTotalCount bool) (*client.GroupsPage, error)
	GetGroupsForTeamChannels(ctx context.Context, teamID string, filterAllowReference bool) (client.ChannelGroups, error)
	GetGroupsForTeam(ctx context.Context, teamID string, filterAllowReference bool) (*client.GroupsPage, error)
	GetGroups(ctx context.Context, filterAllowReference bool, page, perPage int) ([]client.Group, error)
}

// Flags are the licensed feature flags that gate group fetching.
type Flags struct {
	Licensed     bool
	LDAPGroups   bool
	CustomGroups bool
}

// Initializer issues the ordered set of data prefetches for a newly selected
// team. Each fetch runs on its own goroutine; a failed fetch is logged and
// never aborts the others. Only the channels fetch gates readiness, reported
// through OnChannelsLoaded.
//
// Ordering holds only within a single Initialize call. Fetches are never
// cancelled when a newer team supersedes them; completion handlers use the
// generation token to discard stale results.
type Initializer struct {
	api    API
	userID string

	// Flags returns the current licensed feature flags.
	Flags func() Flags
	// IsGuest reports whether the current user is a guest.
	IsGuest func() bool
	// CollapsedThreads selects the unread count variant.
	CollapsedThreads func() bool
	// SelectTeam signals the newly selected team to the view layer. Invoked
	// synchronously, before the channel fetch is issued.
	SelectTeam func(team client.Team)
	// PersistPreviousTeam records the team id for session continuity.
	PersistPreviousTeam func(teamID string) error
	// LoadSidebarPresence fetches presence for channel and sidebar members.
	LoadSidebarPresence func(ctx context.Context) error
	// ClearChannelsReady is invoked for guest users before the channel fetch
	// to guard against a stale ready flag from a prior team.
	ClearChannelsReady func()
	// OnChannelsLoaded receives the result of the readiness-gating channels
	// fetch. err is non-nil when the fetch failed; cw is nil in that case.
	OnChannelsLoaded func(teamID string, gen uint64, cw *client.ChannelsWithMembers, err error)

	wg sync.WaitGroup
}

// NewInitializer creates an Initializer for the given API and user. Callers
// set the callback fields before the first Initialize.
func NewInitializer(api API, userID string) *Initializer {
	return &Initializer{api: api, userID: userID}
}

// Initialize issues the prefetch sequence for team. gen is the caller's
// generation token, echoed back through OnChannelsLoaded.
func (in *Initializer) Initialize(ctx context.Context, team client.Team, gen uint64) {
	// Unread counts for all teams; independent of everything below.
	collapsed := in.CollapsedThreads != nil && in.CollapsedThreads()
	in.spawn(func() {
		if _, err := in.api.GetTeamUnreads(ctx, collapsed); err != nil {
			slog.Error("failed to fetch team unreads", "team", team.ID, "error", err)
		}
	})

	// The selected-team signal must land before channel content so the view
	// never shows a previous team's channels under the new team's header.
	if in.SelectTeam != nil {
		in.SelectTeam(team)
	}

	if in.PersistPreviousTeam != nil {
		in.spawn(func() {
			if err := in.PersistPreviousTeam(team.ID); err != nil {
				slog.Error("failed to persist previous team", "team", team.ID, "error", err)
			}
		})
	}

	if in.IsGuest != nil && in.IsGuest() && in.ClearChannelsReady != nil {
		in.ClearChannelsReady()
	}

	// The only fetch that gates channelsReady.
	in.spawn(func() {
		cw, err := in.api.GetChannelsAndMembers(ctx, team.ID)
		if err != nil {
			slog.Error("failed to fetch channels and members", "team", team.ID, "error", err)
		}
		if in.OnChannelsLoaded != nil {
			in.OnChannelsLoaded(team.ID, gen, cw, err)
		}
	})

	if in.LoadSidebarPresence != nil {
		in.spawn(func() {
			if err := in.LoadSidebarPresence(ctx); err != nil {
				slog.Error("failed to load sidebar presence", "team", team.ID, "error", err)
			}
		})
	}

	in.fetchGroups(ctx, team)
}

// Wait blocks until all fetches issued so far have completed. Used on
// shutdown and in tests; regular operation never waits.
func (in *Initializer) Wait() {
	in.wg.Wait()
}

func (in *Initializer) spawn(fn func()) {
	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		fn()
	}()
}

// groupFetchPlan names which group fetch kinds an Initialize call issues.
type groupFetchPlan struct {
	userGroups   bool
	teamChannels bool
	teamGroups   bool
	generalList  bool
}

// planGroupFetches decides the group fetch set purely from the license
// flags and the team's group constraint. teamGroups and generalList are
// mutually exclusive alternatives.
func planGroupFetches(f Flags, groupConstrained bool) groupFetchPlan {
	var p groupFetchPlan
	if !f.Licensed || (!f.LDAPGroups && !f.CustomGroups) {
		return p
	}
	p.userGroups = true
	if f.LDAPGroups {
		p.teamChannels = true
	}
	if groupConstrained && f.LDAPGroups {
		p.teamGroups = true
	} else {
		p.generalList = true
	}
	return p
}

func (in *Initializer) fetchGroups(ctx context.Context, team client.Team) {
	var flags Flags
	if in.Flags != nil {
		flags = in.Flags()
	}
	plan := planGroupFetches(flags, team.GroupConstrained)

	if plan.userGroups {
		in.spawn(func() {
			if _, err := in.api.GetGroupsForUser(ctx, in.userID, true, 0, groupsPerPage, true); err != nil {
				slog.Error("failed to fetch user groups", "user", in.userID, "error", err)
			}
		})
	}
	if plan.teamChannels {
		in.spawn(func() {
			if _, err := in.api.GetGroupsForTeamChannels(ctx, team.ID, true); err != nil {
				slog.Error("failed to fetch channel groups", "team", team.ID, "error", err)
			}
		})
	}
	if plan.teamGroups {
		in.spawn(func() {
			if _, err := in.api.GetGroupsForTeam(ctx, team.ID, true); err != nil {
				slog.Error("failed to fetch team groups", "team", team.ID, "error", err)
			}
		})
	}
	if plan.generalList {
		in.spawn(func() {
			if _, err := in.api.GetGroups(ctx, true, 0, groupsPerPage); err != nil {
				slog.Error("failed to fetch groups", "error", err)
			}
		})
	}
}
