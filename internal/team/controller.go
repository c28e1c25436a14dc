package team

import (
	"context"
	"log/slog"
	"sync"

	"github.com/rheko/matcha/internal/client"
)

// State is the controller's position in the route-resolution state machine.
type State int

const (
	StateResolving State = iota
	StateJoining
	StateInitializing
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateJoining:
		return "joining"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the view-facing controller state. It is replaced wholesale on
// every transition, never mutated in place. CurrentTeam is nil only while
// resolving or joining, or after an error.
type Snapshot struct {
	State         State
	CurrentTeam   *client.Team
	ChannelsReady bool
	LastRouteSlug string
}

// Controller keeps the current-team view consistent with route changes. On
// each slug change it resolves against the Directory, joins the team when
// needed, and hands the resolved team to the Initializer.
//
// In-flight fetches are never cancelled when a newer route supersedes them;
// stale completion results are discarded by generation token, and anything
// that slips past (shared counters mutated by a stale unreads fetch) is
// last-write-wins by design of the server API.
type Controller struct {
	dir    *Directory
	joiner *Joiner
	init   *Initializer

	// ReservedSlug reports whether a slug names a system route.
	reservedSlug func(string) bool

	// NavigateToError signals the external navigation collaborator; reason
	// is "team_not_found" for both resolution and membership failures.
	NavigateToError func(reason string)
	// OnChange receives every state snapshot, on the caller's goroutine for
	// synchronous transitions and on a fetch goroutine for async ones.
	OnChange func(Snapshot)
	// OnChannelsData receives the channels and memberships of the fetch
	// that flipped ChannelsReady.
	OnChannelsData func(teamID string, cw *client.ChannelsWithMembers)
	// ClearAutoJoinMarker clears the persisted auto-join acknowledgement at
	// controller start. Optional.
	ClearAutoJoinMarker func() error

	mu        sync.Mutex
	snap      Snapshot
	gen       uint64
	firstLoad bool
	stopped   bool
}

// NewController wires a controller over the directory, joiner and
// initializer. It takes ownership of the initializer's OnChannelsLoaded
// callback.
func NewController(dir *Directory, joiner *Joiner, init *Initializer, reservedSlug func(string) bool) *Controller {
	c := &Controller{
		dir:          dir,
		joiner:       joiner,
		init:         init,
		reservedSlug: reservedSlug,
		firstLoad:    true,
	}
	init.OnChannelsLoaded = c.channelsLoaded
	init.ClearChannelsReady = c.clearChannelsReady
	return c
}

// Start begins resolution for the slug present at mount time.
func (c *Controller) Start(ctx context.Context, slug string) {
	if c.ClearAutoJoinMarker != nil {
		if err := c.ClearAutoJoinMarker(); err != nil {
			slog.Error("failed to clear auto-join marker", "error", err)
		}
	}
	c.OnRouteChanged(ctx, slug)
}

// OnRouteChanged re-runs the full resolution state machine for a new slug.
// ChannelsReady resets to false for the new team.
func (c *Controller) OnRouteChanged(ctx context.Context, slug string) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.gen++
	gen := c.gen
	c.snap = Snapshot{State: StateResolving, LastRouteSlug: slug}
	c.mu.Unlock()
	c.notify()

	if team := c.dir.Resolve(slug); team != nil {
		c.enterInitializing(ctx, *team, gen)
		return
	}

	if c.reservedSlug != nil && c.reservedSlug(slug) {
		// Reserved slugs are silently ignored: no join, no navigation.
		slog.Debug("route slug is reserved, ignoring", "slug", slug)
		c.transition(gen, Snapshot{State: StateError, LastRouteSlug: slug})
		return
	}

	firstLoad := c.takeFirstLoad()
	c.transition(gen, Snapshot{State: StateJoining, LastRouteSlug: slug})

	go func() {
		team, attempted, err := c.joiner.Join(ctx, slug, firstLoad)
		if c.isStale(gen) {
			// A newer route superseded this join; drop the result.
			return
		}
		switch {
		case err != nil:
			slog.Warn("team join failed", "slug", slug, "error", err)
			c.transition(gen, Snapshot{State: StateError, LastRouteSlug: slug})
			if c.NavigateToError != nil {
				c.NavigateToError("team_not_found")
			}
		case !attempted:
			c.transition(gen, Snapshot{State: StateError, LastRouteSlug: slug})
		default:
			c.enterInitializing(ctx, *team, gen)
		}
	}()
}

// Stop halts the controller. In-flight fetches keep running to completion
// but their results are discarded.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

// CurrentTeam returns the resolved team, or nil while resolving/joining.
func (c *Controller) CurrentTeam() *client.Team {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.CurrentTeam == nil {
		return nil
	}
	t := *c.snap.CurrentTeam
	return &t
}

// ChannelsReady reports whether the current team's channels have loaded.
func (c *Controller) ChannelsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.ChannelsReady
}

// Snapshot returns the full view-facing state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

func (c *Controller) enterInitializing(ctx context.Context, team client.Team, gen uint64) {
	if !c.transition(gen, Snapshot{
		State:         StateInitializing,
		CurrentTeam:   &team,
		LastRouteSlug: c.Snapshot().LastRouteSlug,
	}) {
		return
	}

	// Fire-and-forget: readiness arrives later via channelsLoaded.
	c.init.Initialize(ctx, team, gen)

	c.mu.Lock()
	if gen == c.gen && c.snap.State == StateInitializing {
		s := c.snap
		s.State = StateReady
		c.snap = s
	}
	c.mu.Unlock()
	c.notify()
}

// channelsLoaded is the initializer's readiness callback. Results from a
// superseded generation are discarded.
func (c *Controller) channelsLoaded(teamID string, gen uint64, cw *client.ChannelsWithMembers, err error) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Already logged by the initializer; readiness stays false.
		c.mu.Unlock()
		return
	}
	s := c.snap
	s.ChannelsReady = true
	c.snap = s
	c.mu.Unlock()
	c.notify()

	if c.OnChannelsData != nil && cw != nil {
		c.OnChannelsData(teamID, cw)
	}
}

func (c *Controller) clearChannelsReady() {
	c.mu.Lock()
	s := c.snap
	s.ChannelsReady = false
	c.snap = s
	c.mu.Unlock()
}

// transition replaces the snapshot if gen is still current. Reports whether
// the transition was applied.
func (c *Controller) transition(gen uint64, next Snapshot) bool {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.snap = next
	c.mu.Unlock()
	c.notify()
	return true
}

func (c *Controller) isStale(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped || gen != c.gen
}

func (c *Controller) takeFirstLoad() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.firstLoad
	c.firstLoad = false
	return v
}

func (c *Controller) notify() {
	if c.OnChange == nil {
		return
	}
	c.mu.Lock()
	s := c.snap
	c.mu.Unlock()
	c.OnChange(s)
}
