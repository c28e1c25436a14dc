// Package focussync keeps read-state and presence accurate across terminal
// focus and blur transitions: marking the current channel read on focus,
// clearing the active-viewing state on blur, and refreshing a team's
// channels after the window has been away long enough to go stale.
package focussync

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// After a blur longer than this, local channel state is treated as
// potentially stale and re-fetched on focus.
const staleBlurThreshold = 10 * time.Second

// Sync owns the focus state. Its callbacks are evaluated independently on
// every focus event; none excludes another.
type Sync struct {
	// UserPresent reports whether a user session exists.
	UserPresent func() bool
	// CurrentChannel returns the active channel id, or "".
	CurrentChannel func() string
	// CurrentTeam returns the active team id, or "".
	CurrentTeam func() string
	// ThreadSelected reports whether a thread is open.
	ThreadSelected func() bool
	// MarkChannelRead marks a channel read on focus.
	MarkChannelRead func(channelID string)
	// ClearViewedChannel signals "stopped viewing" for the empty channel,
	// clearing active-viewing state server-side.
	ClearViewedChannel func()
	// RefetchChannels re-fetches a team's channels and memberships.
	RefetchChannels func(teamID string)

	mu        sync.Mutex
	blurredAt time.Time
	active    atomic.Bool
}

// New creates a Sync; callers set the callback fields before wiring events.
func New() *Sync {
	s := &Sync{}
	s.active.Store(true)
	return s
}

// WindowActive reports whether the window currently has focus. Readable by
// any subsystem.
func (s *Sync) WindowActive() bool {
	return s.active.Load()
}

// OnBlur records the blur and clears active-viewing state.
func (s *Sync) OnBlur(now time.Time) {
	s.mu.Lock()
	s.blurredAt = now
	s.mu.Unlock()
	s.active.Store(false)

	if s.UserPresent != nil && s.UserPresent() && s.ClearViewedChannel != nil {
		s.ClearViewedChannel()
	}
}

// OnFocus evaluates the three focus effects: the thread check, the
// mark-read of the current channel, and the staleness re-fetch.
func (s *Sync) OnFocus(now time.Time) {
	if s.ThreadSelected != nil && s.ThreadSelected() {
		s.active.Store(true)
	}

	if s.CurrentChannel != nil {
		if ch := s.CurrentChannel(); ch != "" {
			if s.MarkChannelRead != nil {
				s.MarkChannelRead(ch)
			}
			s.active.Store(true)
		}
	}

	s.mu.Lock()
	blurred := s.blurredAt
	s.mu.Unlock()

	if blurred.IsZero() || now.Sub(blurred) <= staleBlurThreshold {
		return
	}
	if s.CurrentTeam == nil || s.RefetchChannels == nil {
		return
	}
	if team := s.CurrentTeam(); team != "" {
		slog.Debug("refreshing channels after long blur", "team", team, "blurred", now.Sub(blurred))
		s.RefetchChannels(team)
	}
}
