package app

import (
	"context"

	"github.com/rheko/matcha/internal/client"
)

// apiAdapter layers app concerns over the raw API client: unread totals are
// observed on their way through, and sidebar presence is resolved against
// the member set of the most recent channels payload.
type apiAdapter struct {
	*client.Client

	memberIDs func() []string
	onUnreads func([]client.TeamUnread)
}

func (a *apiAdapter) GetTeamUnreads(ctx context.Context, collapsedThreads bool) ([]client.TeamUnread, error) {
	unreads, err := a.Client.GetTeamUnreads(ctx, collapsedThreads)
	if err == nil && a.onUnreads != nil {
		a.onUnreads(unreads)
	}
	return unreads, err
}

// LoadSidebarPresence fetches statuses for the members the sidebar shows.
// Before the first channels payload arrives only self is known.
func (a *apiAdapter) LoadSidebarPresence(ctx context.Context) error {
	var ids []string
	if a.memberIDs != nil {
		ids = a.memberIDs()
	}
	if len(ids) == 0 {
		ids = []string{a.UserID}
	}
	_, err := a.GetStatusesByIDs(ctx, ids)
	return err
}
