package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rheko/matcha/internal/client"
)

var (
	// ErrTeamNotFound means the slug has no matching active team.
	ErrTeamNotFound = errors.New("team not found")
	// ErrMembershipRejected means the server denied the join request.
	ErrMembershipRejected = errors.New("membership rejected")
)

// JoinAPI is the server surface the joiner needs.
type JoinAPI interface {
	GetTeamByName(ctx context.Context, name string) (*client.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID string) (*client.TeamMember, error)
}

// Joiner adds the current user to a team addressed by route slug.
type Joiner struct {
	api      JoinAPI
	userID   string
	reserved func(slug string) bool

	// RecordAutoJoin persists which team was auto-joined on first load so
	// later UI can acknowledge the new membership. Called at most once per
	// successful join. Optional.
	RecordAutoJoin func(teamID string) error
}

// NewJoiner creates a Joiner. reserved reports whether a slug is a reserved
// system route name and may be nil.
func NewJoiner(api JoinAPI, userID string, reserved func(string) bool) *Joiner {
	return &Joiner{api: api, userID: userID, reserved: reserved}
}

// Join resolves slug to a team and adds the current user to it. Reserved
// slugs are skipped entirely: attempted is false and no error is returned.
// A missing or soft-deleted team yields ErrTeamNotFound; a denied membership
// yields ErrMembershipRejected.
func (j *Joiner) Join(ctx context.Context, slug string, firstLoad bool) (team *client.Team, attempted bool, err error) {
	if j.reserved != nil && j.reserved(slug) {
		return nil, false, nil
	}

	t, err := j.api.GetTeamByName(ctx, slug)
	if err != nil {
		return nil, true, fmt.Errorf("%w: resolving %q: %v", ErrTeamNotFound, slug, err)
	}
	if t.Deleted() {
		return nil, true, fmt.Errorf("%w: %q is deleted", ErrTeamNotFound, slug)
	}

	if _, err := j.api.AddTeamMember(ctx, t.ID, j.userID); err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrMembershipRejected, err)
	}

	if firstLoad && j.RecordAutoJoin != nil {
		if err := j.RecordAutoJoin(t.ID); err != nil {
			slog.Error("failed to record auto-joined team", "team", t.ID, "error", err)
		}
	}

	return t, true, nil
}
