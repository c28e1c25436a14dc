// Package team implements the client's current-team controller: resolving
// the active route slug against known memberships, joining teams on demand,
// and orchestrating the prefetches a team needs before its content can
// render.
package team

import (
	"sync"

	"github.com/rheko/matcha/internal/client"
)

// Directory is a read-only view of the teams the current user is known to
// belong to, keyed by route slug. It is refreshed wholesale by collaborators
// (startup fetch, websocket membership events); the controller only reads it.
type Directory struct {
	mu     sync.RWMutex
	bySlug map[string]client.Team
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{bySlug: make(map[string]client.Team)}
}

// Replace swaps the directory contents for the given team list.
func (d *Directory) Replace(teams []client.Team) {
	next := make(map[string]client.Team, len(teams))
	for _, t := range teams {
		next[t.Name] = t
	}
	d.mu.Lock()
	d.bySlug = next
	d.mu.Unlock()
}

// Resolve returns the team with the given slug, or nil when the slug is not
// among known memberships. The returned value is a copy.
func (d *Directory) Resolve(slug string) *client.Team {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.bySlug[slug]
	if !ok {
		return nil
	}
	return &t
}

// Teams returns all known teams.
func (d *Directory) Teams() []client.Team {
	d.mu.RLock()
	defer d.mu.RUnlock()
	teams := make([]client.Team, 0, len(d.bySlug))
	for _, t := range d.bySlug {
		teams = append(teams, t)
	}
	return teams
}
