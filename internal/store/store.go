// Package store persists small pieces of client session state (previous
// team, auto-join marker, last-viewed channels) in a local sqlite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested key has no stored value.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS session_kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS last_viewed (
	team_id    TEXT PRIMARY KEY,
	channel_id TEXT NOT NULL
);
`

const (
	keyPreviousTeam   = "previous_team_id"
	keyAutoJoinedTeam = "auto_joined_team_id"
)

// Store is a local sqlite-backed session store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) setKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO session_kv(key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *Store) getKV(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) deleteKV(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// SetPreviousTeamID records the team to return to on next startup.
func (s *Store) SetPreviousTeamID(ctx context.Context, teamID string) error {
	return s.setKV(ctx, keyPreviousTeam, teamID)
}

// PreviousTeamID returns the stored previous team, or ErrNotFound.
func (s *Store) PreviousTeamID(ctx context.Context) (string, error) {
	return s.getKV(ctx, keyPreviousTeam)
}

// SetAutoJoinedTeamID records which team was auto-joined on this load, so
// later UI can acknowledge the membership. Written once per join.
func (s *Store) SetAutoJoinedTeamID(ctx context.Context, teamID string) error {
	return s.setKV(ctx, keyAutoJoinedTeam, teamID)
}

// AutoJoinedTeamID returns the auto-join marker, or ErrNotFound.
func (s *Store) AutoJoinedTeamID(ctx context.Context) (string, error) {
	return s.getKV(ctx, keyAutoJoinedTeam)
}

// ClearAutoJoinedTeamID removes the auto-join marker.
func (s *Store) ClearAutoJoinedTeamID(ctx context.Context) error {
	return s.deleteKV(ctx, keyAutoJoinedTeam)
}

// SetLastViewedChannel records the channel last viewed within a team.
func (s *Store) SetLastViewedChannel(ctx context.Context, teamID, channelID string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO last_viewed(team_id, channel_id) VALUES (?, ?)
ON CONFLICT(team_id) DO UPDATE SET channel_id=excluded.channel_id
`, teamID, channelID)
	if err != nil {
		return fmt.Errorf("set last viewed: %w", err)
	}
	return nil
}

// LastViewedChannel returns the last channel viewed within a team, or
// ErrNotFound.
func (s *Store) LastViewedChannel(ctx context.Context, teamID string) (string, error) {
	var channelID string
	err := s.db.QueryRowContext(ctx, `SELECT channel_id FROM last_viewed WHERE team_id = ?`, teamID).Scan(&channelID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get last viewed: %w", err)
	}
	return channelID, nil
}
