package client

import "strings"

// Team is a team as returned by the server. A team is addressed in routes by
// its unique Name (the URL slug). Teams are immutable once fetched; a
// re-fetch supersedes the value wholesale.
type Team struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	DeleteAt         int64  `json:"delete_at"`
	GroupConstrained bool   `json:"group_constrained"`
	AllowOpenInvite  bool   `json:"allow_open_invite"`
}

// Deleted reports whether the team has been soft-deleted.
func (t *Team) Deleted() bool { return t.DeleteAt != 0 }

// TeamMember associates a user with a team.
type TeamMember struct {
	TeamID   string `json:"team_id"`
	UserID   string `json:"user_id"`
	Roles    string `json:"roles"`
	DeleteAt int64  `json:"delete_at"`
}

// User is the authenticated user's profile.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Roles    string `json:"roles"`
}

// IsGuest reports whether the user holds the guest role.
func (u *User) IsGuest() bool {
	for _, r := range strings.Fields(u.Roles) {
		if r == "system_guest" {
			return true
		}
	}
	return false
}

// Channel is a channel within a team.
type Channel struct {
	ID            string `json:"id"`
	TeamID        string `json:"team_id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Type          string `json:"type"`
	TotalMsgCount int64  `json:"total_msg_count"`
	LastPostAt    int64  `json:"last_post_at"`
}

// ChannelMember is the current user's membership and read-state for a channel.
type ChannelMember struct {
	ChannelID    string `json:"channel_id"`
	UserID       string `json:"user_id"`
	LastViewedAt int64  `json:"last_viewed_at"`
	MsgCount     int64  `json:"msg_count"`
	MentionCount int64  `json:"mention_count"`
}

// ChannelsWithMembers pairs a team's channels with the current user's
// memberships in them.
type ChannelsWithMembers struct {
	Channels []Channel       `json:"channels"`
	Members  []ChannelMember `json:"members"`
}

// TeamUnread is the per-team unread counter summary.
type TeamUnread struct {
	TeamID       string `json:"team_id"`
	MsgCount     int64  `json:"msg_count"`
	MentionCount int64  `json:"mention_count"`
	ThreadCount  int64  `json:"thread_count"`
}

// UserStatus is a user's presence.
type UserStatus struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Group is a user group, either synced from LDAP or custom.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Source      string `json:"source"`
}

// GroupsPage is a paginated group listing.
type GroupsPage struct {
	Groups     []Group `json:"groups"`
	TotalCount int64   `json:"total_group_count"`
}

// ChannelGroups maps channel IDs to their associated groups.
type ChannelGroups map[string][]Group

// License carries the server's licensed feature flags relevant to group
// fetching.
type License struct {
	Licensed     bool `json:"licensed"`
	LDAPGroups   bool `json:"ldap_groups"`
	CustomGroups bool `json:"custom_groups"`
}
