package team

import (
	"context"
	"sync"

	"github.com/rheko/matcha/internal/client"
)

// fakeAPI records which operations were issued and serves canned results.
// It satisfies both API and JoinAPI.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	teams        map[string]*client.Team // by name
	getTeamErr   error
	addMemberErr error
	channelsErr  error
	channels     *client.ChannelsWithMembers
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		teams:    make(map[string]*client.Team),
		channels: &client.ChannelsWithMembers{Channels: []client.Channel{{ID: "c1"}}},
	}
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
}

// callCount returns how many times op was issued.
func (f *fakeAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeAPI) GetTeamByName(ctx context.Context, name string) (*client.Team, error) {
	f.record("get_team_by_name")
	if f.getTeamErr != nil {
		return nil, f.getTeamErr
	}
	t, ok := f.teams[name]
	if !ok {
		return nil, &client.APIError{StatusCode: 404, Message: "team not found"}
	}
	cp := *t
	return &cp, nil
}

func (f *fakeAPI) AddTeamMember(ctx context.Context, teamID, userID string) (*client.TeamMember, error) {
	f.record("add_team_member")
	if f.addMemberErr != nil {
		return nil, f.addMemberErr
	}
	return &client.TeamMember{TeamID: teamID, UserID: userID}, nil
}

func (f *fakeAPI) GetTeamUnreads(ctx context.Context, collapsedThreads bool) ([]client.TeamUnread, error) {
	f.record("team_unreads")
	return nil, nil
}

func (f *fakeAPI) GetChannelsAndMembers(ctx context.Context, teamID string) (*client.ChannelsWithMembers, error) {
	f.record("channels_and_members")
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	return f.channels, nil
}

func (f *fakeAPI) GetGroupsForUser(ctx context.Context, userID string, filterAllowReference bool, page, perPage int, includeTotalCount bool) (*client.GroupsPage, error) {
	f.record("user_groups")
	return &client.GroupsPage{}, nil
}

func (f *fakeAPI) GetGroupsForTeamChannels(ctx context.Context, teamID string, filterAllowReference bool) (client.ChannelGroups, error) {
	f.record("channel_groups")
	return client.ChannelGroups{}, nil
}

func (f *fakeAPI) GetGroupsForTeam(ctx context.Context, teamID string, filterAllowReference bool) (*client.GroupsPage, error) {
	f.record("team_groups")
	return &client.GroupsPage{}, nil
}

func (f *fakeAPI) GetGroups(ctx context.Context, filterAllowReference bool, page, perPage int) ([]client.Group, error) {
	f.record("general_groups")
	return nil, nil
}
