package team

import (
	"context"
	"errors"
	"testing"

	"github.com/rheko/matcha/internal/client"
)

func reservedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(s string) bool { return set[s] }
}

func TestJoin_ReservedSlugNotAttempted(t *testing.T) {
	api := newFakeAPI()
	j := NewJoiner(api, "u1", reservedSet("admin_console"))

	team, attempted, err := j.Join(context.Background(), "admin_console", false)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if attempted {
		t.Error("reserved slug should not be attempted")
	}
	if team != nil {
		t.Errorf("reserved slug returned team %+v", team)
	}
	if api.callCount("get_team_by_name") != 0 {
		t.Error("reserved slug reached the server")
	}
}

func TestJoin_TeamMissing(t *testing.T) {
	api := newFakeAPI()
	j := NewJoiner(api, "u1", nil)

	_, attempted, err := j.Join(context.Background(), "ghost", false)
	if !attempted {
		t.Error("non-reserved slug should be attempted")
	}
	if !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("err = %v, want ErrTeamNotFound", err)
	}
}

func TestJoin_SoftDeletedTeamIsNotFound(t *testing.T) {
	api := newFakeAPI()
	api.teams["old"] = &client.Team{ID: "t1", Name: "old", DeleteAt: 12345}
	j := NewJoiner(api, "u1", nil)

	_, _, err := j.Join(context.Background(), "old", false)
	if !errors.Is(err, ErrTeamNotFound) {
		t.Errorf("err = %v, want ErrTeamNotFound for deleted team", err)
	}
	if api.callCount("add_team_member") != 0 {
		t.Error("membership attempted for a deleted team")
	}
}

func TestJoin_MembershipRejected(t *testing.T) {
	api := newFakeAPI()
	api.teams["locked"] = &client.Team{ID: "t1", Name: "locked"}
	api.addMemberErr = &client.APIError{StatusCode: 403, Message: "not allowed"}
	j := NewJoiner(api, "u1", nil)

	_, _, err := j.Join(context.Background(), "locked", false)
	if !errors.Is(err, ErrMembershipRejected) {
		t.Errorf("err = %v, want ErrMembershipRejected", err)
	}
}

func TestJoin_Success(t *testing.T) {
	api := newFakeAPI()
	api.teams["engineering"] = &client.Team{ID: "t1", Name: "engineering"}
	j := NewJoiner(api, "u1", nil)

	team, attempted, err := j.Join(context.Background(), "engineering", false)
	if err != nil || !attempted {
		t.Fatalf("Join: attempted=%v err=%v", attempted, err)
	}
	if team.ID != "t1" {
		t.Errorf("team = %+v", team)
	}
	if api.callCount("add_team_member") != 1 {
		t.Errorf("add_team_member called %d times", api.callCount("add_team_member"))
	}
}

func TestJoin_FirstLoadRecordsMarkerOnce(t *testing.T) {
	api := newFakeAPI()
	api.teams["engineering"] = &client.Team{ID: "t1", Name: "engineering"}
	j := NewJoiner(api, "u1", nil)

	var recorded []string
	j.RecordAutoJoin = func(teamID string) error {
		recorded = append(recorded, teamID)
		return nil
	}

	if _, _, err := j.Join(context.Background(), "engineering", true); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(recorded) != 1 || recorded[0] != "t1" {
		t.Errorf("marker writes = %v, want exactly [t1]", recorded)
	}

	// Subsequent joins without the first-load flag must not write.
	if _, _, err := j.Join(context.Background(), "engineering", false); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if len(recorded) != 1 {
		t.Errorf("marker written on non-first-load join: %v", recorded)
	}
}

func TestJoin_NoMarkerOnFailure(t *testing.T) {
	api := newFakeAPI()
	j := NewJoiner(api, "u1", nil)

	called := false
	j.RecordAutoJoin = func(string) error { called = true; return nil }

	j.Join(context.Background(), "ghost", true)
	if called {
		t.Error("marker written for a failed join")
	}
}
