package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient builds a Client against a httptest server without going
// through New (which would require a /users/me round trip).
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		baseURL: srv.URL,
		token:   "test-token",
		hc:      srv.Client(),
		UserID:  "u1",
	}, srv
}

func TestGetTeamByName(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/teams/name/engineering" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing auth header, got %q", got)
		}
		json.NewEncoder(w).Encode(Team{ID: "t1", Name: "engineering"})
	}))

	team, err := c.GetTeamByName(context.Background(), "engineering")
	if err != nil {
		t.Fatalf("GetTeamByName: %v", err)
	}
	if team.ID != "t1" || team.Name != "engineering" {
		t.Errorf("unexpected team %+v", team)
	}
}

func TestGetTeamByName_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"id": "store.sql_team.get_by_name.missing", "message": "team not found"})
	}))

	_, err := c.GetTeamByName(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
}

func TestDo_RetriesOnRateLimit(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(User{ID: "u1", Username: "alice"})
	}))

	me, err := c.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe after rate limit: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if me.Username != "alice" {
		t.Errorf("unexpected user %+v", me)
	}
}

func TestAddTeamMember(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v4/teams/t1/members" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["team_id"] != "t1" || body["user_id"] != "u1" {
			t.Errorf("unexpected body %v", body)
		}
		json.NewEncoder(w).Encode(TeamMember{TeamID: "t1", UserID: "u1"})
	}))

	tm, err := c.AddTeamMember(context.Background(), "t1", "u1")
	if err != nil {
		t.Fatalf("AddTeamMember: %v", err)
	}
	if tm.TeamID != "t1" {
		t.Errorf("unexpected member %+v", tm)
	}
}

func TestGetTeamUnreads_CollapsedThreadsVariant(t *testing.T) {
	var gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]TeamUnread{{TeamID: "t1", MsgCount: 3}})
	}))

	if _, err := c.GetTeamUnreads(context.Background(), true); err != nil {
		t.Fatalf("GetTeamUnreads: %v", err)
	}
	if gotQuery != "include_collapsed_threads=true" {
		t.Errorf("collapsed threads flag not sent, query = %q", gotQuery)
	}

	if _, err := c.GetTeamUnreads(context.Background(), false); err != nil {
		t.Fatalf("GetTeamUnreads: %v", err)
	}
	if gotQuery != "" {
		t.Errorf("unexpected query without collapsed threads: %q", gotQuery)
	}
}

func TestViewChannel(t *testing.T) {
	var body map[string]string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/channels/members/me/view" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.ViewChannel(context.Background(), "", "c1"); err != nil {
		t.Fatalf("ViewChannel: %v", err)
	}
	if body["channel_id"] != "" || body["prev_channel_id"] != "c1" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestGetClientLicense(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"IsLicensed":   "true",
			"LDAPGroups":   "true",
			"CustomGroups": "false",
		})
	}))

	lic, err := c.GetClientLicense(context.Background())
	if err != nil {
		t.Fatalf("GetClientLicense: %v", err)
	}
	if !lic.Licensed || !lic.LDAPGroups || lic.CustomGroups {
		t.Errorf("unexpected license %+v", lic)
	}
}

func TestUserIsGuest(t *testing.T) {
	tests := []struct {
		roles string
		want  bool
	}{
		{"system_user", false},
		{"system_guest", true},
		{"system_user system_guest", true},
		{"", false},
	}
	for _, tt := range tests {
		u := &User{Roles: tt.roles}
		if got := u.IsGuest(); got != tt.want {
			t.Errorf("IsGuest(%q) = %v, want %v", tt.roles, got, tt.want)
		}
	}
}
