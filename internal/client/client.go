// Package client implements the HTTP and websocket client for the chat
// server's v4 API. Operations are thin wrappers with rate-limit retry;
// callers treat them as opaque async calls with success/error outcomes.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const apiPrefix = "/api/v4"

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server: %s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("server: status %d", e.StatusCode)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a thin wrapper around the server's HTTP API with rate-limit
// retry and cached identity information.
type Client struct {
	baseURL  string
	token    string
	hc       *http.Client
	UserID   string
	Username string
	Me       User
}

// New creates a Client, validates the token by fetching the current user,
// and populates the identity fields.
func New(baseURL, token string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	if _, err := url.Parse(baseURL); err != nil || baseURL == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		token:   token,
		hc:      &http.Client{Timeout: 30 * time.Second},
	}

	me, err := c.GetMe(context.Background())
	if err != nil {
		return nil, err
	}
	c.Me = *me
	c.UserID = me.ID
	c.Username = me.Username
	return c, nil
}

// Token returns the session token for authenticated requests.
func (c *Client) Token() string { return c.token }

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// do issues a request and decodes the JSON response into out (when non-nil).
// On HTTP 429 it honors the Retry-After header and retries once, mirroring
// the rate-limit handling the rest of the client relies on.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		resp, err = c.doOnce(ctx, method, path, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.hc.Do(req)
}

// retryAfter parses the Retry-After header, defaulting to one second.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

// GetMe returns the authenticated user.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetTeamByName resolves a team by its URL slug.
func (c *Client) GetTeamByName(ctx context.Context, name string) (*Team, error) {
	var t Team
	if err := c.do(ctx, http.MethodGet, "/teams/name/"+url.PathEscape(name), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetMyTeams returns all teams the current user belongs to.
func (c *Client) GetMyTeams(ctx context.Context) ([]Team, error) {
	var teams []Team
	if err := c.do(ctx, http.MethodGet, "/users/me/teams", nil, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// AddTeamMember adds a user to a team.
func (c *Client) AddTeamMember(ctx context.Context, teamID, userID string) (*TeamMember, error) {
	body := map[string]string{"team_id": teamID, "user_id": userID}
	var tm TeamMember
	if err := c.do(ctx, http.MethodPost, "/teams/"+teamID+"/members", body, &tm); err != nil {
		return nil, err
	}
	return &tm, nil
}

// GetTeamUnreads returns unread counters for all the user's teams. The
// collapsedThreads flag selects which count variant the server computes.
func (c *Client) GetTeamUnreads(ctx context.Context, collapsedThreads bool) ([]TeamUnread, error) {
	path := "/users/me/teams/unread"
	if collapsedThreads {
		path += "?include_collapsed_threads=true"
	}
	var unreads []TeamUnread
	if err := c.do(ctx, http.MethodGet, path, nil, &unreads); err != nil {
		return nil, err
	}
	return unreads, nil
}

// GetChannelsAndMembers returns a team's channels together with the current
// user's channel memberships.
func (c *Client) GetChannelsAndMembers(ctx context.Context, teamID string) (*ChannelsWithMembers, error) {
	var cw ChannelsWithMembers
	if err := c.do(ctx, http.MethodGet, "/users/me/teams/"+teamID+"/channels/members", nil, &cw); err != nil {
		return nil, err
	}
	return &cw, nil
}

// GetAllTeamsChannelsAndMembers returns channels and memberships across all
// the user's teams.
func (c *Client) GetAllTeamsChannelsAndMembers(ctx context.Context) (*ChannelsWithMembers, error) {
	var cw ChannelsWithMembers
	if err := c.do(ctx, http.MethodGet, "/users/me/channels/members", nil, &cw); err != nil {
		return nil, err
	}
	return &cw, nil
}

// GetStatusesByIDs returns presence for the given user IDs.
func (c *Client) GetStatusesByIDs(ctx context.Context, userIDs []string) ([]UserStatus, error) {
	var statuses []UserStatus
	if err := c.do(ctx, http.MethodPost, "/users/status/ids", userIDs, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// GetGroupsForUser returns the user's group memberships, paginated.
func (c *Client) GetGroupsForUser(ctx context.Context, userID string, filterAllowReference bool, page, perPage int, includeTotalCount bool) (*GroupsPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("filter_allow_reference", strconv.FormatBool(filterAllowReference))
	q.Set("include_total_count", strconv.FormatBool(includeTotalCount))
	var gp GroupsPage
	if err := c.do(ctx, http.MethodGet, "/users/"+userID+"/groups?"+q.Encode(), nil, &gp); err != nil {
		return nil, err
	}
	return &gp, nil
}

// GetGroupsForTeamChannels returns groups associated to each channel in a
// team.
func (c *Client) GetGroupsForTeamChannels(ctx context.Context, teamID string, filterAllowReference bool) (ChannelGroups, error) {
	q := url.Values{}
	q.Set("filter_allow_reference", strconv.FormatBool(filterAllowReference))
	var cg ChannelGroups
	if err := c.do(ctx, http.MethodGet, "/teams/"+teamID+"/groups_by_channels?"+q.Encode(), nil, &cg); err != nil {
		return nil, err
	}
	return cg, nil
}

// GetGroupsForTeam returns groups associated to the team itself.
func (c *Client) GetGroupsForTeam(ctx context.Context, teamID string, filterAllowReference bool) (*GroupsPage, error) {
	q := url.Values{}
	q.Set("filter_allow_reference", strconv.FormatBool(filterAllowReference))
	var gp GroupsPage
	if err := c.do(ctx, http.MethodGet, "/teams/"+teamID+"/groups?"+q.Encode(), nil, &gp); err != nil {
		return nil, err
	}
	return &gp, nil
}

// GetGroups returns the general group list, paginated.
func (c *Client) GetGroups(ctx context.Context, filterAllowReference bool, page, perPage int) ([]Group, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("filter_allow_reference", strconv.FormatBool(filterAllowReference))
	var groups []Group
	if err := c.do(ctx, http.MethodGet, "/groups?"+q.Encode(), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ViewChannel reports the channel the user is actively viewing, advancing
// the read cursor. An empty channelID clears the active-viewing state.
func (c *Client) ViewChannel(ctx context.Context, channelID, prevChannelID string) error {
	body := map[string]string{
		"channel_id":      channelID,
		"prev_channel_id": prevChannelID,
	}
	return c.do(ctx, http.MethodPost, "/channels/members/me/view", body, nil)
}

// GetClientLicense returns the licensed feature flags relevant to groups.
func (c *Client) GetClientLicense(ctx context.Context) (*License, error) {
	var raw map[string]string
	if err := c.do(ctx, http.MethodGet, "/license/client?format=old", nil, &raw); err != nil {
		return nil, err
	}
	return &License{
		Licensed:     raw["IsLicensed"] == "true",
		LDAPGroups:   raw["LDAPGroups"] == "true",
		CustomGroups: raw["CustomGroups"] == "true",
	}, nil
}
