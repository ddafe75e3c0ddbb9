// Package okta implements the external directory boundary against the
// Okta management API.
package okta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	sdk "github.com/okta/okta-sdk-golang/v6/okta"

	"github.com/oktabridge/oktabridge/internal/reconcile"
)

const defaultPageLimit = 50

// Client is the Okta-backed reconcile.ExternalDirectory.
type Client struct {
	BaseURL string
	AppID   string
	api     *sdk.APIClient
}

// New creates a new Okta client. It validates the configuration and
// returns an error if the SDK configuration fails.
func New(cfg Config) (*Client, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sdkCfg, err := sdk.NewConfiguration(
		sdk.WithOrgUrl(cfg.BaseURL()),
		sdk.WithToken(cfg.Token),
		sdk.WithCache(false),
		sdk.WithRequestTimeout(120),
		sdk.WithRateLimitMaxBackOff(30),
		sdk.WithRateLimitMaxRetries(4),
	)
	if err != nil {
		return nil, fmt.Errorf("okta sdk config: %w", err)
	}
	api := sdk.NewAPIClient(sdkCfg)
	return &Client{BaseURL: cfg.BaseURL(), AppID: cfg.AppID, api: api}, nil
}

func (c *Client) ensureClient() error {
	if c == nil || c.api == nil {
		return errors.New("okta client is not initialized")
	}
	return nil
}

// ListApplicationUsers fetches one page of users assigned to the
// configured application. The returned cursor is the opaque "after" value
// from the next-page link, forwarded verbatim on the following call.
func (c *Client) ListApplicationUsers(ctx context.Context, opts reconcile.PageOptions) (reconcile.Page, error) {
	if err := c.ensureClient(); err != nil {
		return reconcile.Page{}, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	req := c.api.ApplicationUsersAPI.ListApplicationUsers(ctx, c.AppID).Limit(int32(limit))
	if after := strings.TrimSpace(opts.After); after != "" {
		req = req.After(after)
	}
	users, resp, err := req.Execute()
	if err != nil {
		return reconcile.Page{}, formatOktaError(err, resp)
	}

	page := reconcile.Page{NextCursor: nextCursorFromResponse(resp)}
	for _, u := range users {
		id := strings.TrimSpace(u.GetId())
		if id == "" {
			continue
		}
		page.Users = append(page.Users, reconcile.DirectoryUser{ID: id})
	}
	return page, nil
}

// GetUserProfile fetches the full user profile for a subject id or login.
func (c *Client) GetUserProfile(ctx context.Context, subject string) (reconcile.Profile, error) {
	if err := c.ensureClient(); err != nil {
		return reconcile.Profile{}, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return reconcile.Profile{}, errors.New("okta user id is required")
	}

	user, resp, err := c.api.UserAPI.GetUser(ctx, subject).Execute()
	if err != nil {
		return reconcile.Profile{}, formatOktaError(err, resp)
	}

	out := reconcile.Profile{}
	if user.Profile != nil {
		out.Login = strings.TrimSpace(user.Profile.GetLogin())
		out.Email = strings.TrimSpace(user.Profile.GetEmail())
		out.FirstName = strings.TrimSpace(user.Profile.GetFirstName())
		out.Surname = strings.TrimSpace(user.Profile.GetLastName())
		out.Attributes = profileAttributes(user.Profile)
	}
	return out, nil
}

// ListUserGroups returns the names of all groups the user belongs to,
// following SDK pagination to the end: group sets are small and the
// engine needs the complete claim set to reconcile correctly.
func (c *Client) ListUserGroups(ctx context.Context, subject string) ([]string, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}

	req := c.api.UserResourcesAPI.ListUserGroups(ctx, subject)
	groups, resp, err := req.Execute()
	if err != nil {
		return nil, formatOktaError(err, resp)
	}
	var out []string
	for {
		for _, g := range groups {
			if name := groupName(g); name != "" {
				out = append(out, name)
			}
		}
		if resp == nil || !resp.HasNextPage() {
			break
		}
		var next []sdk.Group
		resp, err = resp.Next(&next)
		if err != nil {
			return nil, formatOktaError(err, resp)
		}
		groups = next
	}
	return out, nil
}

// UserExists reports whether the subject still resolves upstream. A 404
// is a definitive "gone"; every other failure is an error so callers
// never unlink on a transient fault.
func (c *Client) UserExists(ctx context.Context, subject string) (bool, error) {
	if err := c.ensureClient(); err != nil {
		return false, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return false, errors.New("okta user id is required")
	}

	_, resp, err := c.api.UserAPI.GetUser(ctx, subject).Execute()
	if err != nil {
		if resp != nil && resp.Response != nil && resp.Response.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, formatOktaError(err, resp)
	}
	return true, nil
}

func groupName(g sdk.Group) string {
	if g.Profile == nil {
		return ""
	}
	if g.Profile.OktaUserGroupProfile != nil {
		return strings.TrimSpace(g.Profile.OktaUserGroupProfile.GetName())
	}
	if g.Profile.OktaActiveDirectoryGroupProfile != nil {
		return strings.TrimSpace(g.Profile.OktaActiveDirectoryGroupProfile.GetName())
	}
	return ""
}

func profileAttributes(profile any) map[string]any {
	raw, err := json.Marshal(profile)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// nextCursorFromResponse extracts the opaque "after" value from the
// response's rel="next" link header, empty when the page is the last one.
func nextCursorFromResponse(resp *sdk.APIResponse) string {
	if resp == nil || resp.Response == nil {
		return ""
	}
	return nextCursorFromHeader(resp.Response.Header)
}

func nextCursorFromHeader(header http.Header) string {
	for _, link := range header.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			if !strings.Contains(part, `rel="next"`) {
				continue
			}
			start := strings.Index(part, "<")
			end := strings.Index(part, ">")
			if start < 0 || end <= start {
				continue
			}
			parsed, err := url.Parse(part[start+1 : end])
			if err != nil {
				continue
			}
			if after := parsed.Query().Get("after"); after != "" {
				return after
			}
		}
	}
	return ""
}

func formatOktaError(err error, resp *sdk.APIResponse) error {
	if err == nil {
		return nil
	}
	status := ""
	if resp != nil && resp.Response != nil {
		status = resp.Response.Status
	}
	var apiErr *sdk.GenericOpenAPIError
	if errors.As(err, &apiErr) {
		if model := apiErr.Model(); model != nil {
			switch v := model.(type) {
			case sdk.Error:
				if summary := strings.TrimSpace(v.GetErrorSummary()); summary != "" {
					return oktaAPIError(status, summary)
				}
			case *sdk.Error:
				if summary := strings.TrimSpace(v.GetErrorSummary()); summary != "" {
					return oktaAPIError(status, summary)
				}
			}
		}
		body := strings.TrimSpace(string(apiErr.Body()))
		const maxBody = 4096
		if len(body) > maxBody {
			body = body[:maxBody] + fmt.Sprintf("... (truncated, %d bytes)", len(body))
		}
		if body != "" {
			return oktaAPIError(status, body)
		}
	}
	if status != "" {
		return fmt.Errorf("okta api error: %s: %w", status, err)
	}
	return err
}

func oktaAPIError(status, detail string) error {
	if status != "" {
		return fmt.Errorf("okta api error: %s: %s", status, detail)
	}
	return fmt.Errorf("okta api error: %s", detail)
}
