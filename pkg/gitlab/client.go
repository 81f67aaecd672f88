package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	gl "gitlab.com/gitlab-org/api/client-go"
)

// Lists are read as a single page.
const perPage = 100

// Client is a read-only view of the GitLab API returning the records the
// chart is built from.
type Client struct {
	api *gl.Client
}

// NewClient creates a client for the GitLab instance at instanceURL.
// httpClient is used for every request (see the auth package); token is
// sent as the private token.
func NewClient(instanceURL, token string, httpClient *http.Client) (*Client, error) {
	instanceURL = strings.TrimRight(instanceURL, "/")
	if instanceURL == "" {
		return nil, fmt.Errorf("gitlab instance URL is empty")
	}
	u, err := url.Parse(instanceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gitlab instance URL '%s': %w", instanceURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gitlab instance URL '%s' must include scheme and host", instanceURL)
	}

	opts := []gl.ClientOptionFunc{
		gl.WithBaseURL(instanceURL),
		gl.WithoutRetries(),
	}
	if httpClient != nil {
		opts = append(opts, gl.WithHTTPClient(httpClient))
	}
	api, err := gl.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create gitlab client: %w", err)
	}
	return &Client{api: api}, nil
}

func requestOptions(ctx context.Context) []gl.RequestOptionFunc {
	return []gl.RequestOptionFunc{gl.WithContext(ctx), withPerPage}
}

func withPerPage(req *retryablehttp.Request) error {
	q := req.URL.Query()
	q.Set("per_page", strconv.Itoa(perPage))
	req.URL.RawQuery = q.Encode()
	return nil
}

// CurrentUser returns the user the credentials belong to. It is the cheapest
// way to check that the token is accepted.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	u, _, err := c.api.Users.CurrentUser(gl.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &User{ID: u.ID, Username: u.Username, Name: u.Name}, nil
}

// ListGroups lists the groups visible to the user whose name or path matches search.
func (c *Client) ListGroups(ctx context.Context, search string) ([]Group, error) {
	groups, _, err := c.api.Groups.ListGroups(&gl.ListGroupsOptions{Search: gl.Ptr(search)}, requestOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, Group{ID: g.ID, Name: g.Name, Path: g.Path, FullPath: g.FullPath, WebURL: g.WebURL})
	}
	return out, nil
}

// ListGroupMilestones lists the milestones of a group. An empty state lists all of them.
func (c *Client) ListGroupMilestones(ctx context.Context, group *Group, state string) ([]Milestone, error) {
	opt := &gl.ListGroupMilestonesOptions{}
	if state != "" {
		opt.State = gl.Ptr(state)
	}
	ms, _, err := c.api.GroupMilestones.ListGroupMilestones(group.ID, opt, requestOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	out := make([]Milestone, 0, len(ms))
	for _, m := range ms {
		out = append(out, Milestone{
			ID:        m.ID,
			IID:       m.IID,
			GroupID:   m.GroupID,
			Title:     m.Title,
			State:     m.State,
			StartDate: dateOf(m.StartDate),
			DueDate:   dateOf(m.DueDate),
			CreatedAt: timeOf(m.CreatedAt),
			WebURL:    groupMilestoneURL(group, m.IID),
		})
	}
	return out, nil
}

// groupMilestoneURL is the page of a group milestone, next to the group page.
func groupMilestoneURL(group *Group, iid int) string {
	if group.WebURL == "" {
		return ""
	}
	return strings.TrimRight(group.WebURL, "/") + "/-/milestones/" + strconv.Itoa(iid)
}

// ListGroupProjects lists the projects directly owned by a group.
func (c *Client) ListGroupProjects(ctx context.Context, groupID int) ([]Project, error) {
	projects, _, err := c.api.Groups.ListGroupProjects(groupID, &gl.ListGroupProjectsOptions{}, requestOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	out := make([]Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, Project{
			ID:                p.ID,
			Name:              p.Name,
			PathWithNamespace: p.PathWithNamespace,
			CreatedAt:         timeOf(p.CreatedAt),
			WebURL:            p.WebURL,
		})
	}
	return out, nil
}

// ListProjectMilestones lists the milestones of a project. An empty state lists all of them.
func (c *Client) ListProjectMilestones(ctx context.Context, projectID int, state string) ([]Milestone, error) {
	opt := &gl.ListMilestonesOptions{}
	if state != "" {
		opt.State = gl.Ptr(state)
	}
	ms, _, err := c.api.Milestones.ListMilestones(projectID, opt, requestOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	out := make([]Milestone, 0, len(ms))
	for _, m := range ms {
		out = append(out, Milestone{
			ID:        m.ID,
			IID:       m.IID,
			ProjectID: m.ProjectID,
			Title:     m.Title,
			State:     m.State,
			StartDate: dateOf(m.StartDate),
			DueDate:   dateOf(m.DueDate),
			CreatedAt: timeOf(m.CreatedAt),
			WebURL:    m.WebURL,
		})
	}
	return out, nil
}

// ListMilestoneIssues lists the issues assigned to a project milestone.
// milestoneID is the global milestone ID, not the IID.
func (c *Client) ListMilestoneIssues(ctx context.Context, projectID, milestoneID int) ([]Issue, error) {
	issues, _, err := c.api.Milestones.GetMilestoneIssues(projectID, milestoneID, nil, requestOptions(ctx)...)
	if err != nil {
		return nil, err
	}
	out := make([]Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, Issue{
			ID:        i.ID,
			IID:       i.IID,
			ProjectID: i.ProjectID,
			Title:     i.Title,
			State:     i.State,
			DueDate:   dateOf(i.DueDate),
			CreatedAt: timeOf(i.CreatedAt),
			WebURL:    i.WebURL,
		})
	}
	return out, nil
}

// StatusCode returns the HTTP status of a failed API call, or 0 if err did
// not come from an API response.
func StatusCode(err error) int {
	var apiErr *gl.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		return apiErr.Response.StatusCode
	}
	return 0
}

// IsForbidden reports whether the API refused the credentials or the access.
func IsForbidden(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsNotFound reports whether the API answered 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
