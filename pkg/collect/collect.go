// Package collect walks a GitLab group (its milestones, projects, project
// milestones and their issues) and turns it into a Gantt timeline.
package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/harrisonrobin/gitlab-gantt/pkg/gantt"
	"github.com/harrisonrobin/gitlab-gantt/pkg/gitlab"
	"github.com/harrisonrobin/gitlab-gantt/pkg/schedule"
)

// ErrGroupNotFound is returned when the configured group cannot be resolved.
var ErrGroupNotFound = errors.New("group not found or API permissions missing")

// Source is the part of the GitLab API the timeline is built from.
// *gitlab.Client implements it.
type Source interface {
	ListGroups(ctx context.Context, search string) ([]gitlab.Group, error)
	ListGroupMilestones(ctx context.Context, group *gitlab.Group, state string) ([]gitlab.Milestone, error)
	ListGroupProjects(ctx context.Context, groupID int) ([]gitlab.Project, error)
	ListProjectMilestones(ctx context.Context, projectID int, state string) ([]gitlab.Milestone, error)
	ListMilestoneIssues(ctx context.Context, projectID, milestoneID int) ([]gitlab.Issue, error)
}

// ResolveGroup finds the group called name. An exact match on the full path,
// path or name wins, then the closest fuzzy match on the full path, then the
// first search result.
func ResolveGroup(ctx context.Context, src Source, name string) (*gitlab.Group, error) {
	groups, err := src.ListGroups(ctx, name)
	if err != nil {
		if gitlab.IsForbidden(err) || gitlab.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %w", ErrGroupNotFound, err)
		}
		return nil, fmt.Errorf("could not list groups: %w", err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: no group matches '%s'", ErrGroupNotFound, name)
	}

	for i, g := range groups {
		if strings.EqualFold(g.FullPath, name) || strings.EqualFold(g.Path, name) || strings.EqualFold(g.Name, name) {
			return &groups[i], nil
		}
	}

	paths := make([]string, len(groups))
	for i, g := range groups {
		paths[i] = g.FullPath
	}
	if matches := fuzzy.Find(name, paths); len(matches) > 0 {
		return &groups[matches[0].Index], nil
	}
	return &groups[0], nil
}

// Build lists everything active in group and returns it as a timeline:
// group milestones first, then for every project its milestones, each one
// followed by its open issues. endOfTime is the finish of milestones
// without a due date. Any API error aborts the build.
func Build(ctx context.Context, src Source, group *gitlab.Group, endOfTime time.Time) (*gantt.Timeline, error) {
	tl := &gantt.Timeline{}

	groupMilestones, err := src.ListGroupMilestones(ctx, group, gitlab.StateActive)
	if err != nil {
		return nil, fmt.Errorf("could not list milestones of group '%s': %w", group.FullPath, err)
	}
	sortMilestones(groupMilestones)
	for _, m := range groupMilestones {
		span := schedule.Milestone(m, endOfTime)
		tl.Add(m.Title, span.Start, span.Finish, m.WebURL, gantt.GroupMilestone)
	}
	slog.Debug("group milestones listed", "group", group.FullPath, "count", len(groupMilestones))

	projects, err := src.ListGroupProjects(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("could not list projects of group '%s': %w", group.FullPath, err)
	}
	slices.SortStableFunc(projects, func(a, b gitlab.Project) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	for _, p := range projects {
		if err := addProject(ctx, src, tl, p, endOfTime); err != nil {
			return nil, err
		}
	}
	return tl, nil
}

func addProject(ctx context.Context, src Source, tl *gantt.Timeline, p gitlab.Project, endOfTime time.Time) error {
	milestones, err := src.ListProjectMilestones(ctx, p.ID, gitlab.StateActive)
	if err != nil {
		return fmt.Errorf("could not list milestones of project '%s': %w", p.Name, err)
	}
	sortMilestones(milestones)

	for _, m := range milestones {
		span := schedule.Milestone(m, endOfTime)
		tl.Add(p.Name+"/"+m.Title, span.Start, span.Finish, m.WebURL, gantt.ProjectMilestone)

		issues, err := src.ListMilestoneIssues(ctx, p.ID, m.ID)
		if err != nil {
			return fmt.Errorf("could not list issues of milestone '%s/%s': %w", p.Name, m.Title, err)
		}
		sortIssues(issues)

		skipped := 0
		for _, i := range issues {
			if i.Closed() {
				skipped++
				continue
			}
			is := schedule.Issue(i, span)
			tl.Add(i.Title, is.Start, is.Finish, i.WebURL, gantt.Issue)
		}
		slog.Debug("milestone issues listed", "project", p.Name, "milestone", m.Title,
			"issues", len(issues), "closed", skipped)
	}
	return nil
}

// sortMilestones orders milestones by due date; those without one go last.
func sortMilestones(ms []gitlab.Milestone) {
	slices.SortStableFunc(ms, func(a, b gitlab.Milestone) int {
		return compareDue(a.DueDate, b.DueDate, false)
	})
}

// sortIssues orders issues by due date; those without one go first.
func sortIssues(issues []gitlab.Issue) {
	slices.SortStableFunc(issues, func(a, b gitlab.Issue) int {
		return compareDue(a.DueDate, b.DueDate, true)
	})
}

func compareDue(a, b *gitlab.Date, unsetFirst bool) int {
	switch {
	case !a.Set() && !b.Set():
		return 0
	case !a.Set():
		if unsetFirst {
			return -1
		}
		return 1
	case !b.Set():
		if unsetFirst {
			return 1
		}
		return -1
	default:
		return a.Time.Compare(b.Time)
	}
}
