// Package schedule infers the date span of milestones and issues that lack
// explicit scheduling data. All functions are pure and work on calendar
// days: times are truncated to midnight UTC of the date as written.
package schedule

import (
	"fmt"
	"time"

	"github.com/harrisonrobin/gitlab-gantt/pkg/gitlab"
)

const day = 24 * time.Hour

// Span is a closed range of calendar days.
type Span struct {
	Start  time.Time
	Finish time.Time
}

// Days returns the number of days from Start to Finish. It is negative for a
// reversed span.
func (s Span) Days() int {
	return int(s.Finish.Sub(s.Start) / day)
}

// Midpoint returns the middle day of the span, rounded down over the
// sequence of days Start..Finish. A reversed span yields Start.
func (s Span) Midpoint() time.Time {
	n := s.Days() + 1
	if n <= 0 {
		return s.Start
	}
	return s.Start.AddDate(0, 0, n/2)
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start.Format(gitlab.DateLayout), s.Finish.Format(gitlab.DateLayout))
}

// Day truncates t to its calendar date. The date is taken in t's own
// location, so a timestamp keeps the day it was written with.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses the date part (first ten characters) of an ISO 8601 string.
func ParseDay(s string) (time.Time, error) {
	if len(s) > len(gitlab.DateLayout) {
		s = s[:len(gitlab.DateLayout)]
	}
	t, err := time.Parse(gitlab.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s': %w", s, err)
	}
	return t, nil
}

// EndOfTime is the finish assumed for milestones without a due date: the day
// one year after now. Feb 29 maps to Feb 28 of the next year.
func EndOfTime(now time.Time) time.Time {
	today := Day(now)
	next := today.AddDate(1, 0, 0)
	if next.Day() != today.Day() {
		// AddDate normalizes Feb 29 into March; step back to the month end.
		next = next.AddDate(0, 0, -next.Day())
	}
	return next
}

// Milestone resolves the span of a group or project milestone.
func Milestone(m gitlab.Milestone, endOfTime time.Time) Span {
	var s Span
	if m.StartDate.Set() {
		s.Start = Day(m.StartDate.Time)
	} else {
		s.Start = Day(m.CreatedAt)
	}

	if m.DueDate.Set() {
		s.Finish = Day(m.DueDate.Time)
	} else {
		s.Finish = Day(endOfTime)
	}
	return s
}

// Issue resolves the span of an issue inside a milestone spanning parent.
//
// An issue with a due date becomes a one day bar ending on the due date.
// Otherwise it starts on the later of its creation day and the milestone
// start and lasts one day. Nothing keeps the result inside the milestone.
func Issue(i gitlab.Issue, parent Span) Span {
	if i.DueDate.Set() {
		finish := Day(i.DueDate.Time)
		return Span{Start: finish.AddDate(0, 0, -1), Finish: finish}
	}

	start := Day(i.CreatedAt)
	if start.Before(parent.Start) {
		start = parent.Start
	}
	return Span{Start: start, Finish: start.AddDate(0, 0, 1)}
}
