package gitlab

import (
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"
)

const (
	StateActive = "active"
	StateOpened = "opened"
	StateClosed = "closed"
)

// DateLayout is the layout GitLab uses for date-only fields (start_date, due_date).
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) *Date {
	return &Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// dateOf converts a date-only API field. A missing date stays nil.
func dateOf(d *gl.ISOTime) *Date {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	if t.IsZero() {
		return nil
	}
	return NewDate(t.Date())
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (d Date) String() string {
	if d.Time.IsZero() {
		return ""
	}
	return d.Time.Format(DateLayout)
}

// Set reports whether d holds a date. A nil Date is unset.
func (d *Date) Set() bool {
	return d != nil && !d.Time.IsZero()
}

type User struct {
	ID       int
	Username string
	Name     string
}

type Group struct {
	ID       int
	Name     string
	Path     string
	FullPath string
	WebURL   string
}

type Project struct {
	ID                int
	Name              string
	PathWithNamespace string
	CreatedAt         time.Time
	WebURL            string
}

// Milestone is a group or project milestone.
type Milestone struct {
	ID        int
	IID       int
	GroupID   int
	ProjectID int
	Title     string
	State     string
	StartDate *Date
	DueDate   *Date
	CreatedAt time.Time
	WebURL    string
}

type Issue struct {
	ID        int
	IID       int
	ProjectID int
	Title     string
	State     string
	DueDate   *Date
	CreatedAt time.Time
	WebURL    string
}

// Closed reports whether the issue has been closed.
func (i Issue) Closed() bool {
	return i.State == StateClosed
}
