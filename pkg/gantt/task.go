package gantt

import (
	"time"
)

// Category decides how a task is colored. The zero value is Issue.
type Category int

const (
	Issue Category = iota
	ProjectMilestone
	GroupMilestone
)

// Categories lists every category in legend order.
var Categories = []Category{GroupMilestone, ProjectMilestone, Issue}

func (c Category) String() string {
	switch c {
	case GroupMilestone:
		return "Group Milestone"
	case ProjectMilestone:
		return "Project Milestone"
	default:
		return "Issue"
	}
}

// Task is one bar of the chart.
type Task struct {
	Index    int
	Name     string
	Start    time.Time
	Finish   time.Time
	Link     string
	Category Category
}

// Timeline is an ordered, append-only list of tasks.
type Timeline struct {
	tasks []Task
}

// Add appends a task. Dates are taken as given: nothing is deduplicated or
// checked for ordering.
func (tl *Timeline) Add(name string, start, finish time.Time, link string, category Category) {
	tl.tasks = append(tl.tasks, Task{
		Index:    len(tl.tasks),
		Name:     name,
		Start:    start,
		Finish:   finish,
		Link:     link,
		Category: category,
	})
}

// Len returns the number of tasks added so far.
func (tl *Timeline) Len() int {
	return len(tl.tasks)
}

// Tasks returns a copy of the tasks in insertion order.
func (tl *Timeline) Tasks() []Task {
	out := make([]Task, len(tl.tasks))
	copy(out, tl.tasks)
	return out
}
