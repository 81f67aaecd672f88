package gantt

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// FormatTable renders tasks as a plain text table, one row per task in
// insertion order.
func FormatTable(tasks []Task) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("Index", "Task", "Start", "Finish", "Url", "Resource")

	for _, task := range tasks {
		t.Row(
			strconv.Itoa(task.Index),
			task.Name,
			task.Start.Format("2006-01-02"),
			task.Finish.Format("2006-01-02"),
			task.Link,
			task.Category.terminalStyle().Render(task.Category.String()),
		)
	}
	return t.String()
}
