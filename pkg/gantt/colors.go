package gantt

import "github.com/charmbracelet/lipgloss"

type palette struct {
	css      string // chart fill, a CSS color name
	terminal lipgloss.Color
}

var colormap = map[Category]palette{
	GroupMilestone:   {css: "green", terminal: lipgloss.Color("#008000")},
	ProjectMilestone: {css: "blue", terminal: lipgloss.Color("#4169E1")},
	Issue:            {css: "goldenrod", terminal: lipgloss.Color("#DAA520")},
}

// Color returns the CSS color bars of this category are filled with.
func (c Category) Color() string {
	return c.palette().css
}

func (c Category) terminalStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c.palette().terminal)
}

func (c Category) palette() palette {
	if p, ok := colormap[c]; ok {
		return p
	}
	return colormap[Issue]
}
