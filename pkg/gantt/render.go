package gantt

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"math"
	"os"
	"time"

	svg "github.com/ajstarks/svgo"

	"github.com/harrisonrobin/gitlab-gantt/pkg/schedule"
)

// DefaultWidth is the chart width in pixels when Options.Width is zero.
const DefaultWidth = 1200

const (
	rowHeight     = 26
	barHeight     = 18
	legendHeight  = 30
	axisHeight    = 30
	marginBottom  = 12
	marginRight   = 24
	charWidth     = 7
	minLabelWidth = 120
	maxLabelWidth = 420
	minTickGap    = 72.0
	linkGlyph     = "o"
)

// Options control how a chart is rendered.
type Options struct {
	Title string
	// Today draws a marker on that day when it falls inside the chart.
	Today time.Time
	Width int
	// Generated is shown in the page footer when set.
	Generated time.Time
}

// Render writes tasks as a self-contained HTML page with an inline SVG
// timeline. The first task is drawn on the top row; tasks sharing a name
// share a row. An empty list renders a page without a chart.
func Render(w io.Writer, tasks []Task, opts Options) error {
	data := pageData{Title: opts.Title, Count: len(tasks)}
	if data.Title == "" {
		data.Title = "Gantt chart"
	}
	if !opts.Generated.IsZero() {
		data.Generated = opts.Generated.Format(time.RFC1123)
	}

	if len(tasks) > 0 {
		var buf bytes.Buffer
		drawChart(&buf, tasks, opts)
		chart := buf.Bytes()
		// Inline SVG needs no XML prolog.
		if i := bytes.Index(chart, []byte("<svg")); i > 0 {
			chart = chart[i:]
		}
		data.Chart = template.HTML(chart)
	}

	return page.Execute(w, data)
}

// WriteFile renders tasks to path and returns the number of bytes written.
// Nothing is written when rendering fails.
func WriteFile(path string, tasks []Task, opts Options) (int, error) {
	var buf bytes.Buffer
	if err := Render(&buf, tasks, opts); err != nil {
		return 0, fmt.Errorf("could not render chart: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("could not write chart to '%s': %w", path, err)
	}
	return buf.Len(), nil
}

type layout struct {
	rows       []string
	rowOf      map[string]int
	from, to   time.Time
	labelWidth int
	plotWidth  int
	width      int
	height     int
}

func newLayout(tasks []Task, width int) layout {
	if width <= 0 {
		width = DefaultWidth
	}
	l := layout{rowOf: make(map[string]int), width: width}

	longest := 0
	for i, t := range tasks {
		if _, ok := l.rowOf[t.Name]; !ok {
			l.rowOf[t.Name] = len(l.rows)
			l.rows = append(l.rows, t.Name)
			longest = max(longest, len([]rune(t.Name)))
		}
		lo, hi := ordered(t.Start, t.Finish)
		if i == 0 || lo.Before(l.from) {
			l.from = lo
		}
		if i == 0 || hi.After(l.to) {
			l.to = hi
		}
	}
	l.from = l.from.AddDate(0, 0, -1)
	l.to = l.to.AddDate(0, 0, 1)

	l.labelWidth = min(max(longest*charWidth+16, minLabelWidth), maxLabelWidth)
	l.plotWidth = max(l.width-l.labelWidth-marginRight, 100)
	l.width = l.labelWidth + l.plotWidth + marginRight
	l.height = legendHeight + axisHeight + len(l.rows)*rowHeight + marginBottom
	return l
}

func (l layout) x(t time.Time) int {
	frac := float64(t.Sub(l.from)) / float64(l.to.Sub(l.from))
	return l.labelWidth + int(math.Round(frac*float64(l.plotWidth)))
}

// y returns the top of a row. Row 0 is the top row.
func (l layout) y(row int) int {
	return legendHeight + axisHeight + row*rowHeight
}

func (l layout) bottom() int {
	return l.y(len(l.rows))
}

// ticks returns the axis tick days and their label layout, keeping labels
// at least minTickGap pixels apart.
func (l layout) ticks() ([]time.Time, string) {
	days := l.to.Sub(l.from).Hours() / 24
	pxPerDay := float64(l.plotWidth) / days

	var ticks []time.Time
	if pxPerDay*7 < minTickGap {
		step := int(math.Ceil(minTickGap / (pxPerDay * 30.4)))
		t := time.Date(l.from.Year(), l.from.Month(), 1, 0, 0, 0, 0, time.UTC)
		if t.Before(l.from) {
			t = t.AddDate(0, 1, 0)
		}
		for ; !t.After(l.to); t = t.AddDate(0, step, 0) {
			ticks = append(ticks, t)
		}
		return ticks, "Jan 2006"
	}

	step := int(math.Ceil(minTickGap / pxPerDay))
	t := l.from
	if step >= 7 {
		step = (step + 6) / 7 * 7
		for t.Weekday() != time.Monday {
			t = t.AddDate(0, 0, 1)
		}
	}
	for ; !t.After(l.to); t = t.AddDate(0, 0, step) {
		ticks = append(ticks, t)
	}
	return ticks, "Jan 02"
}

func drawChart(w io.Writer, tasks []Task, opts Options) {
	l := newLayout(tasks, opts.Width)
	canvas := svg.New(w)
	canvas.Start(l.width, l.height)

	drawLegend(canvas, tasks)

	top, bottom := legendHeight+axisHeight, l.bottom()
	for i := range l.rows {
		if i%2 == 1 {
			canvas.Rect(0, l.y(i), l.width, rowHeight, "fill:#f6f6f6")
		}
	}

	ticks, format := l.ticks()
	for _, t := range ticks {
		x := l.x(t)
		canvas.Line(x, top, x, bottom, "stroke:#dddddd;stroke-width:1")
		canvas.Text(x, top-8, t.Format(format), "text-anchor:middle;font-size:11px;fill:#555")
	}

	for i, name := range l.rows {
		canvas.Text(l.labelWidth-8, l.y(i)+rowHeight/2+4, truncate(name, (l.labelWidth-16)/charWidth),
			"text-anchor:end;font-size:12px;fill:#222")
	}

	for _, t := range tasks {
		drawTask(canvas, l, t)
	}

	if !opts.Today.IsZero() {
		today := schedule.Day(opts.Today)
		if !today.Before(l.from) && !today.After(l.to) {
			x := l.x(today)
			canvas.Line(x, top, x, bottom, "stroke:#d62728;stroke-width:1;stroke-dasharray:4,3")
			canvas.Text(x+3, bottom-4, "today", "font-size:10px;fill:#d62728")
		}
	}

	canvas.End()
}

func drawTask(canvas *svg.SVG, l layout, t Task) {
	lo, hi := ordered(t.Start, t.Finish)
	x1, x2 := l.x(lo), l.x(hi)
	y := l.y(l.rowOf[t.Name])
	barTop := y + (rowHeight-barHeight)/2

	canvas.Group(`class="task"`)
	canvas.Title(fmt.Sprintf("%s\n%s: %s to %s", t.Name, t.Category,
		t.Start.Format("2006-01-02"), t.Finish.Format("2006-01-02")))
	canvas.Rect(x1, barTop, max(x2-x1, 2), barHeight, "fill:"+t.Category.Color()+";fill-opacity:0.85")
	canvas.Gend()

	if t.Link == "" {
		return
	}
	mid := schedule.Span{Start: t.Start, Finish: t.Finish}.Midpoint()
	fmt.Fprintf(canvas.Writer, `<a href="%s" target="_blank" rel="noopener">`, html.EscapeString(t.Link))
	canvas.Text(l.x(mid), barTop+barHeight/2+4, linkGlyph, `class="link"`)
	fmt.Fprintln(canvas.Writer, `</a>`)
}

func drawLegend(canvas *svg.SVG, tasks []Task) {
	present := make(map[Category]bool)
	for _, t := range tasks {
		present[t.Category] = true
	}

	x := 8
	for _, c := range Categories {
		if !present[c] {
			continue
		}
		canvas.Rect(x, 9, 12, 12, "fill:"+c.Color())
		canvas.Text(x+18, 19, c.String(), "font-size:12px;fill:#222")
		x += 18 + len(c.String())*charWidth + 20
	}
}

func ordered(a, b time.Time) (time.Time, time.Time) {
	if b.Before(a) {
		return b, a
	}
	return a, b
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

type pageData struct {
	Title     string
	Chart     template.HTML
	Count     int
	Generated string
}

var page = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 24px; color: #222; }
h1 { font-size: 20px; font-weight: 600; margin: 0 0 12px; }
.chart { overflow-x: auto; }
svg text { font-family: inherit; }
svg .task:hover rect { fill-opacity: 1; }
svg .link { text-anchor: middle; font-size: 12px; font-weight: bold; fill: #fff; stroke: #333; stroke-width: 2px; paint-order: stroke; }
svg a:hover .link { fill: #ffe680; }
.empty { color: #777; }
footer { margin-top: 12px; font-size: 11px; color: #888; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Chart}}<div class="chart">
{{.Chart}}
</div>{{else}}<p class="empty">No milestones or issues to show.</p>{{end}}
<footer>{{.Count}} item{{if ne .Count 1}}s{{end}}{{with .Generated}} &middot; generated {{.}}{{end}}</footer>
</body>
</html>
`))
