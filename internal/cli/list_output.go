package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/lydakis/tomcat-manager/internal/tomcat"
)

// listRow is the structured form of one application for json and yaml.
type listRow struct {
	Path      string `json:"path" yaml:"path"`
	State     string `json:"state" yaml:"state"`
	Sessions  int    `json:"sessions" yaml:"sessions"`
	Directory string `json:"directory" yaml:"directory"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

func listRows(apps []tomcat.Application) []listRow {
	rows := make([]listRow, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, listRow{
			Path:      app.Path,
			State:     app.State.String(),
			Sessions:  app.Sessions,
			Directory: app.Directory(),
			Version:   app.Version(),
		})
	}
	return rows
}

// selectApplications filters apps by state and path glob, then sorts them.
// An unknown state keeps every application.
func selectApplications(apps []tomcat.Application, state tomcat.State, pattern string, order tomcat.SortOrder) ([]tomcat.Application, error) {
	out := make([]tomcat.Application, 0, len(apps))
	for _, app := range apps {
		if state != tomcat.StateUnknown && app.State != state {
			continue
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, app.Path)
			if err != nil {
				return nil, usageErrorf("invalid path pattern %q: %v", pattern, err)
			}
			if !ok {
				continue
			}
		}
		out = append(out, app)
	}
	tomcat.SortApplications(out, order)
	return out, nil
}

func writeApplicationsRaw(w io.Writer, apps []tomcat.Application) error {
	for _, app := range apps {
		if _, err := fmt.Fprintln(w, app.String()); err != nil {
			return fmt.Errorf("writing list output: %w", err)
		}
	}
	return nil
}

var stateColors = map[tomcat.State]func(format string, a ...any) string{
	tomcat.StateRunning: color.GreenString,
	tomcat.StateStopped: color.RedString,
	tomcat.StateUnknown: color.YellowString,
}

// writeApplicationTable renders apps as aligned columns. The directory
// column is cut to fit width; width <= 0 disables truncation.
func writeApplicationTable(w io.Writer, apps []tomcat.Application, width int) error {
	header := [4]string{"Path", "State", "Sessions", "Directory"}
	cells := make([][4]string, 0, len(apps))
	widths := [4]int{}
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, app := range apps {
		dir := app.Directory()
		if v := app.Version(); v != "" {
			dir += "##" + v
		}
		row := [4]string{app.Path, app.State.String(), humanize.Comma(int64(app.Sessions)), dir}
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
		cells = append(cells, row)
	}

	const gap = "  "
	if width > 0 {
		used := widths[0] + widths[1] + widths[2] + 3*len(gap)
		widths[3] = max(len(header[3]), min(widths[3], width-used))
	}

	var b strings.Builder
	writeRow := func(row [4]string, state *tomcat.State) {
		b.WriteString(pad(row[0], widths[0]))
		b.WriteString(gap)
		st := pad(row[1], widths[1])
		if state != nil {
			st = stateColors[*state]("%s", st)
		}
		b.WriteString(st)
		b.WriteString(gap)
		b.WriteString(padLeft(row[2], widths[2]))
		b.WriteString(gap)
		b.WriteString(truncate(row[3], widths[3]))
		b.WriteString("\n")
	}

	writeRow(header, nil)
	b.WriteString(strings.Repeat("-", widths[0]+widths[1]+widths[2]+widths[3]+3*len(gap)))
	b.WriteString("\n")
	for i, row := range cells {
		writeRow(row, &apps[i].State)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing list output: %w", err)
	}
	return nil
}

func pad(s string, n int) string {
	if d := n - utf8.RuneCountInString(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func padLeft(s string, n int) string {
	if d := n - utf8.RuneCountInString(s); d > 0 {
		return strings.Repeat(" ", d) + s
	}
	return s
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 1 {
		return string([]rune(s)[:max(n, 0)])
	}
	return string([]rune(s)[:n-1]) + "…"
}
