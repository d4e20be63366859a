package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/vulnverified/altsweep/internal/engine"
)

var tableHeaders = []string{"Value", "Type", "Targets", "Suppressed", "Example", "Owner"}

// maxTableRows caps the summary table; the full list is in the save file.
const maxTableRows = 25

type valueRow struct {
	value      string
	typ        engine.RecordType
	targets    int
	suppressed int
	example    string
	owner      string
}

// WriteTable renders the most frequently resolved values as a styled
// terminal table, one row per value.
func WriteTable(w io.Writer, result *engine.RunResult, noColor bool) {
	if len(result.Resolved) == 0 {
		fmt.Fprintln(w, "\nNo candidates resolved.")
		return
	}

	byValue := make(map[string]*valueRow)
	for _, r := range result.Resolved {
		row, ok := byValue[r.Value]
		if !ok {
			row = &valueRow{value: r.Value, typ: r.Type, example: r.Target, suppressed: result.Suppressed[r.Value]}
			byValue[r.Value] = row
		}
		row.targets++
		if r.Target < row.example {
			row.example = r.Target
		}
		if row.owner == "" && r.Ownership != nil {
			row.owner = ownerLine(r.Ownership)
		}
	}

	ordered := make([]*valueRow, 0, len(byValue))
	for _, row := range byValue {
		ordered = append(ordered, row)
	}
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.targets+a.suppressed != b.targets+b.suppressed {
			return a.targets+a.suppressed > b.targets+b.suppressed
		}
		return a.value < b.value
	})

	var rows [][]string
	for _, row := range ordered[:min(len(ordered), maxTableRows)] {
		rows = append(rows, []string{
			truncate(row.value, 50),
			string(row.typ),
			strconv.Itoa(row.targets),
			strconv.Itoa(row.suppressed),
			truncate(row.example, 40),
			truncate(row.owner, 40),
		})
	}

	fmt.Fprintln(w)

	if noColor {
		writeSimpleTable(w, rows)
	} else {
		t := table.New().
			Headers(tableHeaders...).
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
				}
				return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
			})

		for _, row := range rows {
			t.Row(row...)
		}

		fmt.Fprintln(w, t.Render())
	}

	if len(ordered) > maxTableRows {
		fmt.Fprintf(w, "... and %d more values\n", len(ordered)-maxTableRows)
	}
}

func writeSimpleTable(w io.Writer, rows [][]string) {
	widths := make([]int, len(tableHeaders))
	for i, h := range tableHeaders {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}

	writeRow(tableHeaders)
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		writeRow(row)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
