// Package export writes named report tables to files, the terminal, the store
// and email.
package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Table is one named report. Names may contain "/" to place the table in a
// sub-directory, e.g. "flourish/saved_tracks_mcg".
type Table struct {
	Name    string     `yaml:"name"`
	Columns []string   `yaml:"columns"`
	Rows    [][]string `yaml:"rows"`
}

// Validate checks that every row has one cell per column.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %q has no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %q row %d: got %d cells, want %d", t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}

func (t Table) String() string {
	out := new(bytes.Buffer)
	fmt.Fprintf(out, "%s\n", t.Name)
	table := tablewriter.NewWriter(out)
	table.Header(t.Columns)
	for _, row := range t.Rows {
		if err := table.Append(row); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("Error rendering table: %v", err)
	}
	return out.String()
}

// HTML renders the table as an HTML fragment for email bodies.
func (t Table) HTML() string {
	var out strings.Builder
	fmt.Fprintf(&out, "<div>\n<h2>%s</h2>\n", html.EscapeString(t.Name))
	if len(t.Rows) == 0 {
		out.WriteString("<div>No rows.</div>\n</div>\n")
		return out.String()
	}

	out.WriteString("<table>\n<thead>\n<tr>")
	for _, header := range t.Columns {
		fmt.Fprintf(&out, "<th>%s</th>", html.EscapeString(header))
	}
	out.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range t.Rows {
		out.WriteString("<tr>")
		for _, column := range row {
			fmt.Fprintf(&out, "<td>%s</td>", html.EscapeString(column))
		}
		out.WriteString("</tr>\n")
	}
	out.WriteString("</tbody>\n</table>\n</div>\n")
	return out.String()
}
