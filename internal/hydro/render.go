package hydro

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Render draws the table for console output (dry runs and debug logging).
func (t Table) Render() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	for i, row := range t {
		r := make(table.Row, len(row))
		for j, cell := range row {
			r[j] = cell
		}

		switch i {
		case RowHeaderTop, RowHeaderBottom:
			tw.AppendHeader(r)
		default:
			tw.AppendRow(r)
		}
	}

	return tw.Render()
}
