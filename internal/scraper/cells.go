package scraper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanText collapses runs of whitespace, including non-breaking spaces, to a
// single space and trims the ends.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// cellState is what the page reports for one <td>: its rendered text and the
// computed style that decides whether it is displayed.
type cellState struct {
	Text       string `json:"text"`
	Display    string `json:"display"`
	Visibility string `json:"visibility"`
	Rendered   bool   `json:"rendered"`
}

func (c cellState) displayed() bool {
	return c.Rendered && c.Display != "none" && c.Visibility != "hidden" && c.Visibility != "collapse"
}

// cellsScript returns every <td> under the element with the given id, in
// document order, or null when the element is missing. Stylesheet rules are
// honoured because visibility comes from the computed style.
func cellsScript(id string) string {
	quoted, _ := json.Marshal(id)
	return fmt.Sprintf(`(function(id) {
	const row = document.getElementById(id);
	if (!row) {
		return null;
	}
	return Array.from(row.querySelectorAll("td")).map(function(td) {
		const style = window.getComputedStyle(td);
		return {
			text: td.innerText,
			display: style.display,
			visibility: style.visibility,
			rendered: td.getClientRects().length > 0
		};
	});
})(%s)`, quoted)
}

// visibleCells keeps the displayed cells and cleans their text.
func visibleCells(states []cellState) []string {
	cells := []string{}
	for _, c := range states {
		if !c.displayed() {
			continue
		}
		cells = append(cells, CleanText(c.Text))
	}
	return cells
}
