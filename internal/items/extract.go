package items

import (
	"strings"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Extract reads line items from raw solicitation text. Table rows are
// the more structured source and win whenever they produce anything;
// the freeform block reader runs only when no table was found.
func Extract(text string) []edital.LineItem {
	if tabular := FromTableRows(splitRows(text)); len(tabular) > 0 {
		return tabular
	}
	return FromFreeformText(text)
}

// splitRows turns text lines into table rows. Pipe, semicolon and tab
// act as cell delimiters; lines without any delimiter are single-cell
// rows and never match a header.
func splitRows(text string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var cells []string
		switch {
		case strings.Contains(line, "|"):
			cells = strings.Split(strings.Trim(line, "|"), "|")
		case strings.Contains(line, ";"):
			cells = strings.Split(line, ";")
		case strings.Contains(line, "\t"):
			cells = strings.Split(line, "\t")
		default:
			cells = []string{line}
		}
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}
