package items

import (
	"strconv"
	"strings"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// FromTableRows reads line items out of pre-split table rows. The first
// row containing at least two recognizable headers becomes the header;
// every following row with the same arity is mapped through it. Rows
// whose item-number cell is not numeric are skipped as section breaks.
func FromTableRows(rows [][]string) []edital.LineItem {
	headerIdx, layout := findHeader(rows)
	if headerIdx < 0 {
		return nil
	}
	var list []edital.LineItem
	for _, row := range rows[headerIdx+1:] {
		item, ok := mapRow(row, layout)
		if !ok {
			continue
		}
		list = append(list, item)
	}
	return list
}

func findHeader(rows [][]string) (int, map[int]column) {
	for i, row := range rows {
		layout := make(map[int]column)
		for j, cell := range row {
			if col := classifyHeader(cell); col != colUnknown {
				layout[j] = col
			}
		}
		if len(layout) >= 2 {
			return i, layout
		}
	}
	return -1, nil
}

func mapRow(row []string, layout map[int]column) (edital.LineItem, bool) {
	var item edital.LineItem
	any := false
	for j, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		switch layout[j] {
		case colNumber:
			n, err := strconv.Atoi(strings.TrimRight(cell, "."))
			if err != nil {
				return edital.LineItem{}, false
			}
			item.Number = n
			any = true
		case colDescription:
			item.Description = cell
			any = true
		case colQuantity:
			item.Quantity = ParseBRL(cell)
			any = any || item.Quantity != nil
		case colUnit:
			item.Unit = cell
			any = true
		case colUnitPrice:
			item.UnitPrice = ParseBRL(cell)
			any = any || item.UnitPrice != nil
		case colTotalPrice:
			item.TotalPrice = ParseBRL(cell)
			any = any || item.TotalPrice != nil
		case colBrand:
			item.Brand = cell
			any = true
		case colModel:
			item.Model = cell
			any = true
		}
	}
	return item, any
}
