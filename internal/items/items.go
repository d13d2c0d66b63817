// Package items extracts the itemized goods/services list from
// solicitation text. Two readers cover the usual layouts: delimited
// table rows with a recognizable header, and freeform "Item N" blocks
// with labeled fields.
package items

import (
	"strconv"
	"strings"

	"github.com/licitaware/edital-resolver/internal/relevance"
)

// ParseBRL parses Brazilian currency/number notation: "R$ 1.234,56"
// becomes 1234.56. Empty or unparseable input yields nil.
func ParseBRL(s string) *float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// Thousands dots go, the decimal comma becomes a dot.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// column identifies what a table header cell means.
type column int

const (
	colUnknown column = iota
	colNumber
	colDescription
	colQuantity
	colUnit
	colUnitPrice
	colTotalPrice
	colBrand
	colModel
)

// classifyHeader maps a header cell to a column, accent and case
// insensitive. "valor unitário" must win over plain "valor"/"unidade"
// so the unit-price check runs first.
func classifyHeader(cell string) column {
	folded := relevance.Fold(cell)
	switch {
	case strings.Contains(folded, "valor unit") || strings.Contains(folded, "preco unit") || strings.Contains(folded, "vl unit"):
		return colUnitPrice
	case strings.Contains(folded, "valor total") || strings.Contains(folded, "preco total") || strings.Contains(folded, "vl total"):
		return colTotalPrice
	case strings.Contains(folded, "quant") || folded == "qtd" || folded == "qtde":
		return colQuantity
	case strings.Contains(folded, "unid") || folded == "und" || folded == "um":
		return colUnit
	case strings.Contains(folded, "descr") || strings.Contains(folded, "objeto") || strings.Contains(folded, "especifica"):
		return colDescription
	case strings.Contains(folded, "marca"):
		return colBrand
	case strings.Contains(folded, "modelo"):
		return colModel
	case folded == "item" || folded == "n" || folded == "no" || folded == "num" || strings.Contains(folded, "numero"):
		return colNumber
	default:
		return colUnknown
	}
}
