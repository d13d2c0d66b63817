package items

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/relevance"
)

var itemMarkerRx = regexp.MustCompile(`(?im)^\s*item\s+(\d{1,4})\b[:\s.-]*`)

// FromFreeformText reads line items out of running text that marks each
// item with an "Item N" heading and labels fields on the lines below it.
// The description is the unlabeled remainder of the block's first lines.
func FromFreeformText(text string) []edital.LineItem {
	locs := itemMarkerRx.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var list []edital.LineItem
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		number, _ := strconv.Atoi(text[loc[2]:loc[3]])
		block := text[loc[1]:end]
		item := parseBlock(block)
		item.Number = number
		list = append(list, item)
	}
	return list
}

// field labels in folded form; matched against the start of each line.
var fieldLabels = []struct {
	label string
	set   func(*edital.LineItem, string)
}{
	{"quantidade", func(it *edital.LineItem, v string) { it.Quantity = ParseBRL(v) }},
	{"unidade", func(it *edital.LineItem, v string) { it.Unit = v }},
	{"valor unitario", func(it *edital.LineItem, v string) { it.UnitPrice = ParseBRL(v) }},
	{"preco unitario", func(it *edital.LineItem, v string) { it.UnitPrice = ParseBRL(v) }},
	{"valor total", func(it *edital.LineItem, v string) { it.TotalPrice = ParseBRL(v) }},
	{"preco total", func(it *edital.LineItem, v string) { it.TotalPrice = ParseBRL(v) }},
	{"marca", func(it *edital.LineItem, v string) { it.Brand = v }},
	{"modelo", func(it *edital.LineItem, v string) { it.Model = v }},
	{"descricao", func(it *edital.LineItem, v string) { it.Description = v }},
}

func parseBlock(block string) edital.LineItem {
	var item edital.LineItem
	var descLines []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if label, value, ok := splitLabeled(line); ok {
			for _, f := range fieldLabels {
				if strings.HasPrefix(label, f.label) {
					f.set(&item, value)
					break
				}
			}
			continue
		}
		descLines = append(descLines, line)
	}
	if item.Description == "" && len(descLines) > 0 {
		item.Description = strings.Join(descLines, " ")
	}
	return item
}

// splitLabeled splits "Quantidade: 10" into a folded label and its
// value. Lines without a colon in the first 40 runes are not labels.
func splitLabeled(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 || idx > 40 {
		return "", "", false
	}
	label = relevance.Fold(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	return label, value, true
}
