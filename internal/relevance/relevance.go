// Package relevance scores document names and titles by how likely they
// are to be the main solicitation document, and provides the text
// normalization shared by the scorers.
package relevance

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Keyword weights, hand-tuned. The relative ordering is load-bearing
// (edital must outrank everything else); the point values themselves are
// tunable rather than contractual.
var (
	editalPoints     = 100
	instrumentPoints = 70
	refTermPoints    = 60
	annexPoints      = 15
	revisionPoints   = 5
	pdfSuffixPoints  = 5
)

var revisionRx = regexp.MustCompile(`\brev\b|retificac|republicac|vers[a]o\s*\d`)

var spaceRx = regexp.MustCompile(`\s+`)

// Fold lowercases a string and strips combining marks so that accented
// and unaccented spellings compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return spaceRx.ReplaceAllString(strings.ToLower(strings.TrimSpace(out)), " ")
}

// ScoreName rates a filename or document title for relevance as the main
// solicitation document.
func ScoreName(name string) int {
	folded := Fold(name)
	score := 0
	if strings.Contains(folded, "edital") {
		score += editalPoints
	}
	if strings.Contains(folded, "instrumento") {
		score += instrumentPoints
	}
	// "termo de referência" shows up with spaces, underscores or dashes.
	if strings.Contains(folded, "termo") && strings.Contains(folded, "referencia") {
		score += refTermPoints
	}
	if strings.Contains(folded, "anexo") {
		score += annexPoints
	}
	if revisionRx.MatchString(folded) {
		score += revisionPoints
	}
	if strings.HasSuffix(folded, ".pdf") {
		score += pdfSuffixPoints
	}
	return score
}

// Jaccard computes token-set Jaccard similarity between two names,
// accent- and case-insensitive. Used to match entity names against
// registry publications.
func Jaccard(a, b string) float64 {
	ta := tokens(a)
	tb := tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokens(s string) map[string]struct{} {
	folded := Fold(s)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(folded) {
		out[tok] = struct{}{}
	}
	return out
}
