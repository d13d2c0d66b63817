// Package htmltext mines HTML landing pages: it extracts their visible
// text and ranks anchors that likely point at the solicitation document.
package htmltext

import (
	"bytes"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/licitaware/edital-resolver/internal/relevance"
)

// MaxLinks caps the ranked shortlist returned by FindPDFLinks.
const MaxLinks = 10

var hrefRx = regexp.MustCompile(`href="([^"]+)"|href='([^']+)'`)

// VisibleText strips script/style/noscript and returns the page's
// rendered text. Falls back to the raw markup when parsing fails.
func VisibleText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " ")
}

// FindPDFLinks scores every anchor in the page and returns up to
// MaxLinks absolute URLs, best first. A permissive regex pass covers
// markup goquery cannot parse.
func FindPDFLinks(html []byte, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	type scored struct {
		url   string
		score int
	}
	var candidates []scored
	seen := make(map[string]struct{})
	add := func(href, text string) {
		abs := resolve(base, href)
		if abs == "" {
			return
		}
		score := anchorScore(abs, text)
		if score <= 0 {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		candidates = append(candidates, scored{url: abs, score: score})
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err == nil {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			add(href, sel.Text())
		})
	}
	if len(candidates) == 0 {
		for _, m := range hrefRx.FindAllStringSubmatch(string(html), -1) {
			href := m[1]
			if href == "" {
				href = m[2]
			}
			add(href, "")
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > MaxLinks {
		candidates = candidates[:MaxLinks]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.url
	}
	return out
}

// anchorScore keeps anchors that look like document downloads and ranks
// them with the shared relevance scorer so "edital" links beat generic
// annex links.
func anchorScore(absURL, text string) int {
	lu := strings.ToLower(absURL)
	lt := relevance.Fold(text)
	score := relevance.ScoreName(lu) + relevance.ScoreName(lt)
	if strings.HasSuffix(strings.ToLower(pathOf(lu)), ".pdf") {
		score += 50
	} else if strings.Contains(lu, "pdf") || strings.Contains(lt, "pdf") {
		score += 20
	}
	if strings.Contains(lu, "download") || strings.Contains(lt, "download") {
		score += 10
	}
	return score
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	if base == nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
