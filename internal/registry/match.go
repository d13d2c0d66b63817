package registry

import (
	"net/url"
	"strings"
)

// LinksMatch reports whether two origin-system links point at the same
// procurement. Comparison is a ladder: exact normalized equality, then
// equality of scheme+host+path ignoring the query, then a shared
// "compra" query parameter on the same host.
func LinksMatch(a, b string) bool {
	ua, erra := url.Parse(strings.TrimSpace(a))
	ub, errb := url.Parse(strings.TrimSpace(b))
	if erra != nil || errb != nil {
		return normalizeRaw(a) == normalizeRaw(b) && normalizeRaw(a) != ""
	}
	na, nb := normalizeURL(ua), normalizeURL(ub)
	if na == nb && na != "" {
		return true
	}
	if pathOnly(ua) == pathOnly(ub) && pathOnly(ua) != "" {
		return true
	}
	ca := ua.Query().Get("compra")
	cb := ub.Query().Get("compra")
	if ca != "" && ca == cb && strings.EqualFold(ua.Hostname(), ub.Hostname()) {
		return true
	}
	return false
}

func normalizeRaw(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(s, "/")
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s
}

func normalizeURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.Host = strings.ToLower(c.Host)
	c.Scheme = strings.ToLower(c.Scheme)
	c.Path = strings.TrimSuffix(c.Path, "/")
	return c.String()
}

func pathOnly(u *url.URL) string {
	host := strings.ToLower(u.Hostname())
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	if host == "" || path == "" {
		return ""
	}
	return host + path
}
