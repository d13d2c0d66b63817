package registry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	purchaseNumberRx = regexp.MustCompile(`(\d{1,10})\s*[/|-]\s*(\d{4})`)
	controlNumberRx  = regexp.MustCompile(`-(\d+)/(\d{4})$`)
)

// ParsePurchaseNumber extracts a (sequence, year) pair from
// representations like "90016/2025". Leading zeros are ignored.
func ParsePurchaseNumber(s string) (seq, year int, ok bool) {
	m := purchaseNumberRx.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	year, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return seq, year, true
}

// ParseControlNumber extracts (sequence, year) from the trailing
// "-SEQ/YYYY" of a registry control number such as
// "01234567890123-1-000090/2025".
func ParseControlNumber(s string) (seq, year int, ok bool) {
	m := controlNumberRx.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(strings.TrimLeft(m[1], "0"))
	if err != nil {
		// All zeros is still sequence zero.
		if strings.Trim(m[1], "0") == "" {
			seq = 0
		} else {
			return 0, 0, false
		}
	}
	year, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return seq, year, true
}

// NormalizeDate accepts "YYYY-MM-DD", "YYYYMMDD" or a zero hint and
// returns the date to anchor the sweep on; an unparseable hint falls
// back to now.
func NormalizeDate(hint string, now time.Time) time.Time {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return now
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if parsed, err := time.Parse(layout, hint); err == nil {
			return parsed
		}
	}
	return now
}
