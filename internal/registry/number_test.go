package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePurchaseNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		wantSeq  int
		wantYear int
		wantOK   bool
	}{
		{"90016/2025", 90016, 2025, true},
		{"90016 / 2025", 90016, 2025, true},
		{"12-2024", 12, 2024, true},
		{"Pregão 15/2026", 15, 2026, true},
		{"00090/2025", 90, 2025, true},
		{"sem numero", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		seq, year, ok := ParsePurchaseNumber(tc.in)
		assert.Equal(t, tc.wantOK, ok, "input %q", tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.wantSeq, seq, "input %q", tc.in)
			assert.Equal(t, tc.wantYear, year, "input %q", tc.in)
		}
	}
}

func TestParseControlNumber(t *testing.T) {
	t.Parallel()

	seq, year, ok := ParseControlNumber("12345678901234-1-000090/2025")
	assert.True(t, ok)
	assert.Equal(t, 90, seq)
	assert.Equal(t, 2025, year)

	_, _, ok = ParseControlNumber("12345678901234")
	assert.False(t, ok)

	_, _, ok = ParseControlNumber("")
	assert.False(t, ok)
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	got := NormalizeDate("2026-03-15", now)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	got = NormalizeDate("20260315", now)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), got)

	assert.Equal(t, now, NormalizeDate("", now))
	assert.Equal(t, now, NormalizeDate("not a date", now))
}
