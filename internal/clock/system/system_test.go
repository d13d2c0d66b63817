package system_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitaware/edital-resolver/internal/clock/system"
)

func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	clk := system.New()
	require.NotNil(t, clk)

	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
}

func TestNowNonDecreasing(t *testing.T) {
	t.Parallel()

	clk := system.New()
	first := clk.Now()
	second := clk.Now()
	assert.False(t, second.Before(first))
}
