package headless_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/headless"
)

func TestNewCapturerDisabled(t *testing.T) {
	t.Parallel()

	c, err := headless.NewCapturer(headless.Config{Enabled: false}, zap.NewNop())
	require.ErrorIs(t, err, headless.ErrDisabled)
	assert.Nil(t, c)
}
