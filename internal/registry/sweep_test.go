package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

func sweepConfig(baseURL string) Config {
	return Config{
		Enabled:    true,
		BaseURL:    baseURL,
		TotalDays:  10,
		StepDays:   5,
		PageLimit:  2,
		PageSize:   50,
		ModalCodes: []int{1, 2},
		Workers:    2,
		QPS:        1000,
	}
}

func TestSweepStopsOnEmptyRegistry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	err := client.sweep(context.Background(), time.Now(), sweepFilter{}, func(edital.RegistryRecord) bool {
		t.Error("no rows expected")
		return false
	})
	require.NoError(t, err)

	// Two date blocks times two modality codes; an empty first page
	// ends each combination without touching page two.
	assert.Equal(t, int64(4), calls.Load())
}

func TestSweepHonorsPageLimit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		// A full page every time, so only the page limit stops the loop.
		fmt.Fprint(w, `{"data": [`)
		for i := 0; i < 50; i++ {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"numeroControlePNCP": "111-1-%06d/2025"}`, i+1)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer srv.Close()

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	err := client.sweep(context.Background(), time.Now(), sweepFilter{}, func(edital.RegistryRecord) bool {
		return false
	})
	require.NoError(t, err)

	// blocks(2) x codes(2) x page limit(2)
	assert.Equal(t, int64(8), calls.Load())
}

func TestSweepFirstMatchWins(t *testing.T) {
	t.Parallel()

	link := "https://compras.gov.br/ver?compra=42"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data": [{
			"linkSistemaOrigem": %q,
			"numeroControlePNCP": "12345678000190-1-000042/2025",
			"orgaoEntidade": {"cnpj": "12345678000190", "nome": "Prefeitura"}
		}]}`, link)
	}))
	defer srv.Close()

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.FindRecordByLink(context.Background(), link, time.Now(), "", "")
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, 42, res.Value().Sequence)
	assert.Equal(t, 2025, res.Value().Year)
	assert.Equal(t, "12345678000190", res.Value().TaxID)
}

func TestSweepSurvivesFailingCombinations(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1)%2 == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	err := client.sweep(context.Background(), time.Now(), sweepFilter{}, func(edital.RegistryRecord) bool {
		return false
	})
	assert.NoError(t, err, "a failing combination must not sink the sweep")
}

func TestSweepRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.FindRecordByLink(ctx, "https://x.gov.br", time.Now(), "", "")
	assert.False(t, res.OK())
}

func TestDateBlocksCoverWindowNewestFirst(t *testing.T) {
	t.Parallel()

	client := NewClient(sweepConfig("http://unused"), zap.NewNop())
	blocks := client.dateBlocks(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, blocks)
	for i := 1; i < len(blocks); i++ {
		assert.Less(t, blocks[i].to, blocks[i-1].to, "blocks must run newest first")
	}
	for _, b := range blocks {
		assert.LessOrEqual(t, b.from, b.to)
	}
}
