package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/fetch"
)

func newFetcher(t *testing.T) *fetch.Fetcher {
	t.Helper()
	return fetch.New(fetch.Config{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7 payload"))
	}))
	defer ts.Close()

	res := newFetcher(t).Fetch(context.Background(), ts.URL+"/edital.pdf")
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, []byte("%PDF-1.7 payload"), res.Value().Body)
	assert.Equal(t, "application/pdf", res.Value().ContentType)
	assert.Equal(t, "test-agent", gotAgent)
}

func TestFetchFollowsRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final.pdf", http.StatusFound)
	})
	mux.HandleFunc("/final.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF final"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	res := newFetcher(t).Fetch(context.Background(), ts.URL+"/doc")
	require.True(t, res.OK(), res.Reason())
	assert.Contains(t, res.Value().URL, "/final.pdf")
}

func TestFetchServerErrorFails(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	res := newFetcher(t).Fetch(context.Background(), ts.URL)
	assert.False(t, res.OK())
	assert.NotEmpty(t, res.Reason())
}

func TestFetchConnectionRefusedFails(t *testing.T) {
	t.Parallel()

	res := newFetcher(t).Fetch(context.Background(), "http://127.0.0.1:1/nope")
	assert.False(t, res.OK())
}

func TestFetchBadURLFails(t *testing.T) {
	t.Parallel()

	res := newFetcher(t).Fetch(context.Background(), "::not a url::")
	assert.False(t, res.OK())
}

func TestFetchSameURLTwice(t *testing.T) {
	t.Parallel()

	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	f := newFetcher(t)
	require.True(t, f.Fetch(context.Background(), ts.URL).OK())
	require.True(t, f.Fetch(context.Background(), ts.URL).OK())
	assert.Equal(t, 2, hits)
}
