// Package fetch retrieves remote documents over plain HTTP with a
// browser-like identity. Fetch outcomes are stage results: a network,
// TLS or status failure is a reason to move on in the cascade, never a
// pipeline error.
package fetch

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Config controls the HTTP client behavior.
type Config struct {
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Fetcher implements edital.Fetcher using a Colly collector.
type Fetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New constructs a configured Colly-based Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.IgnoreRobotsTxt(),
	)
	base.AllowURLRevisit = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{baseCollector: base, logger: logger}
}

// Fetch performs a GET and returns the body bytes plus the declared
// content type. Every failure mode collapses into a failed stage result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) edital.StageResult[edital.FetchedResource] {
	collector := f.baseCollector.Clone()
	resultCh := make(chan edital.StageResult[edital.FetchedResource], 1)
	var once sync.Once
	send := func(res edital.StageResult[edital.FetchedResource]) {
		once.Do(func() { resultCh <- res })
	}

	collector.OnResponse(func(r *colly.Response) {
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		send(edital.Ok(edital.FetchedResource{
			URL:         r.Request.URL.String(),
			Body:        append([]byte{}, r.Body...),
			ContentType: contentType,
		}))
	})

	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(edital.FailErr[edital.FetchedResource](err))
	})

	if err := collector.Visit(rawURL); err != nil {
		f.logger.Debug("fetch rejected", zap.String("url", rawURL), zap.Error(err))
		return edital.FailErr[edital.FetchedResource](err)
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return edital.FailErr[edital.FetchedResource](err)
		}
		return res
	default:
		return edital.Fail[edital.FetchedResource]("fetch produced no result")
	}
}
