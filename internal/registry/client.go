// Package registry talks to the public procurement registry: it locates
// the canonical record behind an origin link, purchase number or entity
// name, and lists/downloads the record's official documents. Lookups run
// a bounded concurrent sweep over {date block × modality code × page}
// because the publication-search endpoint requires a date range and a
// modality code per call and neither is reliably known up front.
package registry

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/licitaware/edital-resolver/internal/metrics"
)

// Config controls the registry client and its sweep bounds.
type Config struct {
	Enabled bool `mapstructure:"enabled"`
	// BaseURL is the consultation API root (publication search).
	BaseURL string `mapstructure:"base_url"`
	// DocBaseURL is the integration API root (document list/download).
	DocBaseURL string        `mapstructure:"doc_base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// TotalDays is the width of the search window centered on the date hint.
	TotalDays int `mapstructure:"total_days"`
	// StepDays is the width of each date block inside the window.
	StepDays   int   `mapstructure:"step_days"`
	PageLimit  int   `mapstructure:"page_limit"`
	PageSize   int   `mapstructure:"page_size"`
	ModalCodes []int `mapstructure:"modal_codes"`
	// Workers bounds the concurrent sweep fan-out.
	Workers int `mapstructure:"workers"`
	// QPS caps requests per second against the upstream registry.
	QPS float64 `mapstructure:"qps"`
	// TokenEnv names the environment variable holding the optional
	// bearer token for document downloads.
	TokenEnv string `mapstructure:"token_env"`
}

// Client is the registry API client.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a registry client with a shared HTTP client and a
// global rate budget for the sweep.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	qps := cfg.QPS
	if qps <= 0 {
		qps = 8
	}
	metrics.Init()
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(qps), 1),
		logger:  logger,
	}
}

// modalCodes returns the configured modality codes, defaulting to the
// full 1..20 range when none are set.
func (c *Client) modalCodes() []int {
	if len(c.cfg.ModalCodes) > 0 {
		return c.cfg.ModalCodes
	}
	codes := make([]int, 20)
	for i := range codes {
		codes[i] = i + 1
	}
	return codes
}

func (c *Client) token() string {
	env := c.cfg.TokenEnv
	if env == "" {
		env = "REGISTRY_TOKEN"
	}
	return os.Getenv(env)
}

// searchPage performs one publication-search call.
func (c *Client) searchPage(ctx context.Context, q searchQuery) (searchResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return searchResponse{}, fmt.Errorf("registry rate wait: %w", err)
	}
	metrics.ObserveSweepCall()
	params := url.Values{}
	params.Set("dataInicial", q.dateFrom)
	params.Set("dataFinal", q.dateTo)
	params.Set("pagina", strconv.Itoa(q.page))
	params.Set("tamanhoPagina", strconv.Itoa(c.cfg.PageSize))
	if q.modalCode > 0 {
		params.Set("codigoModalidadeContratacao", strconv.Itoa(q.modalCode))
	}
	if q.region != "" {
		params.Set("uf", q.region)
	}
	if q.taxID != "" {
		params.Set("cnpj", q.taxID)
	}

	endpoint := fmt.Sprintf("%s/v1/contratacoes/publicacao?%s", trimSlash(c.cfg.BaseURL), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return searchResponse{}, fmt.Errorf("build search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return searchResponse{}, fmt.Errorf("registry search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return searchResponse{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return searchResponse{}, fmt.Errorf("registry search: status %d", resp.StatusCode)
	}
	return decodeSearchResponse(resp.Body)
}

type searchQuery struct {
	dateFrom  string
	dateTo    string
	modalCode int
	page      int
	region    string
	taxID     string
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
