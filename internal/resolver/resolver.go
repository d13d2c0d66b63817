// Package resolver runs the document resolution cascade: cache, the
// procurement registry, a direct fetch with layered extraction, and a
// headless browser as the last resort. The cascade never propagates an
// error past Resolve; a total failure is reported through the failure
// sentinel with the extraction method set to "failed".
package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/items"
	"github.com/licitaware/edital-resolver/internal/metrics"
	"github.com/licitaware/edital-resolver/internal/registry"
)

const (
	// minNativeChars is the native-text floor below which a PDF goes
	// to OCR.
	minNativeChars = 200
	// minMinedChars is the floor for accepting text extracted from a
	// link mined out of an HTML page.
	minMinedChars = 50
)

// Request identifies the document to resolve. Link is required; the
// remaining fields refine the registry lookup when the caller knows
// them.
type Request struct {
	Link           string `json:"link"`
	PurchaseNumber string `json:"purchase_number,omitempty"`
	EntityName     string `json:"entity_name,omitempty"`
	TaxID          string `json:"tax_id,omitempty"`
	Region         string `json:"region,omitempty"`
	DateHint       string `json:"date_hint,omitempty"`
}

// RegistryLookup is the slice of the registry client the cascade needs.
type RegistryLookup interface {
	FindRecordByLink(ctx context.Context, link string, dateHint time.Time, taxID, region string) edital.StageResult[edital.RegistryRecord]
	FindRecordByPurchaseNumber(ctx context.Context, purchaseNumber string, dateHint time.Time, taxID, region string) edital.StageResult[edital.RegistryRecord]
	ResolveTaxIDByEntityName(ctx context.Context, entityName string, dateHint time.Time, region string) edital.StageResult[string]
	ListDocuments(ctx context.Context, rec edital.RegistryRecord) edital.StageResult[[]edital.DocumentInfo]
	DownloadDocument(ctx context.Context, rec edital.RegistryRecord, doc edital.DocumentInfo) edital.StageResult[registry.DownloadedDocument]
}

// Service owns the cascade's collaborators.
type Service struct {
	cache    edital.Cache
	fetcher  edital.Fetcher
	pdf      edital.TextExtractor
	ocr      edital.OcrEngine
	renderer edital.DocumentRenderer
	registry RegistryLookup
	store    edital.ArtifactStore
	events   edital.Publisher
	clock    edital.Clock
	logger   *zap.Logger
}

// Deps bundles the collaborators for New. Renderer and Registry may be
// nil; the corresponding stages are skipped.
type Deps struct {
	Cache    edital.Cache
	Fetcher  edital.Fetcher
	PDF      edital.TextExtractor
	OCR      edital.OcrEngine
	Renderer edital.DocumentRenderer
	Registry RegistryLookup
	Store    edital.ArtifactStore
	Events   edital.Publisher
	Clock    edital.Clock
	Logger   *zap.Logger
}

// New assembles the cascade.
func New(deps Deps) *Service {
	metrics.Init()
	return &Service{
		cache:    deps.Cache,
		fetcher:  deps.Fetcher,
		pdf:      deps.PDF,
		ocr:      deps.OCR,
		renderer: deps.Renderer,
		registry: deps.Registry,
		store:    deps.Store,
		events:   deps.Events,
		clock:    deps.Clock,
		logger:   deps.Logger,
	}
}

// extracted is the intermediate outcome of one extraction attempt.
type extracted struct {
	text        string
	method      edital.ExtractionMethod
	contentType string
	resolvedURL string
	artifact    []byte
}

// Resolve runs the full cascade for one request. It never returns an
// error and never panics outward; whatever goes wrong inside becomes
// the failure sentinel.
func (s *Service) Resolve(ctx context.Context, req Request) (res edital.Resolution) {
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("link", req.Link))
	started := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("cascade panicked", zap.Any("panic", r))
			res = s.failure()
		}
		metrics.ObserveResolution(string(res.Meta.Method))
		s.publishEvent(ctx, requestID, req, res, started)
	}()

	if req.Link == "" {
		logger.Warn("empty link")
		return s.failure()
	}

	if entry, ok := s.cache.Get(req.Link); ok {
		metrics.ObserveCacheLookup("hit")
		logger.Info("cache hit", zap.String("method", string(entry.Method)))
		return s.finish(entry.Text, edital.Metadata{
			Method:      entry.Method,
			ContentType: entry.ContentType,
			ResolvedURL: entry.ResolvedURL,
			FromCache:   true,
		})
	}
	metrics.ObserveCacheLookup("miss")

	out := s.runStages(ctx, req, logger)

	s.cache.Put(req.Link, edital.CacheEntry{
		Text:        out.text,
		Method:      out.method,
		ContentType: out.contentType,
		ResolvedURL: out.resolvedURL,
		WrittenAt:   s.clock.Now(),
	})
	if out.method != edital.MethodFailed {
		s.archive(ctx, requestID, out, logger)
	}
	return s.finish(out.text, edital.Metadata{
		Method:      out.method,
		ContentType: out.contentType,
		ResolvedURL: out.resolvedURL,
	})
}

// runStages tries each strategy in order and returns the first success,
// or the failure outcome when all are exhausted.
func (s *Service) runStages(ctx context.Context, req Request, logger *zap.Logger) extracted {
	if s.registry != nil {
		if out, ok := s.stage("registry", func() (extracted, bool) {
			return s.resolveViaRegistry(ctx, req, logger)
		}); ok {
			return out
		}
	}

	if out, ok := s.stage("direct", func() (extracted, bool) {
		return s.resolveDirect(ctx, req.Link, logger)
	}); ok {
		return out
	}

	if s.renderer != nil {
		if out, ok := s.stage("headless", func() (extracted, bool) {
			return s.resolveHeadless(ctx, req.Link, logger)
		}); ok {
			return out
		}
	}

	logger.Warn("all strategies exhausted")
	return extracted{text: edital.FailureSentinel, method: edital.MethodFailed}
}

// stage times one strategy and contains its panics, so a crash in one
// stage only skips that stage.
func (s *Service) stage(name string, fn func() (extracted, bool)) (out extracted, ok bool) {
	started := time.Now()
	defer func() {
		metrics.ObserveStage(name, time.Since(started))
		if r := recover(); r != nil {
			s.logger.Error("stage panicked", zap.String("stage", name), zap.Any("panic", r))
			out, ok = extracted{}, false
		}
	}()
	return fn()
}

// finish attaches extracted line items to a successful resolution.
func (s *Service) finish(text string, meta edital.Metadata) edital.Resolution {
	resolution := edital.Resolution{Text: text, Meta: meta}
	if meta.Method != edital.MethodFailed {
		resolution.Items = items.Extract(text)
	}
	return resolution
}

func (s *Service) failure() edital.Resolution {
	return edital.Resolution{
		Text: edital.FailureSentinel,
		Meta: edital.Metadata{Method: edital.MethodFailed},
	}
}

func (s *Service) archive(ctx context.Context, requestID string, out extracted, logger *zap.Logger) {
	if s.store == nil || len(out.artifact) == 0 {
		return
	}
	path := fmt.Sprintf("%s/%s", s.clock.Now().Format("2006/01/02"), requestID)
	uri, err := s.store.PutObject(ctx, path, out.contentType, out.artifact)
	if err != nil {
		logger.Warn("artifact archive failed", zap.Error(err))
		return
	}
	if uri != "" {
		logger.Info("artifact archived", zap.String("uri", uri))
	}
}

// completionEvent is the payload published after every resolution,
// failures included.
type completionEvent struct {
	RequestID  string `json:"request_id"`
	Link       string `json:"link"`
	Method     string `json:"method"`
	FromCache  bool   `json:"from_cache"`
	TextChars  int    `json:"text_chars"`
	ItemCount  int    `json:"item_count"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Service) publishEvent(ctx context.Context, requestID string, req Request, res edital.Resolution, started time.Time) {
	if s.events == nil {
		return
	}
	event := completionEvent{
		RequestID:  requestID,
		Link:       req.Link,
		Method:     string(res.Meta.Method),
		FromCache:  res.Meta.FromCache,
		TextChars:  len(res.Text),
		ItemCount:  len(res.Items),
		DurationMs: s.clock.Now().Sub(started).Milliseconds(),
	}
	if _, err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("completion event publish failed", zap.Error(err))
	}
}
