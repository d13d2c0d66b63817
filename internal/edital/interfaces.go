package edital

import (
	"context"
	"time"
)

// Cache is the durable read-through/write-through store keyed by source
// link. Get returns ok=false when the entry is absent or expired.
type Cache interface {
	Get(link string) (CacheEntry, bool)
	Put(link string, entry CacheEntry)
}

// Fetcher performs a plain HTTP GET and reports the outcome as a stage
// result; network, TLS and status errors are failure reasons, not errors.
type Fetcher interface {
	Fetch(ctx context.Context, url string) StageResult[FetchedResource]
}

// FetchedResource is the raw outcome of a fetch.
type FetchedResource struct {
	URL         string
	Body        []byte
	ContentType string
}

// TextExtractor turns document bytes into text. A nil text with ok=false
// means both extraction layers yielded nothing.
type TextExtractor interface {
	Extract(data []byte) StageResult[string]
}

// OcrEngine runs optical character recognition over a rasterized PDF.
// Implementations degrade to a failure result when runtime dependencies
// (OCR binary, rasterizer) are absent.
type OcrEngine interface {
	Recognize(ctx context.Context, pdfData []byte) StageResult[string]
	RecognizeImage(ctx context.Context, imageData []byte) StageResult[string]
	Available() bool
}

// DocumentRenderer drives a headless browser against an origin page and
// tries to capture a triggered file download.
type DocumentRenderer interface {
	CaptureDownload(ctx context.Context, pageURL string) StageResult[DownloadedFile]
	Close(ctx context.Context) error
}

// DownloadedFile is a file captured by the renderer.
type DownloadedFile struct {
	Path     string
	Filename string
}

// ArtifactStore archives resolved document bytes and returns a URI.
type ArtifactStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes resolution completion events.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
	Close() error
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}
