// Package headless drives a real browser against origin-system pages
// whose documents only materialize through JavaScript. It navigates,
// clicks the most promising anchor and waits for the browser to finish
// a file download.
package headless

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// ErrDisabled indicates browser capture has been disabled via
// configuration.
var ErrDisabled = errors.New("headless capture disabled")

// Config controls the headless capture fallback.
type Config struct {
	Enabled        bool          `mapstructure:"enabled"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	UserAgent      string        `mapstructure:"user_agent"`
	DownloadDir    string        `mapstructure:"download_dir"`
}

// Capturer owns one browser process and hands out tabs for captures.
type Capturer struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	timeout         time.Duration
	downloadDir     string
}

// NewCapturer launches the browser. The process is shared; each capture
// runs in its own tab.
func NewCapturer(cfg Config, logger *zap.Logger) (*Capturer, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	dir := cfg.DownloadDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "edital-downloads-*")
		if err != nil {
			return nil, fmt.Errorf("download dir: %w", err)
		}
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		allocatorCancel()
		browserCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Capturer{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxConcurrency),
		timeout:         cfg.Timeout,
		downloadDir:     dir,
	}, nil
}

// Close tears down the browser and allocator contexts.
func (c *Capturer) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.browserCancel()
	c.allocatorCancel()
	select {
	case <-ctx.Done():
	default:
	}
	return nil
}

// downloadAnchors are tried in order against the rendered page.
var downloadAnchors = []string{
	`//a[contains(translate(., 'EDITAL', 'edital'), 'edital')]`,
	`//a[contains(translate(., 'DOWNLOAD', 'download'), 'download')]`,
	`//a[contains(translate(., 'ANEXO', 'anexo'), 'anexo')]`,
}

// CaptureDownload navigates to the page, clicks anchors that look like
// document links and waits for a completed download. The page may also
// trigger the download on its own, so the listener is armed before
// navigation.
func (c *Capturer) CaptureDownload(ctx context.Context, pageURL string) edital.StageResult[edital.DownloadedFile] {
	if c == nil {
		return edital.Fail[edital.DownloadedFile]("headless capture disabled")
	}
	release, err := c.acquireSlot(ctx)
	if err != nil {
		return edital.FailErr[edital.DownloadedFile](err)
	}
	defer release()

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	taskCtx, cancelTask := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTask()
	stopForward := forwardCancel(ctx, cancelTask)
	defer stopForward()

	watcher := newDownloadWatcher(c.downloadDir)
	chromedp.ListenTarget(tabCtx, watcher.handle)

	tasks := chromedp.Tasks{
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
			WithDownloadPath(c.downloadDir).
			WithEventsEnabled(true),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, tasks); err != nil {
		return edital.FailErr[edital.DownloadedFile](fmt.Errorf("navigate: %w", err))
	}

	// A short grace period catches downloads the page starts unprompted.
	if file, ok := watcher.wait(taskCtx, 3*time.Second); ok {
		return c.captured(file)
	}

	for _, xpath := range downloadAnchors {
		if err := chromedp.Run(taskCtx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
			continue
		}
		if file, ok := watcher.wait(taskCtx, 15*time.Second); ok {
			return c.captured(file)
		}
	}
	return edital.Fail[edital.DownloadedFile]("no download triggered")
}

func (c *Capturer) captured(file edital.DownloadedFile) edital.StageResult[edital.DownloadedFile] {
	c.logger.Info("browser download captured",
		zap.String("filename", file.Filename),
		zap.String("path", file.Path))
	return edital.Ok(file)
}

func (c *Capturer) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case c.sem <- struct{}{}:
		return func() { <-c.sem }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire capture slot: %w", ctx.Err())
	}
}

// downloadWatcher correlates DownloadWillBegin (which carries the
// suggested filename) with the completing DownloadProgress event.
type downloadWatcher struct {
	mu    sync.Mutex
	dir   string
	names map[string]string // guid -> suggested filename
	done  chan edital.DownloadedFile
	once  sync.Once
}

func newDownloadWatcher(dir string) *downloadWatcher {
	return &downloadWatcher{
		dir:   dir,
		names: make(map[string]string),
		done:  make(chan edital.DownloadedFile, 1),
	}
}

func (w *downloadWatcher) handle(ev interface{}) {
	switch e := ev.(type) {
	case *browser.EventDownloadWillBegin:
		w.mu.Lock()
		w.names[e.GUID] = e.SuggestedFilename
		w.mu.Unlock()
	case *browser.EventDownloadProgress:
		if e.State != browser.DownloadProgressStateCompleted {
			return
		}
		w.mu.Lock()
		name := w.names[e.GUID]
		w.mu.Unlock()
		w.once.Do(func() {
			// With AllowAndName the browser saves the file under its
			// GUID in the download directory.
			w.done <- edital.DownloadedFile{
				Path:     filepath.Join(w.dir, e.GUID),
				Filename: name,
			}
		})
	}
}

func (w *downloadWatcher) wait(ctx context.Context, d time.Duration) (edital.DownloadedFile, bool) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case file := <-w.done:
		return file, true
	case <-timer.C:
		return edital.DownloadedFile{}, false
	case <-ctx.Done():
		return edital.DownloadedFile{}, false
	}
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
