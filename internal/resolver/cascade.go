package resolver

import (
	"bytes"
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/archive"
	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/extract/htmltext"
	"github.com/licitaware/edital-resolver/internal/fetch"
)

var zipMagic = []byte("PK\x03\x04")

// resolveDirect fetches the link itself and runs the layered
// extraction over whatever comes back.
func (s *Service) resolveDirect(ctx context.Context, link string, logger *zap.Logger) (extracted, bool) {
	res := s.fetcher.Fetch(ctx, link)
	if !res.OK() {
		logger.Info("direct fetch failed", zap.String("reason", res.Reason()))
		return extracted{}, false
	}
	resource := res.Value()
	return s.processResource(ctx, resource, logger, true)
}

// processResource classifies fetched bytes and extracts text from them.
// mineLinks guards the HTML link-mining recursion: links found on a
// mined page are not mined again.
func (s *Service) processResource(ctx context.Context, resource edital.FetchedResource, logger *zap.Logger, mineLinks bool) (extracted, bool) {
	if bytes.HasPrefix(resource.Body, zipMagic) {
		return s.processZip(ctx, resource, logger)
	}
	switch edital.DetectFormat(resource.ContentType, resource.URL) {
	case edital.FormatPDF:
		return s.processPDF(ctx, resource, logger)
	case edital.FormatImage:
		return s.processImage(ctx, resource, logger)
	default:
		return s.processHTML(ctx, resource, logger, mineLinks)
	}
}

// processPDF runs the native extractors and falls back to OCR when the
// native text is too short to be the document.
func (s *Service) processPDF(ctx context.Context, resource edital.FetchedResource, logger *zap.Logger) (extracted, bool) {
	native := s.pdf.Extract(resource.Body)
	if native.OK() && len(native.Value()) >= minNativeChars {
		return extracted{
			text:        native.Value(),
			method:      edital.MethodNativeText,
			contentType: "application/pdf",
			resolvedURL: resource.URL,
			artifact:    resource.Body,
		}, true
	}
	if !native.OK() {
		logger.Info("native pdf extraction failed", zap.String("reason", native.Reason()))
	} else {
		logger.Info("native pdf text too short", zap.Int("chars", len(native.Value())))
	}

	if s.ocr != nil && s.ocr.Available() {
		if ocrRes := s.ocr.Recognize(ctx, resource.Body); ocrRes.OK() {
			return extracted{
				text:        ocrRes.Value(),
				method:      edital.MethodOCR,
				contentType: "application/pdf",
				resolvedURL: resource.URL,
				artifact:    resource.Body,
			}, true
		}
	}

	// Short native text beats nothing when OCR cannot improve on it.
	if native.OK() && native.Value() != "" {
		return extracted{
			text:        native.Value(),
			method:      edital.MethodNativeText,
			contentType: "application/pdf",
			resolvedURL: resource.URL,
			artifact:    resource.Body,
		}, true
	}
	return extracted{}, false
}

func (s *Service) processImage(ctx context.Context, resource edital.FetchedResource, logger *zap.Logger) (extracted, bool) {
	if s.ocr == nil || !s.ocr.Available() {
		logger.Info("image resource but ocr unavailable")
		return extracted{}, false
	}
	res := s.ocr.RecognizeImage(ctx, resource.Body)
	if !res.OK() {
		logger.Info("image ocr failed", zap.String("reason", res.Reason()))
		return extracted{}, false
	}
	return extracted{
		text:        res.Value(),
		method:      edital.MethodOCR,
		contentType: resource.ContentType,
		resolvedURL: resource.URL,
		artifact:    resource.Body,
	}, true
}

// processHTML extracts the page's visible text and, when that is not
// enough, follows the page's most promising document links.
func (s *Service) processHTML(ctx context.Context, resource edital.FetchedResource, logger *zap.Logger, mineLinks bool) (extracted, bool) {
	page := fetch.DecodeText(resource.Body)

	if mineLinks {
		for _, link := range htmltext.FindPDFLinks(resource.Body, resource.URL) {
			res := s.fetcher.Fetch(ctx, link)
			if !res.OK() {
				continue
			}
			out, ok := s.processResource(ctx, res.Value(), logger, false)
			if ok && len(out.text) >= minMinedChars {
				logger.Info("mined link extracted", zap.String("mined_url", link))
				return out, true
			}
		}
	}

	// Whatever visible text the page has is the answer; the sentinel
	// is reserved for pages that yielded nothing at all.
	visible := htmltext.VisibleText(page)
	if visible == "" {
		logger.Info("html page had no visible text")
		return extracted{}, false
	}
	if len(visible) < minMinedChars {
		logger.Info("html visible text is short", zap.Int("chars", len(visible)))
	}
	return extracted{
		text:        visible,
		method:      edital.MethodHTML,
		contentType: resource.ContentType,
		resolvedURL: resource.URL,
	}, true
}

// processZip picks the best-named PDF inside the archive and runs the
// PDF layers over it.
func (s *Service) processZip(ctx context.Context, resource edital.FetchedResource, logger *zap.Logger) (extracted, bool) {
	best := archive.BestPDFInZip(resource.Body)
	if !best.OK() {
		logger.Info("zip held no usable pdf", zap.String("reason", best.Reason()))
		return extracted{}, false
	}
	data, err := os.ReadFile(best.Value())
	if err != nil {
		logger.Warn("read extracted zip entry", zap.Error(err))
		return extracted{}, false
	}
	return s.processPDF(ctx, edital.FetchedResource{
		URL:         resource.URL,
		Body:        data,
		ContentType: "application/pdf",
	}, logger)
}

// resolveHeadless lets a real browser trigger the download the plain
// fetch could not reach.
func (s *Service) resolveHeadless(ctx context.Context, link string, logger *zap.Logger) (extracted, bool) {
	res := s.renderer.CaptureDownload(ctx, link)
	if !res.OK() {
		logger.Info("headless capture failed", zap.String("reason", res.Reason()))
		return extracted{}, false
	}
	file := res.Value()
	data, err := os.ReadFile(file.Path)
	if err != nil {
		logger.Warn("read captured download", zap.Error(err))
		return extracted{}, false
	}
	return s.processResource(ctx, edital.FetchedResource{
		URL:         link,
		Body:        data,
		ContentType: contentTypeForName(file.Filename),
	}, logger, false)
}

func contentTypeForName(name string) string {
	switch edital.DetectFormat("", name) {
	case edital.FormatPDF:
		return "application/pdf"
	case edital.FormatImage:
		return "image/unknown"
	default:
		return "text/html"
	}
}
