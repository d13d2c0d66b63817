// Package pdftext extracts native text from PDF documents in layers: a
// layout-aware MuPDF pass first, a pure-Go reader as fallback, and an
// empty-password decryption retry for protected files.
package pdftext

import (
	"bytes"
	"strings"

	fitz "github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	pdfcpu "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Extractor implements edital.TextExtractor for PDF bytes.
type Extractor struct {
	logger *zap.Logger
}

// New returns a PDF text extractor.
func New(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract tries the layered extraction cascade. No length threshold is
// applied here; "good enough" is the caller's call. The result fails only
// when both extractors yield nothing, even after the decryption retry.
func (e *Extractor) Extract(data []byte) edital.StageResult[string] {
	if len(data) == 0 {
		return edital.Fail[string]("empty pdf input")
	}
	if text := extractOnce(data, e.logger); text != "" {
		return edital.Ok(text)
	}
	// Protected files sometimes open with an empty user password.
	if decrypted, ok := decryptEmptyPassword(data); ok {
		if text := extractOnce(decrypted, e.logger); text != "" {
			e.logger.Debug("pdf text recovered after empty-password decrypt")
			return edital.Ok(text)
		}
	}
	return edital.Fail[string]("no extractable text in pdf")
}

func extractOnce(data []byte, logger *zap.Logger) string {
	if text := extractFitz(data, logger); text != "" {
		return text
	}
	return extractLedongthuc(data)
}

// extractFitz walks the document page by page with MuPDF, skipping pages
// that fail to render text.
func extractFitz(data []byte, logger *zap.Logger) string {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		logger.Debug("mupdf open failed", zap.Error(err))
		return ""
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}
	return strings.TrimSpace(sb.String())
}

// extractLedongthuc is the simpler second extractor; it handles some
// documents MuPDF rejects.
func extractLedongthuc(data []byte) string {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
	}
	return strings.TrimSpace(sb.String())
}

func decryptEmptyPassword(data []byte) ([]byte, bool) {
	conf := model.NewAESConfiguration("", "", 256)
	var out bytes.Buffer
	if err := pdfcpu.Decrypt(bytes.NewReader(data), &out, conf); err != nil {
		return nil, false
	}
	return out.Bytes(), true
}
