package ocr

import (
	"context"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// Null is an edital.OcrEngine that always declines. It stands in when
// OCR is disabled by configuration so the orchestrator needs no nil
// checks.
type Null struct{}

// Available always reports false.
func (Null) Available() bool { return false }

// Recognize always fails.
func (Null) Recognize(context.Context, []byte) edital.StageResult[string] {
	return edital.Fail[string]("ocr disabled")
}

// RecognizeImage always fails.
func (Null) RecognizeImage(context.Context, []byte) edital.StageResult[string] {
	return edital.Fail[string]("ocr disabled")
}
