package ocr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNullEngineDeclines(t *testing.T) {
	t.Parallel()

	var engine Null
	assert.False(t, engine.Available())

	res := engine.Recognize(context.Background(), []byte("pdf"))
	assert.False(t, res.OK())
	assert.Equal(t, "ocr disabled", res.Reason())

	res = engine.RecognizeImage(context.Background(), []byte("img"))
	assert.False(t, res.OK())
}

func TestProbeEchoesConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{Enabled: true, Lang: "por", MaxPages: 10, DPI: 200, MinChars: 1500}
	diag := Probe(cfg)
	assert.True(t, diag.Enabled)
	assert.Equal(t, "por", diag.Lang)
	assert.True(t, diag.MuPDFLinked)
	// Binary presence depends on the host; presence and path must agree.
	assert.Equal(t, diag.TesseractPresent, diag.TesseractPath != "")
}

func TestRecognizeDisabledConfig(t *testing.T) {
	t.Parallel()

	engine := New(Config{Enabled: false}, zap.NewNop())
	res := engine.Recognize(context.Background(), []byte("%PDF"))
	assert.False(t, res.OK())
}
