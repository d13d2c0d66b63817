// Package archive_test tests ZIP expansion and PDF selection.
package archive_test

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitaware/edital-resolver/internal/archive"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestBestPDFInZipPrefersEdital(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string]string{
		"anexo1.pdf":           "anexo",
		"edital_pregao_01.pdf": "edital",
		"termo_referencia.pdf": "termo",
	})

	res := archive.BestPDFInZip(data)
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "edital_pregao_01.pdf", filepath.Base(res.Value()))

	content, err := os.ReadFile(res.Value())
	require.NoError(t, err)
	assert.Equal(t, "edital", string(content))
}

func TestBestPDFInZipFlattensNestedPaths(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string]string{
		"docs/2026/edital.pdf": "nested edital",
		"readme.txt":           "ignore",
	})

	res := archive.BestPDFInZip(data)
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "edital.pdf", filepath.Base(res.Value()))
}

func TestBestPDFInZipNoPDFEntries(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string]string{
		"leia-me.txt":  "texto",
		"planilha.xls": "dados",
	})

	res := archive.BestPDFInZip(data)
	require.False(t, res.OK())
	assert.Equal(t, "no pdf entries in archive", res.Reason())
}

func TestBestPDFInZipRejectsGarbage(t *testing.T) {
	t.Parallel()

	res := archive.BestPDFInZip([]byte("not a zip archive"))
	assert.False(t, res.OK())
}

func TestBestPDFInZipCaseInsensitiveExtension(t *testing.T) {
	t.Parallel()

	data := buildZip(t, map[string]string{"EDITAL.PDF": "upper"})
	res := archive.BestPDFInZip(data)
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "EDITAL.PDF", filepath.Base(res.Value()))
}
