// Package archive expands downloaded ZIP files and picks the PDF most
// likely to be the solicitation document.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/relevance"
)

// maxEntryBytes bounds decompression per entry against zip bombs.
const maxEntryBytes = 256 << 20

// BestPDFInZip extracts every entry into a scratch directory and returns
// the path of the highest-scoring PDF, or a failed result when the
// archive holds none.
func BestPDFInZip(zipData []byte) edital.StageResult[string] {
	reader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return edital.FailErr[string](err)
	}
	scratch, err := os.MkdirTemp("", "edital-zip-*")
	if err != nil {
		return edital.FailErr[string](err)
	}

	var best edital.CandidateDocument
	found := false
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(entry.Name)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		path, err := extractEntry(entry, scratch)
		if err != nil {
			continue
		}
		candidate := edital.CandidateDocument{
			URLOrPath: path,
			Filename:  name,
			Score:     relevance.ScoreName(name),
		}
		if !found || candidate.Score > best.Score {
			best = candidate
			found = true
		}
	}
	if !found {
		os.RemoveAll(scratch)
		return edital.Fail[string]("no pdf entries in archive")
	}
	return edital.Ok(best.URLOrPath)
}

func extractEntry(entry *zip.File, scratch string) (string, error) {
	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("open zip entry: %w", err)
	}
	defer rc.Close()

	// Flatten entry paths; nested directories inside these archives carry
	// no meaning for document selection.
	dest := filepath.Join(scratch, filepath.Base(entry.Name))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create extracted file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes)); err != nil {
		return "", fmt.Errorf("extract zip entry: %w", err)
	}
	return dest, nil
}
