package registry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/licitaware/edital-resolver/internal/edital"
	"github.com/licitaware/edital-resolver/internal/relevance"
)

// maxDocumentBytes caps one document download.
const maxDocumentBytes = 256 << 20

// DownloadedDocument is the payload of one registry attachment.
type DownloadedDocument struct {
	Data        []byte
	Filename    string
	ContentType string
	Info        edital.DocumentInfo
}

// ListDocuments fetches the attachment list of a registry record.
func (c *Client) ListDocuments(ctx context.Context, rec edital.RegistryRecord) edital.StageResult[[]edital.DocumentInfo] {
	if rec.TaxID == "" || rec.Year == 0 || rec.Sequence == 0 {
		return edital.Fail[[]edital.DocumentInfo]("record lacks tax id, year or sequence")
	}
	endpoint := fmt.Sprintf("%s/v1/orgaos/%s/compras/%d/%d/arquivos",
		trimSlash(c.docBase()), rec.TaxID, rec.Year, rec.Sequence)
	body, _, res := c.getDocumentEndpoint(ctx, endpoint)
	if !res.OK() {
		return edital.Fail[[]edital.DocumentInfo](res.Reason())
	}
	docs, err := decodeDocumentList(bytes.NewReader(body))
	if err != nil {
		return edital.FailErr[[]edital.DocumentInfo](err)
	}
	if len(docs) == 0 {
		return edital.Fail[[]edital.DocumentInfo]("record has no documents")
	}
	return edital.Ok(docs)
}

// DownloadDocument fetches one attachment's bytes. The filename comes
// from the Content-Disposition header when present, else from the
// document title.
func (c *Client) DownloadDocument(ctx context.Context, rec edital.RegistryRecord, doc edital.DocumentInfo) edital.StageResult[DownloadedDocument] {
	endpoint := doc.URL
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/v1/orgaos/%s/compras/%d/%d/arquivos/%d",
			trimSlash(c.docBase()), rec.TaxID, rec.Year, rec.Sequence, doc.Sequence)
	}
	body, header, res := c.getDocumentEndpoint(ctx, endpoint)
	if !res.OK() {
		return edital.Fail[DownloadedDocument](res.Reason())
	}
	if len(body) == 0 {
		return edital.Fail[DownloadedDocument]("empty document body")
	}
	filename := filenameFromDisposition(header.Get("Content-Disposition"))
	if filename == "" {
		filename = doc.Title
	}
	c.logger.Info("registry document downloaded",
		zap.Int("sequence", doc.Sequence),
		zap.String("filename", filename),
		zap.Int("bytes", len(body)))
	return edital.Ok(DownloadedDocument{
		Data:        body,
		Filename:    filename,
		ContentType: header.Get("Content-Type"),
		Info:        doc,
	})
}

// RankDocuments orders a record's attachments by how likely each is to
// be the solicitation notice itself, best first. The name score decides;
// procurement-adjacent spreadsheet keywords break ties so price research
// attachments outrank generic annexes.
func RankDocuments(docs []edital.DocumentInfo) []edital.DocumentInfo {
	ranked := make([]edital.DocumentInfo, len(docs))
	copy(ranked, docs)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := documentScore(ranked[i]), documentScore(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].Sequence < ranked[j].Sequence
	})
	return ranked
}

var interestingKeywords = []string{"preco", "pesquisa", "cotacao", "orcamento", "planilha"}

func documentScore(doc edital.DocumentInfo) int {
	name := doc.Title
	if name == "" {
		name = doc.Type
	}
	score := relevance.ScoreName(name)
	folded := relevance.Fold(name)
	for _, kw := range interestingKeywords {
		if strings.Contains(folded, kw) {
			score += 8
			break
		}
	}
	return score
}

func (c *Client) docBase() string {
	if c.cfg.DocBaseURL != "" {
		return c.cfg.DocBaseURL
	}
	return c.cfg.BaseURL
}

// getDocumentEndpoint performs one authenticated GET against the
// integration API.
func (c *Client) getDocumentEndpoint(ctx context.Context, endpoint string) ([]byte, http.Header, edital.StageResult[struct{}]) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, edital.FailErr[struct{}](err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, edital.FailErr[struct{}](err)
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "*/*")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, edital.FailErr[struct{}](err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil, resp.Header, edital.Fail[struct{}]("no content")
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, edital.Fail[struct{}](fmt.Sprintf("document endpoint status %d", resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, nil, edital.FailErr[struct{}](err)
	}
	return body, resp.Header, edital.Ok(struct{}{})
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(disposition); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return ""
}
