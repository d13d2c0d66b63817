package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/licitaware/edital-resolver/internal/edital"
)

// The registry's JSON is loosely typed and uses synonymous key names
// across deployments. All of that is normalized here, once, at the
// boundary; the rest of the pipeline only sees edital.RegistryRecord and
// edital.DocumentInfo.

type searchResponse struct {
	rows []publicationRow
}

type publicationRow struct {
	OriginLink    string    `json:"linkSistemaOrigem"`
	PurchaseNum   string    `json:"numeroCompra"`
	PurchaseYear  int       `json:"anoCompra"`
	Sequence      int       `json:"sequencialCompra"`
	ControlNumber string    `json:"numeroControlePNCP"`
	ModalityCode  int       `json:"codigoModalidadeContratacao"`
	PublishedAt   flexTime  `json:"dataPublicacaoPncp"`
	Entity        entityRow `json:"orgaoEntidade"`
}

type entityRow struct {
	TaxID     string `json:"cnpj"`
	Name      string `json:"nome"`
	AltTaxID  string `json:"cnpjOrgao"`
	AltName   string `json:"descricao"`
	AltTaxID2 string `json:"cnpjEntidade"`
}

func (e entityRow) taxID() string {
	for _, v := range []string{e.TaxID, e.AltTaxID, e.AltTaxID2} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (e entityRow) name() string {
	if e.Name != "" {
		return e.Name
	}
	return e.AltName
}

// flexTime accepts the handful of timestamp layouts the registry emits.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil // numbers/nulls: leave zero
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "20060102"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func decodeSearchResponse(r io.Reader) (searchResponse, error) {
	var payload struct {
		Data []publicationRow `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return searchResponse{}, fmt.Errorf("decode search payload: %w", err)
	}
	return searchResponse{rows: payload.Data}, nil
}

// record converts a publication row into the canonical RegistryRecord,
// preferring the control number for (year, sequence) and falling back to
// the purchase-number fields.
func (row publicationRow) record() edital.RegistryRecord {
	rec := edital.RegistryRecord{
		TaxID:         onlyDigits(row.Entity.taxID()),
		EntityName:    row.Entity.name(),
		ModalityCode:  row.ModalityCode,
		OriginLink:    row.OriginLink,
		ControlNumber: row.ControlNumber,
		PublishedAt:   row.PublishedAt.Time,
	}
	if seq, year, ok := ParseControlNumber(row.ControlNumber); ok {
		rec.Sequence = seq
		rec.Year = year
		return rec
	}
	rec.Year = row.PurchaseYear
	if row.Sequence > 0 {
		rec.Sequence = row.Sequence
	} else if seq, year, ok := ParsePurchaseNumber(row.PurchaseNum); ok {
		rec.Sequence = seq
		if rec.Year == 0 {
			rec.Year = year
		}
	}
	return rec
}

// documentRow is one attachment in the document-listing payload. The
// same field shows up as sequencialDocumento, sequencial or id across
// deployments.
type documentRow struct {
	SeqDocumento int      `json:"sequencialDocumento"`
	Seq          int      `json:"sequencial"`
	ID           int      `json:"id"`
	URL          string   `json:"url"`
	Link         string   `json:"link"`
	TypeName     string   `json:"tipoDocumentoNome"`
	AltTypeName  string   `json:"tipoNome"`
	Title        string   `json:"titulo"`
	AltTitle     string   `json:"title"`
	PublishedAt  flexTime `json:"dataPublicacaoPncp"`
	AltPublished flexTime `json:"dataPublicacao"`
}

func (d documentRow) info() edital.DocumentInfo {
	info := edital.DocumentInfo{
		URL:         firstNonEmpty(d.URL, d.Link),
		Type:        firstNonEmpty(d.TypeName, d.AltTypeName),
		Title:       firstNonEmpty(d.Title, d.AltTitle),
		PublishedAt: d.PublishedAt.Time,
	}
	if info.PublishedAt.IsZero() {
		info.PublishedAt = d.AltPublished.Time
	}
	switch {
	case d.SeqDocumento > 0:
		info.Sequence = d.SeqDocumento
	case d.Seq > 0:
		info.Sequence = d.Seq
	default:
		info.Sequence = d.ID
	}
	return info
}

func decodeDocumentList(r io.Reader) ([]edital.DocumentInfo, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document list: %w", err)
	}
	var rows []documentRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		// Some deployments wrap the list in an object.
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("decode document list: %w", err)
		}
		for _, key := range []string{"Documentos", "documentos", "data"} {
			if inner, ok := wrapped[key]; ok {
				if err := json.Unmarshal(inner, &rows); err == nil {
					break
				}
			}
		}
	}
	docs := make([]edital.DocumentInfo, 0, len(rows))
	for _, row := range rows {
		info := row.info()
		if info.Sequence == 0 && info.URL == "" {
			continue
		}
		docs = append(docs, info)
	}
	return docs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func onlyDigits(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
