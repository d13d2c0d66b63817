package edital

import (
	"strings"
	"time"
)

// ExtractionMethod identifies which strategy produced the extracted text.
type ExtractionMethod string

// Extraction methods recorded in cache entries and resolution metadata.
const (
	MethodNativeText   ExtractionMethod = "native-text"
	MethodOCR          ExtractionMethod = "ocr"
	MethodHTML         ExtractionMethod = "html"
	MethodRegistryDocs ExtractionMethod = "registry-docs"
	MethodRegistryHTML ExtractionMethod = "registry-html"
	MethodFailed       ExtractionMethod = "failed"
)

// FailureSentinel is returned as the resolution text when every strategy
// in the cascade has been exhausted. Callers must treat it as "extraction
// unavailable", never as document content; Metadata.Method is MethodFailed
// whenever this string is the text.
const FailureSentinel = "Não foi possível obter o conteúdo do edital a partir do link informado."

// CacheEntry is the durable record kept per source link.
type CacheEntry struct {
	Text        string           `json:"text"`
	Method      ExtractionMethod `json:"method"`
	ContentType string           `json:"content_type,omitempty"`
	ResolvedURL string           `json:"resolved_url,omitempty"`
	WrittenAt   time.Time        `json:"written_at"`
}

// Metadata accompanies every resolution result.
type Metadata struct {
	Method      ExtractionMethod `json:"method"`
	ContentType string           `json:"content_type,omitempty"`
	ResolvedURL string           `json:"resolved_url,omitempty"`
	FromCache   bool             `json:"from_cache"`
}

// Resolution is the pair handed back to the calling analysis workflow.
type Resolution struct {
	Text  string     `json:"text"`
	Meta  Metadata   `json:"meta"`
	Items []LineItem `json:"items,omitempty"`
}

// Failed reports whether the resolution carries the failure sentinel
// rather than document content.
func (r Resolution) Failed() bool {
	return r.Meta.Method == MethodFailed
}

// RegistryRecord is the registry's canonical representation of a
// procurement event, normalized at the client boundary.
type RegistryRecord struct {
	TaxID         string    `json:"tax_id"`
	EntityName    string    `json:"entity_name,omitempty"`
	Year          int       `json:"year"`
	Sequence      int       `json:"sequence"`
	ModalityCode  int       `json:"modality_code,omitempty"`
	OriginLink    string    `json:"origin_link,omitempty"`
	ControlNumber string    `json:"control_number,omitempty"`
	PublishedAt   time.Time `json:"published_at,omitzero"`
}

// DocumentInfo describes one attachment of a registry record.
type DocumentInfo struct {
	Sequence    int       `json:"sequence"`
	URL         string    `json:"url,omitempty"`
	Type        string    `json:"type,omitempty"`
	Title       string    `json:"title,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
}

// CandidateDocument is an ephemeral scored candidate produced by the link
// miner and the archive resolver; never persisted.
type CandidateDocument struct {
	URLOrPath string
	Filename  string
	Score     int
}

// LineItem is one row of the solicitation's itemized goods/services list.
// All fields are optional except Number when derivable from the source.
type LineItem struct {
	Number      int      `json:"item_number,omitempty"`
	Description string   `json:"description,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	TotalPrice  *float64 `json:"total_price,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// Format is the coarse document format decided before extraction.
type Format string

// Formats understood by the cascade.
const (
	FormatPDF   Format = "pdf"
	FormatImage Format = "image"
	FormatHTML  Format = "html"
)

var imageSuffixes = []string{".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".gif", ".webp"}

// DetectFormat classifies a fetched resource from its declared content
// type and URL. PDF wins whenever "pdf" appears in either; anything that
// is not a PDF or an image is treated as HTML/text.
func DetectFormat(contentType, url string) Format {
	ct := strings.ToLower(contentType)
	lu := strings.ToLower(url)
	if strings.Contains(ct, "pdf") || strings.Contains(lu, ".pdf") {
		return FormatPDF
	}
	if strings.HasPrefix(ct, "image/") {
		return FormatImage
	}
	for _, suffix := range imageSuffixes {
		if strings.HasSuffix(lu, suffix) {
			return FormatImage
		}
	}
	return FormatHTML
}
