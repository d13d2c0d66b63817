// Package htmltext_test tests visible-text extraction and link mining.
package htmltext_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/licitaware/edital-resolver/internal/extract/htmltext"
)

func TestVisibleTextStripsScriptsAndStyles(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>body{color:red}</style></head>
	<body><script>var x = "hidden";</script>
	<h1>Pregão   Eletrônico</h1>
	<p>Objeto: aquisição de material.</p>
	<noscript>enable js</noscript></body></html>`

	text := htmltext.VisibleText(html)
	assert.Contains(t, text, "Pregão Eletrônico")
	assert.Contains(t, text, "Objeto: aquisição de material.")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
}

func TestFindPDFLinksRanking(t *testing.T) {
	t.Parallel()

	html := []byte(`<html><body>
	<a href="/docs/anexo1.pdf">Anexo 1</a>
	<a href="/docs/edital_pregao.pdf">Edital do Pregão</a>
	<a href="/sobre">Sobre o portal</a>
	<a href="https://outro.gov.br/termo_referencia.pdf">Termo de Referência</a>
	</body></html>`)

	links := htmltext.FindPDFLinks(html, "https://portal.gov.br/licitacao/123")
	require.NotEmpty(t, links)
	assert.Equal(t, "https://portal.gov.br/docs/edital_pregao.pdf", links[0])
	assert.Equal(t, "https://outro.gov.br/termo_referencia.pdf", links[1])
	assert.NotContains(t, links, "https://portal.gov.br/sobre")
}

func TestFindPDFLinksRelativeResolutionAndJunk(t *testing.T) {
	t.Parallel()

	html := []byte(`<body>
	<a href="javascript:void(0)">Edital</a>
	<a href="#top">Edital</a>
	<a href="arquivos/edital.pdf">Edital</a>
	</body>`)

	links := htmltext.FindPDFLinks(html, "https://portal.gov.br/licitacao/")
	require.Len(t, links, 1)
	assert.Equal(t, "https://portal.gov.br/licitacao/arquivos/edital.pdf", links[0])
}

func TestFindPDFLinksRegexFallback(t *testing.T) {
	t.Parallel()

	// Anchor tags mangled enough that only the href survives.
	html := []byte(`<a href="/edital.pdf" <broken`)
	links := htmltext.FindPDFLinks(html, "https://portal.gov.br")
	require.NotEmpty(t, links)
	assert.Equal(t, "https://portal.gov.br/edital.pdf", links[0])
}

func TestFindPDFLinksCap(t *testing.T) {
	t.Parallel()

	var sb strings.Builder
	sb.WriteString("<body>")
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&sb, `<a href="/doc%d.pdf">Edital %d</a>`, i, i)
	}
	sb.WriteString("</body>")

	links := htmltext.FindPDFLinks([]byte(sb.String()), "https://portal.gov.br")
	assert.Len(t, links, htmltext.MaxLinks)
}

func TestFindPDFLinksDeduplicates(t *testing.T) {
	t.Parallel()

	html := []byte(`<body>
	<a href="/edital.pdf">Edital</a>
	<a href="/edital.pdf">Baixar edital</a>
	</body>`)
	links := htmltext.FindPDFLinks(html, "https://portal.gov.br")
	assert.Len(t, links, 1)
}
