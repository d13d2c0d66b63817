package edital

import "testing"

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		contentType string
		url         string
		want        Format
	}{
		{"pdf content type", "application/pdf", "https://x.gov.br/doc", FormatPDF},
		{"pdf url suffix", "application/octet-stream", "https://x.gov.br/edital.pdf", FormatPDF},
		{"pdf url wins over image type", "image/png", "https://x.gov.br/edital.pdf", FormatPDF},
		{"pdf in query", "", "https://x.gov.br/download?file=edital.pdf", FormatPDF},
		{"image content type", "image/png", "https://x.gov.br/scan", FormatImage},
		{"image url suffix", "application/octet-stream", "https://x.gov.br/pagina1.jpeg", FormatImage},
		{"html content type", "text/html; charset=utf-8", "https://x.gov.br/licitacao", FormatHTML},
		{"nothing known", "", "", FormatHTML},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectFormat(tc.contentType, tc.url); got != tc.want {
				t.Fatalf("DetectFormat(%q, %q) = %q, want %q", tc.contentType, tc.url, got, tc.want)
			}
		})
	}
}

func TestStageResult(t *testing.T) {
	t.Parallel()

	ok := Ok("texto")
	if !ok.OK() || ok.Value() != "texto" || ok.Reason() != "" {
		t.Fatalf("unexpected ok result: %+v", ok)
	}

	fail := Fail[string]("sem conteudo")
	if fail.OK() || fail.Reason() != "sem conteudo" {
		t.Fatalf("unexpected fail result: %+v", fail)
	}
}

func TestResolutionFailed(t *testing.T) {
	t.Parallel()

	res := Resolution{Text: FailureSentinel, Meta: Metadata{Method: MethodFailed}}
	if !res.Failed() {
		t.Fatal("sentinel resolution must report Failed")
	}
	res = Resolution{Text: "conteudo", Meta: Metadata{Method: MethodNativeText}}
	if res.Failed() {
		t.Fatal("successful resolution must not report Failed")
	}
}
