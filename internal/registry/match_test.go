package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinksMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			"exact",
			"https://compras.gov.br/edital?compra=123",
			"https://compras.gov.br/edital?compra=123",
			true,
		},
		{
			"trailing slash and fragment ignored",
			"https://compras.gov.br/edital/",
			"https://compras.gov.br/edital#anexos",
			true,
		},
		{
			"case insensitive host",
			"https://COMPRAS.GOV.BR/edital",
			"https://compras.gov.br/edital",
			true,
		},
		{
			"same path different query",
			"https://compras.gov.br/edital?sessao=abc",
			"https://compras.gov.br/edital?sessao=xyz",
			true,
		},
		{
			"shared compra parameter",
			"https://compras.gov.br/ver?compra=98765&tab=1",
			"https://compras.gov.br/detalhe?compra=98765",
			true,
		},
		{
			"different compra parameter",
			"https://compras.gov.br/ver?compra=1",
			"https://compras.gov.br/ver2?compra=2",
			false,
		},
		{
			"different hosts same compra",
			"https://a.gov.br/ver?compra=1",
			"https://b.gov.br/outro?compra=1",
			false,
		},
		{
			"unrelated",
			"https://a.gov.br/x",
			"https://b.gov.br/y",
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LinksMatch(tc.a, tc.b))
			assert.Equal(t, tc.want, LinksMatch(tc.b, tc.a))
		})
	}
}
