package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func publicationsServer(t *testing.T, rows string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data": [%s]}`, rows)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFindRecordByPurchaseNumber(t *testing.T) {
	t.Parallel()

	srv := publicationsServer(t, `
		{"numeroCompra": "15/2024", "anoCompra": 2024, "sequencialCompra": 15,
		 "orgaoEntidade": {"cnpj": "11111111000111", "nome": "Prefeitura A"}},
		{"numeroCompra": "90/2025", "anoCompra": 2025, "sequencialCompra": 90,
		 "orgaoEntidade": {"cnpj": "22222222000122", "nome": "Prefeitura B"}}`)

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.FindRecordByPurchaseNumber(context.Background(), "90/2025", time.Now(), "", "")
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "22222222000122", res.Value().TaxID)

	res = client.FindRecordByPurchaseNumber(context.Background(), "99/2099", time.Now(), "", "")
	assert.False(t, res.OK())

	res = client.FindRecordByPurchaseNumber(context.Background(), "sem numero", time.Now(), "", "")
	require.False(t, res.OK())
	assert.Equal(t, "unparseable purchase number", res.Reason())
}

func TestFindRecordByPurchaseNumberFiltersTaxID(t *testing.T) {
	t.Parallel()

	srv := publicationsServer(t, `
		{"numeroCompra": "15/2024", "anoCompra": 2024, "sequencialCompra": 15,
		 "orgaoEntidade": {"cnpj": "11111111000111", "nome": "Prefeitura A"}}`)

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.FindRecordByPurchaseNumber(context.Background(), "15/2024", time.Now(), "99.999.999/0001-99", "")
	assert.False(t, res.OK(), "mismatched tax id must not match")

	res = client.FindRecordByPurchaseNumber(context.Background(), "15/2024", time.Now(), "11.111.111/0001-11", "")
	assert.True(t, res.OK(), res.Reason())
}

func TestFindRecordByLinkNarrowsByTaxID(t *testing.T) {
	t.Parallel()

	link := "https://compras.gov.br/ver?compra=77"
	var sawCNPJParam atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cnpj") == "11.111.111/0001-11" {
			sawCNPJParam.Store(true)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data": [
			{"linkSistemaOrigem": %q,
			 "orgaoEntidade": {"cnpj": "22222222000122", "nome": "Prefeitura B"}},
			{"linkSistemaOrigem": %q,
			 "orgaoEntidade": {"cnpj": "11111111000111", "nome": "Prefeitura A"}}
		]}`, link, link)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.FindRecordByLink(context.Background(), link, time.Now(), "11.111.111/0001-11", "")
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "11111111000111", res.Value().TaxID)
	assert.True(t, sawCNPJParam.Load(), "tax id must be forwarded to the search query")
}

func TestResolveTaxIDByEntityName(t *testing.T) {
	t.Parallel()

	srv := publicationsServer(t, `
		{"numeroControlePNCP": "111-1-000001/2025",
		 "orgaoEntidade": {"cnpj": "11111111000111", "nome": "Prefeitura Municipal de Campinas"}},
		{"numeroControlePNCP": "222-1-000002/2025",
		 "orgaoEntidade": {"cnpj": "22222222000122", "nome": "Tribunal Regional do Trabalho"}}`)

	client := NewClient(sweepConfig(srv.URL), zap.NewNop())
	res := client.ResolveTaxIDByEntityName(context.Background(), "Prefeitura de Campinas", time.Now(), "")
	require.True(t, res.OK(), res.Reason())
	assert.Equal(t, "11111111000111", res.Value())

	res = client.ResolveTaxIDByEntityName(context.Background(), "Universidade Federal", time.Now(), "")
	assert.False(t, res.OK(), "weak overlap must not resolve")
}

func TestLookupsDisabledRegistry(t *testing.T) {
	t.Parallel()

	cfg := sweepConfig("http://unused")
	cfg.Enabled = false
	client := NewClient(cfg, zap.NewNop())

	assert.False(t, client.FindRecordByLink(context.Background(), "https://x", time.Now(), "", "").OK())
	assert.False(t, client.FindRecordByPurchaseNumber(context.Background(), "1/2025", time.Now(), "", "").OK())
	assert.False(t, client.ResolveTaxIDByEntityName(context.Background(), "Prefeitura", time.Now(), "").OK())
}
