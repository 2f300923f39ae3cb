package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/permutive/signalbridge/internal/analytics"
	"github.com/permutive/signalbridge/internal/config"
	"github.com/permutive/signalbridge/internal/observability"
	"github.com/permutive/signalbridge/internal/signal"
	"github.com/permutive/signalbridge/internal/store"
)

func setupServer(t *testing.T) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st, err := store.InitRedis(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(st.Close)

	logger := zap.NewNop()
	metrics := observability.NewMockMetricsRegistry()
	resolver := signal.NewResolver(context.Background(), st.Global(), nil, logger)
	engine := signal.NewEngine(resolver, nil, logger, metrics, analytics.NewMockAnalytics())

	return NewServer(logger, st, engine, metrics, config.Config{}), mr
}

func TestEnrichHandler(t *testing.T) {
	srv, mr := setupServer(t)
	require.NoError(t, mr.Set("signals:u1:_pdcrprs", `["d1"]`))
	require.NoError(t, mr.Set("signals:u1:_pcrprs", `["c1"]`))

	body := `{
		"user_id": "u1",
		"ortb2_fragments": {"bidder": {}},
		"config": {"params": {"acBidders": ["b1"]}}
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/enrich", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Fragments struct {
			Bidder map[string]json.RawMessage `json:"bidder"`
		} `json:"ortb2_fragments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	require.Contains(t, out.Fragments.Bidder, "b1")
	assert.Contains(t, string(out.Fragments.Bidder["b1"]), `"p_standard=d1"`)

	// legacy CC bidders get their fragment even without config
	require.Contains(t, out.Fragments.Bidder, "appnexus")
	assert.Contains(t, string(out.Fragments.Bidder["appnexus"]), `"permutive=c1"`)
}

func TestEnrichHandlerBadBody(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/enrich", bytes.NewBufferString(`{`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichHandlerMissingFragmentsIsNoOp(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/enrich", bytes.NewBufferString(`{"user_id":"u1"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ortb2_fragments":null}`, rec.Body.String())
}

func TestHealthHandler(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
