package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dataiq/internal/config"
	"github.com/peekknuf/dataiq/internal/connectors"
	"github.com/peekknuf/dataiq/internal/dataset"
	"github.com/peekknuf/dataiq/internal/metrics"
	"github.com/peekknuf/dataiq/internal/pipeline"
	"github.com/peekknuf/dataiq/internal/storage"
)

type stubSource struct {
	tables []string
	ds     *dataset.Dataset
}

func (s *stubSource) TestConnection(context.Context) error { return nil }

func (s *stubSource) ListTables(context.Context, string) ([]string, error) { return s.tables, nil }

func (s *stubSource) GetColumns(context.Context, string, string) ([]connectors.ColumnInfo, error) {
	return []connectors.ColumnInfo{{Name: "id", DataType: "int4", Position: 1}}, nil
}

func (s *stubSource) SampleTable(_ context.Context, _, table string, _ int) (*dataset.Dataset, error) {
	if table != "orders" {
		return nil, errors.New("relation does not exist")
	}
	return s.ds, nil
}

func (s *stubSource) Close() error { return nil }

type fixture struct {
	handler http.Handler
	cfg     *config.Config
}

func newFixture(t *testing.T, src connectors.Source, withHistory bool) fixture {
	t.Helper()

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.Paths.OutputsDir = filepath.Join(t.TempDir(), "outputs")

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	opts := pipeline.Options{Source: src, Metrics: m}
	if withHistory {
		h, err := storage.OpenHistory(filepath.Join(t.TempDir(), "history.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { h.Close() })
		opts.History = h
	}

	runner := pipeline.NewRunner(cfg, opts, nil)
	return fixture{handler: New(cfg, runner, reg, nil).Handler(), cfg: cfg}
}

func ordersSource() *stubSource {
	return &stubSource{
		tables: []string{"orders"},
		ds: dataset.MustNew(
			dataset.Column{Name: "id", Storage: dataset.StorageInt, Values: []dataset.Value{dataset.Int(1), dataset.Int(2)}},
			dataset.Column{Name: "amount", Storage: dataset.StorageFloat, Values: []dataset.Value{dataset.Float(1.5), dataset.Null()}},
		),
	}
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp APIResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp))
	}
	return w, resp
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, false)
	w, resp := do(t, f.handler, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Status)
}

func TestListTables(t *testing.T) {
	f := newFixture(t, ordersSource(), false)
	w, resp := do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"orders"}, resp.Data)

	w, resp = do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/tables/orders/columns", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
}

func TestListTablesWithoutSource(t *testing.T) {
	f := newFixture(t, nil, false)
	w, resp := do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/tables", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
}

func TestProfileTable(t *testing.T) {
	f := newFixture(t, ordersSource(), true)

	w, resp := do(t, f.handler, httptest.NewRequest(http.MethodPost, "/api/tables/orders/profile?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := resp.Data.(map[string]any)
	assert.InDelta(t, 87.5, data["score"], 1e-9)
	assert.Equal(t, "Fair", data["grade"])

	result := data["result"].(map[string]any)
	cols := result["columns"].([]any)
	require.Len(t, cols, 2)
	amount := cols[1].(map[string]any)
	assert.Equal(t, 1.5, amount["mean"])
	assert.Nil(t, amount["std"])

	w, _ = do(t, f.handler, httptest.NewRequest(http.MethodPost, "/api/tables/orders/profile?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, f.handler, httptest.NewRequest(http.MethodPost, "/api/tables/missing/profile", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// the saved profile and history are served back
	w, resp = do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/profiles", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)

	w, resp = do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/profiles/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "orders", resp.Data.(map[string]any)["name"])

	w, resp = do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/history/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp.Data, 1)
}

func TestGetProfileNotFound(t *testing.T) {
	f := newFixture(t, nil, false)
	w, _ := do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/profiles/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryDisabled(t *testing.T) {
	f := newFixture(t, nil, false)
	w, _ := do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/history/orders", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, nil, false)

	csv := "id,name,score\n1,alice,10\n2,bob,\n2,bob,\n"
	w, resp := do(t, f.handler, uploadRequest(t, "people.csv", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := resp.Data.(map[string]any)
	result := data["result"].(map[string]any)
	assert.Equal(t, "people", result["name"])

	overall := result["overall"].(map[string]any)
	assert.Equal(t, 3.0, overall["rows"])
	assert.Equal(t, 1.0, overall["duplicate_rows"])
	assert.Equal(t, 2.0, overall["total_nulls"])

	anomalies := data["anomalies"].(map[string]any)
	assert.Len(t, anomalies["per_column"], 2)

	assert.FileExists(t, filepath.Join(f.cfg.Paths.ProfilesDir(), "profile_people.csv"))
}

func TestUploadWithInfiniteValues(t *testing.T) {
	f := newFixture(t, nil, false)

	w, resp := do(t, f.handler, uploadRequest(t, "ratios.csv", "v\n1.5\ninf\n2\n"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cols := resp.Data.(map[string]any)["result"].(map[string]any)["columns"].([]any)
	require.Len(t, cols, 1)
	v := cols[0].(map[string]any)
	assert.Equal(t, "float64", v["dtype"])
	assert.Equal(t, "+Inf", v["mean"])
	assert.Equal(t, "NaN", v["std"])
	assert.Equal(t, 1.5, v["min"])

	w, resp = do(t, f.handler, httptest.NewRequest(http.MethodGet, "/api/profiles/ratios", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := resp.Data.(map[string]any)["columns"].([]any)[0].(map[string]any)
	assert.Equal(t, "+Inf", saved["max"])
}

func TestUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil, false)

	w, _ := do(t, f.handler, uploadRequest(t, "notes.pdf", "%PDF"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, f.handler, uploadRequest(t, "bad.csv", "a,b\n1,2,3\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("plain"))
	w, _ = do(t, f.handler, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil, false)
	_, _ = do(t, f.handler, uploadRequest(t, "m.csv", "x\n1\n2\n"))

	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dataiq_health_score{dataset="m"} 100`)
}
