package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kyunghoon/twasm/internal/config/configtest"
	"github.com/kyunghoon/twasm/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conf := configtest.NewTestTwasmConfig()
	srv := server.New(conf, zap.NewNop(), http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP\n"))
		}))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postTranspile(t *testing.T, ts *httptest.Server, body map[string]any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := ts.Client().Post(
		ts.URL+"/api/v1/transpile", "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func TestTranspileEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := postTranspile(t, ts, map[string]any{
		"filename": "mod.ts",
		"source":   "export const a: number = 1;",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wrapper struct {
		StatusCode int `json:"status_code"`
		Data       struct {
			Filename string `json:"filename"`
			Code     string `json:"code"`
			Key      uint64 `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wrapper))
	assert.Equal(t, "mod.js", wrapper.Data.Filename)
	assert.Contains(t, wrapper.Data.Code, "factory")
	assert.Contains(t, wrapper.Data.Code, "exports.a = void 0")
}

func TestTranspileEndpointAMD(t *testing.T) {
	ts := newTestServer(t)
	resp := postTranspile(t, ts, map[string]any{
		"filename": "mod.ts",
		"source":   "export const a = 1;",
		"format":   "amd",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var wrapper struct {
		Data struct {
			Code string `json:"code"`
			Key  uint64 `json:"key"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&wrapper))
	// the define call is re-addressed to the allocated key
	assert.True(t, strings.HasPrefix(wrapper.Data.Code, "define("))
	assert.Contains(t, wrapper.Data.Code, "define(")
}

func TestTranspileEndpointDiagnostics(t *testing.T) {
	ts := newTestServer(t)
	resp := postTranspile(t, ts, map[string]any{
		"filename": "bad.ts",
		"source":   "const x = ;",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error       string `json:"error"`
		Status      int    `json:"status"`
		Diagnostics []struct {
			Message string `json:"message"`
			File    string `json:"file"`
			Line    int    `json:"line"`
			Column  int    `json:"column"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "syntax error", body.Error)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	require.NotEmpty(t, body.Diagnostics)
	assert.Equal(t, "bad.ts", body.Diagnostics[0].File)
	assert.Equal(t, 1, body.Diagnostics[0].Line)
}

func TestTranspileEndpointValidation(t *testing.T) {
	ts := newTestServer(t)

	resp := postTranspile(t, ts, map[string]any{"filename": "mod.ts"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postTranspile(t, ts, map[string]any{
		"filename": "mod.ts",
		"source":   "export const a = 1;",
		"format":   "systemjs",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoadEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/load/greet.ts")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "factory")
	assert.Contains(t, buf.String(), "exports.greet")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/load/greet.ts", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp2, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
}

func TestLoadEndpointErrors(t *testing.T) {
	ts := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/load/missing.ts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/load/..%2Fsecret.ts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.Client().Get(ts.URL + "/load/bad.ts")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Diagnostics []any `json:"diagnostics"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Diagnostics)
}

func TestPreludeEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/prelude.js")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "define")
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "v1", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIdHeader(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}
