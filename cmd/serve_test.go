package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/websearch-cli/internal/cachekey"
	"github.com/sells-group/websearch-cli/internal/model"
	"github.com/sells-group/websearch-cli/internal/prefetch"
)

type fixedProvider struct {
	results []model.SearchResult
}

func (p *fixedProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	return p.results, nil
}

func (p *fixedProvider) Name() string { return "fixed" }

type noopRunner struct{}

func (noopRunner) Run(ctx context.Context, r model.SearchResult) (string, error) {
	return "", context.Canceled
}

func newTestAPI(t *testing.T, results []model.SearchResult) *apiServer {
	t.Helper()
	mgr, err := prefetch.New(prefetch.Options{BaseDir: t.TempDir()}, noopRunner{})
	require.NoError(t, err)
	return &apiServer{mgr: mgr, provider: &fixedProvider{results: results}}
}

func TestServeHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	api.health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestServeSearch_AcceptsAndTracks(t *testing.T) {
	results := []model.SearchResult{
		{Title: "One", URL: "https://one.example.com/a"},
		{Title: "Two", URL: "https://two.example.com/b"},
	}
	api := newTestAPI(t, results)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"go"}`))
	api.search(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		Status  string `json:"status"`
		Results int    `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.Equal(t, 2, resp.Results)

	rec = httptest.NewRecorder()
	api.results(rec, httptest.NewRequest(http.MethodGet, "/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []resultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "https://one.example.com/a", views[0].URL)
}

func TestServeSearch_RejectsEmptyQuery(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`))
	api.search(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeProgress(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	api.progress(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp["completed"])
	assert.Equal(t, 0, resp["total"])
}

func TestServePromote_NotReadyConflict(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promote", strings.NewReader(`{"url":"https://example.com/x"}`))
	api.promote(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestServePromote_CachedArtifact(t *testing.T) {
	result := model.SearchResult{Title: "Cached", URL: "https://example.com/cached"}
	api := newTestAPI(t, []model.SearchResult{result})

	require.NoError(t, api.mgr.StartNewBatch())

	// A pre-existing staging artifact makes the submit pass mark it Cached.
	name := cachekey.Key(result.URL, result.Title)
	path := filepath.Join(api.mgr.StagingDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("# Cached\n"), 0o644))

	api.mgr.Submit([]model.SearchResult{result})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/promote", strings.NewReader(`{"url":"https://example.com/cached"}`))
	api.promote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, filepath.Join(api.mgr.PromotedDir(), name), resp["path"])
}
