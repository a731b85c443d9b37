package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/websearch-cli/internal/model"
)

func TestBrave_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"The Go Programming Language","url":"https://go.dev","description":"Build simple software"},
			{"title":"No Desc","url":"https://example.com"}
		]}}`))
	}))
	defer srv.Close()

	b := NewBrave("secret", srv.URL)
	results, err := b.Search(context.Background(), "golang", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "The Go Programming Language", results[0].Title)
	assert.Equal(t, "https://go.dev", results[0].URL)
	assert.Equal(t, "Build simple software", results[0].Description)
	assert.Equal(t, "No description", results[1].Description)
}

func TestBrave_NoKey(t *testing.T) {
	b := NewBrave("", "")
	_, err := b.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
}

func TestBrave_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := NewBrave("bad", srv.URL)
	_, err := b.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

const ddgHTML = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fgo.dev%2Fblog">Go Blog</a>
  <a class="result__snippet">News from the Go project</a>
</div>
<div class="result">
  <a class="result__a" href="https://pkg.go.dev">Package Index</a>
  <a class="result__snippet">Go package docs</a>
</div>
<div class="result">
  <a class="result__a" href="javascript:void(0)">Junk</a>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(ddgHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.URL)
	results, err := d.Search(context.Background(), "golang", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Go Blog", results[0].Title)
	assert.Equal(t, "https://go.dev/blog", results[0].URL, "redirect link unwrapped")
	assert.Equal(t, "News from the Go project", results[0].Description)
	assert.Equal(t, "https://pkg.go.dev", results[1].URL)
}

func TestDuckDuckGo_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(srv.URL)
	results, err := d.Search(context.Background(), "golang", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearXNG_FallsBackAcrossInstances(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Result","url":"https://example.com","content":"desc"},
			{"title":"","url":"https://skipped.example.com"}
		]}`))
	}))
	defer up.Close()

	s := NewSearXNG([]string{down.URL, up.URL})
	results, err := s.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://example.com", results[0].URL)
}

func TestSearXNG_AllDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	s := NewSearXNG([]string{down.URL})
	_, err := s.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all instances failed")
}

type stubProvider struct {
	name    string
	results []model.SearchResult
	err     error
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Search(context.Context, string, int) ([]model.SearchResult, error) {
	return s.results, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	want := []model.SearchResult{{Title: "t", URL: "https://e.com"}}
	c := NewChain(
		&stubProvider{name: "a", err: eris.New("down")},
		&stubProvider{name: "b", results: want},
		&stubProvider{name: "c", err: eris.New("unreached")},
	)

	got, err := c.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestChain_AllFail(t *testing.T) {
	c := NewChain(
		&stubProvider{name: "a", err: eris.New("down")},
		&stubProvider{name: "b", err: eris.New("also down")},
	)
	_, err := c.Search(context.Background(), "q", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestChain_EmptyResultsFallThrough(t *testing.T) {
	want := []model.SearchResult{{Title: "t", URL: "https://e.com"}}
	c := NewChain(
		&stubProvider{name: "empty"},
		&stubProvider{name: "full", results: want},
	)
	got, err := c.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
