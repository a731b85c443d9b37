package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/websearch-cli/internal/model"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave queries the Brave Search API.
type Brave struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

// NewBrave creates a Brave provider. baseURL overrides the production
// endpoint when non-empty.
func NewBrave(apiKey, baseURL string) *Brave {
	if baseURL == "" {
		baseURL = defaultBraveURL
	}
	return &Brave{
		client:  &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

func (b *Brave) Name() string { return "brave" }

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries the API and returns up to limit results.
func (b *Brave) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	if b.apiKey == "" {
		return nil, eris.New("brave: api key not configured")
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "brave: create request")
	}
	req.Header.Set("X-Subscription-Token", b.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "brave: execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("brave: unexpected status %d", resp.StatusCode)
	}

	var decoded braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "brave: decode response")
	}

	results := make([]model.SearchResult, 0, limit)
	for _, r := range decoded.Web.Results {
		if len(results) >= limit {
			break
		}
		desc := r.Description
		if desc == "" {
			desc = "No description"
		}
		results = append(results, model.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: desc,
		})
	}

	return results, nil
}
