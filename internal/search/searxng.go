package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/websearch-cli/internal/model"
)

// SearXNG queries public SearXNG instances over their JSON API, falling back
// across the instance list when one is down or rate limited.
type SearXNG struct {
	client    *http.Client
	instances []string
}

// NewSearXNG creates a SearXNG provider over the given instance base URLs.
func NewSearXNG(instances []string) *SearXNG {
	return &SearXNG{
		client:    &http.Client{Timeout: 15 * time.Second},
		instances: instances,
	}
}

func (s *SearXNG) Name() string { return "searxng" }

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search tries each instance in order and returns the first instance's
// results. No engine list is requested so the instance aggregates whatever
// engines are currently working for it.
func (s *SearXNG) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	if len(s.instances) == 0 {
		return nil, eris.New("searxng: no instances configured")
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}

	var lastErr error
	for _, instance := range s.instances {
		results, err := s.searchInstance(ctx, instance, query, limit)
		if err == nil && len(results) > 0 {
			return results, nil
		}
		if err != nil {
			lastErr = err
			zap.L().Debug("searxng: instance failed, trying next",
				zap.String("instance", instance),
				zap.Error(err),
			)
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "searxng: search cancelled")
		}
	}

	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "searxng: all instances failed")
	}
	return nil, eris.New("searxng: no results")
}

func (s *SearXNG) searchInstance(ctx context.Context, instance, query string, limit int) ([]model.SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		instance+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; websearch-cli/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("unexpected status %d", resp.StatusCode)
	}

	var decoded searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "decode response")
	}

	results := make([]model.SearchResult, 0, limit)
	for _, r := range decoded.Results {
		if len(results) >= limit {
			break
		}
		if r.URL == "" || r.Title == "" {
			continue
		}
		results = append(results, model.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Content,
		})
	}

	return results, nil
}
