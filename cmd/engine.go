package main

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/websearch-cli/internal/config"
	"github.com/sells-group/websearch-cli/internal/fetcher"
	"github.com/sells-group/websearch-cli/internal/prefetch"
	"github.com/sells-group/websearch-cli/internal/search"
)

// buildEngine wires the HTTP client, pipeline, and prefetch manager, and
// fires the startup eviction sweep in the background.
func buildEngine(cfg *config.Config) (*prefetch.Manager, error) {
	client := fetcher.New(fetcher.Options{
		UserAgent:      cfg.HTTP.UserAgent,
		ConnectTimeout: time.Duration(cfg.HTTP.ConnectTimeout) * time.Second,
	})

	opts := prefetch.Options{
		BaseDir:     cfg.BaseDir,
		Concurrency: cfg.Prefetch.Concurrency,
		Timeout:     cfg.Prefetch.Timeout(),
		Retention:   cfg.Cache.Retention(),
	}

	pipeline := prefetch.NewPipeline(client, prefetch.StagingDir(cfg.BaseDir))
	mgr, err := prefetch.New(opts, pipeline)
	if err != nil {
		return nil, err
	}

	go func() {
		if n := mgr.Sweep(); n > 0 {
			zap.L().Info("startup sweep finished", zap.Int("removed", n))
		}
	}()

	return mgr, nil
}

// buildProvider constructs the configured search provider, with the
// remaining providers as fallbacks.
func buildProvider(cfg *config.Config) search.Provider {
	brave := search.NewBrave(cfg.Search.BraveAPIKey, "")
	ddg := search.NewDuckDuckGo("")
	searx := search.NewSearXNG(cfg.Search.SearxURLs)

	switch cfg.Search.Provider {
	case "brave":
		return search.NewChain(brave, ddg, searx)
	case "searxng":
		return search.NewChain(searx, ddg)
	default:
		return search.NewChain(ddg, searx)
	}
}
