package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/websearch-cli/internal/model"
	"github.com/sells-group/websearch-cli/internal/prefetch"
	"github.com/sells-group/websearch-cli/internal/search"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the prefetch engine over HTTP for external UIs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		mgr, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		api := &apiServer{
			mgr:        mgr,
			provider:   buildProvider(cfg),
			maxResults: cfg.Search.MaxResults,
		}

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
		}))

		r.Get("/healthz", api.health)
		r.Post("/search", api.search)
		r.Get("/results", api.results)
		r.Get("/progress", api.progress)
		r.Post("/promote", api.promote)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer exposes the engine to polling presentation layers. It remembers
// the last submitted result list so /results can render the table in search
// order.
type apiServer struct {
	mgr        *prefetch.Manager
	provider   search.Provider
	maxResults int

	mu          sync.Mutex
	lastResults []model.SearchResult
}

func (s *apiServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	limit := s.maxResults
	if limit <= 0 {
		limit = search.DefaultMaxResults
	}

	results, err := s.provider.Search(r.Context(), req.Query, limit)
	if err != nil {
		zap.L().Error("api: search failed", zap.String("query", req.Query), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "search failed"})
		return
	}

	if err := s.mgr.StartNewBatch(); err != nil {
		zap.L().Error("api: start batch failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not start batch"})
		return
	}

	s.mu.Lock()
	s.lastResults = results
	s.mu.Unlock()

	s.mgr.Submit(results)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"results": len(results),
	})
}

// resultView is one row of the status table joined with its search result.
type resultView struct {
	Title       string              `json:"title"`
	URL         string              `json:"url"`
	Description string              `json:"description,omitempty"`
	State       model.PrefetchState `json:"state"`
}

func (s *apiServer) results(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	results := s.lastResults
	s.mu.Unlock()

	views := make([]resultView, 0, len(results))
	for _, res := range results {
		views = append(views, resultView{
			Title:       res.Title,
			URL:         res.URL,
			Description: res.Description,
			State:       s.mgr.Status(res.URL),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *apiServer) progress(w http.ResponseWriter, r *http.Request) {
	completed, total := s.mgr.Progress()
	writeJSON(w, http.StatusOK, map[string]int{
		"completed": completed,
		"total":     total,
	})
}

func (s *apiServer) promote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "url is required"})
		return
	}

	path, err := s.mgr.Promote(req.URL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"path": path})
	case eris.Is(err, prefetch.ErrNotReady):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case eris.Is(err, prefetch.ErrPrefetchFailed):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		zap.L().Error("api: promote failed", zap.String("url", req.URL), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "promote failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
