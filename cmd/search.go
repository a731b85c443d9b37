package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/websearch-cli/internal/model"
	"github.com/sells-group/websearch-cli/internal/prefetch"
)

var (
	searchOpen   int
	searchBrowse int
	searchNoWait bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web and prefetch every result page",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		query := strings.Join(args, " ")

		mgr, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		provider := buildProvider(cfg)

		fmt.Printf("Searching for %q...\n", query)
		results, err := provider.Search(ctx, query, cfg.Search.MaxResults)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		if len(results) == 0 {
			return eris.New("no results found")
		}

		if err := mgr.StartNewBatch(); err != nil {
			return err
		}
		mgr.Submit(results)

		if searchNoWait {
			printResults(mgr, results)
			return nil
		}

		if err := waitForBatch(ctx, mgr); err != nil {
			return err
		}
		printResults(mgr, results)

		if searchOpen > 0 {
			if searchOpen > len(results) {
				return eris.Errorf("result %d out of range (%d results)", searchOpen, len(results))
			}
			path, err := mgr.Promote(results[searchOpen-1].URL)
			if err != nil {
				return err
			}
			return openInEditor(cfg.Viewer.EditorCommand(), path)
		}

		if searchBrowse > 0 {
			if searchBrowse > len(results) {
				return eris.Errorf("result %d out of range (%d results)", searchBrowse, len(results))
			}
			return openInBrowser(results[searchBrowse-1].URL)
		}

		return nil
	},
}

// waitForBatch polls progress until every submitted URL has a terminal state.
func waitForBatch(ctx context.Context, mgr *prefetch.Manager) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		completed, total := mgr.Progress()
		fmt.Printf("\rPrefetching: %d/%d", completed, total)
		if total > 0 && completed == total {
			fmt.Println()
			return nil
		}

		select {
		case <-ctx.Done():
			fmt.Println()
			return eris.Wrap(ctx.Err(), "search: interrupted")
		case <-ticker.C:
		}
	}
}

func printResults(mgr *prefetch.Manager, results []model.SearchResult) {
	for i, r := range results {
		st := mgr.Status(r.URL)
		fmt.Printf("%2d. %s %s\n", i+1, statusGlyph(st), r.Title)
		fmt.Printf("      %s\n", r.URL)
		if r.Description != "" {
			fmt.Printf("      %s\n", r.Description)
		}
		if st.Status == model.StatusFailed {
			fmt.Printf("      error: %s\n", st.Reason)
		}
	}
}

func statusGlyph(st model.PrefetchState) string {
	switch st.Status {
	case model.StatusReady:
		return "✓"
	case model.StatusCached:
		return "⚡"
	case model.StatusFailed:
		return "✗"
	case model.StatusTimeout:
		return "⏱"
	case model.StatusInProgress:
		return "…"
	default:
		return "·"
	}
}

func init() {
	searchCmd.Flags().IntVar(&searchOpen, "open", 0, "open the Nth result in the editor once ready")
	searchCmd.Flags().IntVar(&searchBrowse, "browse", 0, "open the Nth result URL in the system browser")
	searchCmd.Flags().BoolVar(&searchNoWait, "no-wait", false, "print results immediately without waiting for prefetching")
	rootCmd.AddCommand(searchCmd)
}
