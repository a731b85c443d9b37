package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/websearch-cli/internal/prefetch"
)

var cleanMaxAge int

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached pages older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		retention := cfg.Cache.Retention()
		if cleanMaxAge > 0 {
			retention = time.Duration(cleanMaxAge) * 24 * time.Hour
		}

		mgr, err := prefetch.New(prefetch.Options{
			BaseDir:   cfg.BaseDir,
			Retention: retention,
		}, nil)
		if err != nil {
			return err
		}

		removed := mgr.Sweep()
		fmt.Printf("Removed %d cached page(s) older than %s.\n", removed, retention)
		return nil
	},
}

func init() {
	cleanCmd.Flags().IntVar(&cleanMaxAge, "max-age-days", 0, "override the configured retention window")
	rootCmd.AddCommand(cleanCmd)
}
