package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/websearch-cli/internal/prefetch"
)

var openBrowser bool

var openCmd = &cobra.Command{
	Use:   "open [artifact]",
	Short: "Open a cached page in the editor",
	Long:  "With no arguments, lists cached artifacts. With an index or filename, promotes the artifact and opens it in the editor. --browser opens the original page URL instead.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := buildEngine(cfg)
		if err != nil {
			return err
		}

		artifacts := mgr.ListArtifacts()

		if len(args) == 0 {
			if len(artifacts) == 0 {
				fmt.Println("No cached pages.")
				return nil
			}
			for i, a := range artifacts {
				marker := " "
				if a.Promoted {
					marker = "*"
				}
				fmt.Printf("%2d. %s %s\n", i+1, marker, a.Name)
			}
			return nil
		}

		name := args[0]
		if n, err := strconv.Atoi(name); err == nil {
			if n < 1 || n > len(artifacts) {
				return eris.Errorf("artifact %d out of range (%d cached)", n, len(artifacts))
			}
			name = artifacts[n-1].Name
		}

		if openBrowser {
			url, err := artifactURL(artifacts, name)
			if err != nil {
				return err
			}
			return openInBrowser(url)
		}

		path, err := mgr.PromoteArtifact(name)
		if err != nil {
			return err
		}
		return openInEditor(cfg.Viewer.EditorCommand(), path)
	},
}

// artifactURL reads the source URL out of an artifact's frontmatter.
func artifactURL(artifacts []prefetch.Artifact, name string) (string, error) {
	for _, a := range artifacts {
		if a.Name != name {
			continue
		}
		f, err := os.Open(a.Path)
		if err != nil {
			return "", eris.Wrapf(err, "open artifact %s", name)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		fences := 0
		for sc.Scan() && fences < 2 {
			line := sc.Text()
			if line == "---" {
				fences++
				continue
			}
			if url, ok := strings.CutPrefix(line, "url: "); ok {
				return url, nil
			}
		}
		return "", eris.Errorf("artifact %s has no source URL", name)
	}
	return "", eris.Errorf("no artifact named %s", name)
}

func init() {
	openCmd.Flags().BoolVar(&openBrowser, "browser", false, "open the original page URL in the system browser")
	rootCmd.AddCommand(openCmd)
}
