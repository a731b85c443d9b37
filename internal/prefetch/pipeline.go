package prefetch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/websearch-cli/internal/cachekey"
	"github.com/sells-group/websearch-cli/internal/extract"
	"github.com/sells-group/websearch-cli/internal/fetcher"
	"github.com/sells-group/websearch-cli/internal/model"
)

// Runner executes the fetch-extract-persist pipeline for one search result
// and returns the artifact path. The Manager owns retry and timeout policy;
// a Runner does one attempt and reports what happened.
type Runner interface {
	Run(ctx context.Context, result model.SearchResult) (string, error)
}

// Pipeline is the production Runner: download the page, extract its content,
// render the artifact, write it to the staging directory.
type Pipeline struct {
	client     *fetcher.Client
	stagingDir string
}

// NewPipeline creates a Pipeline writing into stagingDir.
func NewPipeline(client *fetcher.Client, stagingDir string) *Pipeline {
	return &Pipeline{client: client, stagingDir: stagingDir}
}

// Run fetches one page and persists its artifact. Each step is a hard
// dependency on the previous one; there are no partial artifacts because the
// write goes through a temp file and a rename.
func (p *Pipeline) Run(ctx context.Context, result model.SearchResult) (string, error) {
	body, err := p.client.Fetch(ctx, result.URL)
	if err != nil {
		return "", err
	}

	doc, err := extract.FromHTML(body, result.URL)
	if err != nil {
		return "", err
	}

	path := filepath.Join(p.stagingDir, cachekey.Key(result.URL, result.Title))
	if err := writeAtomic(path, []byte(doc.Render())); err != nil {
		return "", err
	}

	return path, nil
}

// writeAtomic writes via a temp sibling and a rename so a concurrent reader
// never observes a partial artifact.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrap(err, "prefetch: write artifact")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "prefetch: finalize artifact")
	}
	return nil
}
