package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/websearch-cli/internal/config"
	"github.com/sells-group/websearch-cli/internal/model"
	"github.com/sells-group/websearch-cli/internal/prefetch"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"search", "open", "clean", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "websearch-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestSearchCommand_Flags(t *testing.T) {
	for _, name := range []string{"open", "browse", "no-wait"} {
		require.NotNil(t, searchCmd.Flags().Lookup(name), "search command should have --%s flag", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCleanCommand_Flags(t *testing.T) {
	flag := cleanCmd.Flags().Lookup("max-age-days")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestStatusGlyph(t *testing.T) {
	cases := map[model.PrefetchStatus]string{
		model.StatusReady:      "✓",
		model.StatusCached:     "⚡",
		model.StatusFailed:     "✗",
		model.StatusTimeout:    "⏱",
		model.StatusInProgress: "…",
		model.StatusPending:    "·",
	}
	for status, glyph := range cases {
		assert.Equal(t, glyph, statusGlyph(model.PrefetchState{Status: status}))
	}
}

func TestBuildProvider_Ordering(t *testing.T) {
	base := &config.Config{}
	base.Search.SearxURLs = []string{"https://searx.example.com"}

	base.Search.Provider = "brave"
	assert.Equal(t, "brave", buildProvider(base).Name())

	base.Search.Provider = "searxng"
	assert.Equal(t, "searxng", buildProvider(base).Name())

	base.Search.Provider = "duckduckgo"
	assert.Equal(t, "duckduckgo", buildProvider(base).Name())
}

func TestArtifactURL(t *testing.T) {
	dir := t.TempDir()

	doc := model.Document{
		Title:    "Example",
		URL:      "https://example.com/page",
		Markdown: "body",
	}
	path := filepath.Join(dir, "example.md")
	require.NoError(t, os.WriteFile(path, []byte(doc.Render()), 0o644))

	artifacts := []prefetch.Artifact{{Name: "example.md", Path: path}}

	url, err := artifactURL(artifacts, "example.md")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", url)

	_, err = artifactURL(artifacts, "missing.md")
	assert.Error(t, err)
}
