// Package prefetch implements the background prefetch-and-cache engine.
//
// After a search completes, every result page is downloaded and processed
// concurrently and the artifacts land in the staging directory. Opening a
// result promotes its artifact to the promoted directory. A status table
// tracks each URL's lifecycle so a presentation layer can poll progress.
package prefetch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/websearch-cli/internal/cachekey"
	"github.com/sells-group/websearch-cli/internal/model"
)

const (
	stagingDirName  = "current_search"
	promotedDirName = "active_tabs"
)

// StagingDir returns the staging directory under baseDir. Exposed so the
// pipeline can be constructed before the Manager that owns the directory.
func StagingDir(baseDir string) string {
	return filepath.Join(baseDir, stagingDirName)
}

// Options configures the Manager.
type Options struct {
	// BaseDir holds the two cache directories.
	BaseDir string
	// Concurrency bounds simultaneous fetches within a batch.
	Concurrency int
	// Timeout is the per-item hard deadline; exceeding it is a Timeout
	// terminal state regardless of pipeline progress.
	Timeout time.Duration
	// Retention is the maximum artifact age before Sweep removes it.
	Retention time.Duration
}

// Manager orchestrates prefetch batches: cache checks, the bounded worker
// pool, the status table, promotion, and eviction.
//
// The table and counters describe the current batch only. Every batch gets a
// generation number; workers carry the generation they were launched under
// and their writes are dropped once a newer batch starts, so a straggling
// fetch can never corrupt the next batch's table.
type Manager struct {
	stagingDir  string
	promotedDir string
	opts        Options
	runner      Runner

	mu         sync.RWMutex
	generation uint64
	table      map[string]model.PrefetchState
	completed  int
	total      int

	// Serializes Sweep with itself.
	sweepMu sync.Mutex
}

// New creates a Manager and its two directories. Failure to create the
// directories is the only fatal condition in the engine.
func New(opts Options, runner Runner) (*Manager, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 12
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = 5 * 24 * time.Hour
	}

	stagingDir := StagingDir(opts.BaseDir)
	promotedDir := filepath.Join(opts.BaseDir, promotedDirName)

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "prefetch: create staging directory")
	}
	if err := os.MkdirAll(promotedDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "prefetch: create promoted directory")
	}

	return &Manager{
		stagingDir:  stagingDir,
		promotedDir: promotedDir,
		opts:        opts,
		runner:      runner,
		table:       make(map[string]model.PrefetchState),
	}, nil
}

// StagingDir returns the directory holding the current batch's artifacts.
func (m *Manager) StagingDir() string { return m.stagingDir }

// PromotedDir returns the directory holding promoted artifacts.
func (m *Manager) PromotedDir() string { return m.promotedDir }

// StartNewBatch clears the status table, zeroes the counters, bumps the
// batch generation, and deletes leftover staging artifacts. Promoted
// artifacts are never touched. Safe to call while a previous batch still has
// workers in flight: their writes fail the generation check and are dropped.
func (m *Manager) StartNewBatch() error {
	m.mu.Lock()
	m.generation++
	m.table = make(map[string]model.PrefetchState)
	m.completed = 0
	m.total = 0
	m.mu.Unlock()

	entries, err := os.ReadDir(m.stagingDir)
	if err != nil {
		return eris.Wrap(err, "prefetch: read staging directory")
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		// Best effort; a stale artifact is re-derived on the next hit.
		_ = os.Remove(filepath.Join(m.stagingDir, e.Name()))
	}

	return nil
}

// Submit records every result in the status table and launches fetches for
// the ones without an existing artifact. Results whose artifact already
// exists in either directory become Cached immediately and are never fetched.
// Returns as soon as the cache-check pass is done; fetch work is async.
func (m *Manager) Submit(results []model.SearchResult) {
	batchID := uuid.NewString()[:8]

	m.mu.Lock()
	gen := m.generation
	var queue []model.SearchResult
	cached := 0
	for _, r := range results {
		if _, dup := m.table[r.URL]; dup {
			continue
		}
		if path, ok := m.findArtifact(r); ok {
			m.table[r.URL] = model.PrefetchState{Status: model.StatusCached, Path: path}
			m.completed++
			cached++
			continue
		}
		m.table[r.URL] = model.PrefetchState{Status: model.StatusPending}
		queue = append(queue, r)
	}
	m.total = len(m.table)
	m.mu.Unlock()

	zap.L().Info("prefetch: batch submitted",
		zap.String("batch", batchID),
		zap.Int("total", len(results)),
		zap.Int("cached", cached),
		zap.Int("queued", len(queue)),
	)

	if len(queue) == 0 {
		return
	}

	go func() {
		g := new(errgroup.Group)
		g.SetLimit(m.opts.Concurrency)
		for _, r := range queue {
			g.Go(func() error {
				m.fetchOne(gen, batchID, r)
				return nil
			})
		}
		_ = g.Wait()
		zap.L().Debug("prefetch: batch pool drained", zap.String("batch", batchID))
	}()
}

// fetchOne runs the pipeline for a single queued result under the per-item
// deadline and records the terminal state.
func (m *Manager) fetchOne(gen uint64, batchID string, r model.SearchResult) {
	if !m.markInProgress(gen, r.URL) {
		// A newer batch started before this worker ran.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
	defer cancel()

	path, err := m.runner.Run(ctx, r)

	var st model.PrefetchState
	switch {
	case err == nil:
		st = model.PrefetchState{Status: model.StatusReady, Path: path}
	case eris.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded:
		st = model.PrefetchState{Status: model.StatusTimeout}
		zap.L().Debug("prefetch: page timed out",
			zap.String("batch", batchID),
			zap.String("url", r.URL),
		)
	default:
		st = model.PrefetchState{Status: model.StatusFailed, Reason: err.Error()}
		zap.L().Debug("prefetch: page failed",
			zap.String("batch", batchID),
			zap.String("url", r.URL),
			zap.Error(err),
		)
	}

	m.finish(gen, batchID, r.URL, st)
}

// markInProgress flips a URL to InProgress if its batch is still current.
func (m *Manager) markInProgress(gen uint64, url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return false
	}
	m.table[url] = model.PrefetchState{Status: model.StatusInProgress}
	return true
}

// finish records a terminal state and bumps the completed counter, unless the
// batch has moved on.
func (m *Manager) finish(gen uint64, batchID, url string, st model.PrefetchState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		zap.L().Debug("prefetch: dropping stale batch result",
			zap.String("batch", batchID),
			zap.String("url", url),
		)
		return
	}
	m.table[url] = st
	m.completed++
	if m.completed == m.total {
		zap.L().Info("prefetch: batch complete",
			zap.String("batch", batchID),
			zap.Int("total", m.total),
		)
	}
}

// findArtifact looks for an existing artifact for the result's cache key,
// promoted directory first.
func (m *Manager) findArtifact(r model.SearchResult) (string, bool) {
	name := cachekey.Key(r.URL, r.Title)
	for _, dir := range []string{m.promotedDir, m.stagingDir} {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Status returns the state for a URL. Unknown URLs are Pending so the table
// is total over any URL a caller might ask about.
func (m *Manager) Status(url string) model.PrefetchState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.table[url]; ok {
		return st
	}
	return model.PrefetchState{Status: model.StatusPending}
}

// Snapshot returns a copy of the whole status table for rendering.
func (m *Manager) Snapshot() map[string]model.PrefetchState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]model.PrefetchState, len(m.table))
	for url, st := range m.table {
		snap[url] = st
	}
	return snap
}

// Progress returns (completed, total) for the current batch. completed is
// monotonic within a batch and equals total exactly when every submitted URL
// has a terminal state.
func (m *Manager) Progress() (completed, total int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completed, m.total
}

// Promote moves a URL's artifact into the promoted directory and returns the
// final path. Idempotent: promoting an already-promoted artifact returns the
// same path without touching the filesystem.
func (m *Manager) Promote(url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.table[url]
	if !ok {
		st = model.PrefetchState{Status: model.StatusPending}
	}

	switch st.Status {
	case model.StatusPending:
		return "", eris.Wrap(ErrNotReady, "page prefetch not started")
	case model.StatusInProgress:
		return "", eris.Wrap(ErrNotReady, "page is still loading")
	case model.StatusTimeout:
		return "", eris.Wrap(ErrPrefetchFailed, "page timed out")
	case model.StatusFailed:
		return "", eris.Wrap(ErrPrefetchFailed, st.Reason)
	}

	if filepath.Dir(st.Path) == m.promotedDir {
		return st.Path, nil
	}

	dest := filepath.Join(m.promotedDir, filepath.Base(st.Path))
	if err := moveFile(st.Path, dest); err != nil {
		return "", eris.Wrapf(err, "prefetch: promote %s", url)
	}

	st.Path = dest
	m.table[url] = st
	return dest, nil
}

// PromoteArtifact promotes an artifact by filename, independent of the
// status table. Used by callers in a fresh process, where the table is empty
// but artifacts from earlier runs persist on disk.
func (m *Manager) PromoteArtifact(name string) (string, error) {
	name = filepath.Base(name)

	dest := filepath.Join(m.promotedDir, name)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	src := filepath.Join(m.stagingDir, name)
	if _, err := os.Stat(src); err != nil {
		return "", eris.Wrapf(ErrNotReady, "no artifact named %s", name)
	}
	if err := moveFile(src, dest); err != nil {
		return "", eris.Wrapf(err, "prefetch: promote artifact %s", name)
	}
	return dest, nil
}

// ListArtifacts returns the artifact filenames in both directories, promoted
// first, each tagged with whether it has been promoted.
func (m *Manager) ListArtifacts() []Artifact {
	var artifacts []Artifact
	for _, dir := range []string{m.promotedDir, m.stagingDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
				continue
			}
			artifacts = append(artifacts, Artifact{
				Name:     e.Name(),
				Path:     filepath.Join(dir, e.Name()),
				Promoted: dir == m.promotedDir,
			})
		}
	}
	return artifacts
}

// Artifact describes one cached file on disk.
type Artifact struct {
	Name     string
	Path     string
	Promoted bool
}

// moveFile renames src to dest, falling back to copy+delete for cross-device
// moves.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return eris.Wrap(err, "read source")
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return eris.Wrap(err, "write destination")
	}
	_ = os.Remove(src)
	return nil
}
