package prefetch

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Sweep removes artifacts in both directories older than the retention
// window, judged by filesystem modification time. Best effort: individual
// failures are logged and skipped, the sweep never aborts early. Returns the
// number of artifacts actually removed. Never runs concurrently with itself.
func (m *Manager) Sweep() int {
	m.sweepMu.Lock()
	defer m.sweepMu.Unlock()

	cutoff := time.Now().Add(-m.opts.Retention)
	removed := 0

	for _, dir := range []string{m.stagingDir, m.promotedDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			zap.L().Warn("sweep: read directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				zap.L().Warn("sweep: remove artifact", zap.String("path", path), zap.Error(err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		zap.L().Info("sweep: removed old artifacts", zap.Int("count", removed))
	}
	return removed
}
