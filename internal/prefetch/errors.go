package prefetch

import "github.com/rotisserie/eris"

var (
	// ErrNotReady means the artifact is still pending or in flight; the
	// caller should wait and retry.
	ErrNotReady = eris.New("prefetch: artifact not ready")

	// ErrPrefetchFailed means the URL's fetch ended in Failed or Timeout;
	// promoting it cannot succeed until a new batch refetches it.
	ErrPrefetchFailed = eris.New("prefetch: fetch failed")
)
