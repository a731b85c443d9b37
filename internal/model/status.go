package model

// PrefetchStatus is the lifecycle phase of one prefetched URL.
type PrefetchStatus string

const (
	// StatusPending means the URL was submitted but no worker picked it up yet.
	StatusPending PrefetchStatus = "pending"
	// StatusInProgress means a worker is fetching the page right now.
	StatusInProgress PrefetchStatus = "in_progress"
	// StatusReady means the page was fetched this batch and the artifact exists.
	StatusReady PrefetchStatus = "ready"
	// StatusCached means an artifact from an earlier run was reused; no fetch happened.
	StatusCached PrefetchStatus = "cached"
	// StatusFailed means the fetch or extraction failed.
	StatusFailed PrefetchStatus = "failed"
	// StatusTimeout means the per-item deadline elapsed before the pipeline finished.
	StatusTimeout PrefetchStatus = "timeout"
)

// PrefetchState is the status of one URL plus its terminal payload:
// the artifact path for Ready/Cached, the failure reason for Failed.
type PrefetchState struct {
	Status PrefetchStatus `json:"status"`
	Path   string         `json:"path,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

// Terminal reports whether the state will not change again within its batch.
func (s PrefetchState) Terminal() bool {
	switch s.Status {
	case StatusReady, StatusCached, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// Viewable reports whether an artifact exists for this state.
func (s PrefetchState) Viewable() bool {
	return s.Status == StatusReady || s.Status == StatusCached
}
