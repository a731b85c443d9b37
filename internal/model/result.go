package model

// SearchResult is one entry returned by a search provider.
// Identity is the URL; title and description are display metadata.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
