package models

// Article is a recovery-support article served from the remote content API.
// Articles are read-only on this side; the catalogue is cached and refreshed
// on an interval.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Excerpt     string `json:"excerpt"`
	Content     string `json:"content"`
	Author      string `json:"author,omitempty"`
	ReadMinutes int    `json:"read_minutes,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}
