package tutorials

import "context"

// Video is one repair tutorial search hit.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail,omitempty"`
	URL       string `json:"url"`
}

// Finder searches a video platform for repair tutorials.
type Finder interface {
	Search(ctx context.Context, query string, max int) ([]Video, error)
}
