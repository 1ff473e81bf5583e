package video

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/bryanwahyu/homefix-vision/internal/domain/tutorials"
)

const watchURL = "https://www.youtube.com/watch?v="

// YouTube finds repair tutorials through the YouTube Data API search endpoint.
type YouTube struct {
	svc *youtube.Service
}

func NewYouTube(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

func (y *YouTube) Search(ctx context.Context, query string, max int) ([]tutorials.Video, error) {
	resp, err := y.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return nil, fmt.Errorf("youtube search: %d %s", gerr.Code, strings.TrimSpace(gerr.Message))
		}
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	out := make([]tutorials.Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Id == nil || it.Id.VideoId == "" || it.Snippet == nil {
			continue
		}
		v := tutorials.Video{
			ID:      it.Id.VideoId,
			Title:   it.Snippet.Title,
			Channel: it.Snippet.ChannelTitle,
			URL:     watchURL + it.Id.VideoId,
		}
		if th := it.Snippet.Thumbnails; th != nil {
			switch {
			case th.Medium != nil:
				v.Thumbnail = th.Medium.Url
			case th.Default != nil:
				v.Thumbnail = th.Default.Url
			}
		}
		out = append(out, v)
	}
	return out, nil
}
