// Package youtube resolves YouTube URLs and free-text queries into canonical
// video metadata via the YouTube Data API v3.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"hamusic/internal/core"
	"hamusic/internal/store"
)

const (
	// RequestTimeout is the timeout for YouTube API requests.
	RequestTimeout = 10 * time.Second
	// MaxSearchResults caps free-text search responses.
	MaxSearchResults = 8
)

// watchLinkRegex matches the known short-link and watch-link shapes and
// captures the 11-character video id.
var watchLinkRegex = regexp.MustCompile(`(?:youtu\.be/|youtube\.com/watch\?v=)([\w-]{11})`)

// Client talks to the YouTube Data API. Outbound calls share a rate limiter;
// resolved metadata is cached by video id so repeated resolutions of the same
// video skip the API.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cache   *store.VideoCache
	logger  *zap.Logger
}

func NewClient(config *core.YouTubeConfig, cache *store.VideoCache, logger *zap.Logger) *Client {
	return &Client{
		apiKey:  config.APIKey,
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: RequestTimeout},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), 1),
		cache:   cache,
		logger:  logger,
	}
}

// ResolveURL turns a raw YouTube URL into video metadata. Playlist links
// resolve through their first item; watch and short links through the videos
// endpoint. Unrecognized URLs fail with core.ErrInvalidInput, well-formed
// lookups that match nothing with core.ErrResolutionFailed.
func (c *Client) ResolveURL(ctx context.Context, rawURL string) (*core.ResolvedVideo, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("%w: not a valid URL: %q", core.ErrInvalidInput, rawURL)
	}

	if playlistID := parsed.Query().Get("list"); playlistID != "" {
		return c.resolvePlaylist(ctx, playlistID)
	}

	videoID := parsed.Query().Get("v")
	if videoID == "" {
		match := watchLinkRegex.FindStringSubmatch(rawURL)
		if match == nil {
			return nil, fmt.Errorf("%w: no video id in URL: %q", core.ErrInvalidInput, rawURL)
		}
		videoID = match[1]
	}

	return c.ResolveVideoID(ctx, videoID)
}

// ResolveVideoID fetches snippet and content details for a video id.
func (c *Client) ResolveVideoID(ctx context.Context, videoID string) (*core.ResolvedVideo, error) {
	if cached, ok := c.cache.Get(videoID); ok {
		return cached, nil
	}

	var resp videosResponse
	if err := c.get(ctx, "/videos", url.Values{
		"part": {"snippet,contentDetails"},
		"id":   {videoID},
	}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: video %q not found", core.ErrResolutionFailed, videoID)
	}

	item := resp.Items[0]
	video := &core.ResolvedVideo{
		YouTubeID: item.ID,
		Title:     item.Snippet.Title,
		Duration:  item.ContentDetails.Duration,
		Thumbnail: item.Snippet.Thumbnails.High.URL,
	}
	c.cache.Add(video)
	return video, nil
}

// resolvePlaylist takes the playlist's first item. The item snippet already
// carries the video id and thumbnail, saving the videos round trip; the
// duration stays empty.
func (c *Client) resolvePlaylist(ctx context.Context, playlistID string) (*core.ResolvedVideo, error) {
	var resp playlistItemsResponse
	if err := c.get(ctx, "/playlistItems", url.Values{
		"part":       {"snippet"},
		"maxResults": {"1"},
		"playlistId": {playlistID},
	}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: playlist %q has no items", core.ErrResolutionFailed, playlistID)
	}

	item := resp.Items[0]
	return &core.ResolvedVideo{
		YouTubeID: item.Snippet.ResourceID.VideoID,
		Title:     item.Snippet.Title,
		Thumbnail: item.Snippet.Thumbnails.High.URL,
	}, nil
}

// Search runs a free-text video search capped at MaxSearchResults, then a
// batched videos call for durations, and zips the two by id. Search hits
// without a matching details item are dropped.
func (c *Client) Search(ctx context.Context, query string) ([]core.ResolvedVideo, error) {
	var searchResp searchResponse
	if err := c.get(ctx, "/search", url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {fmt.Sprintf("%d", MaxSearchResults)},
		"q":          {query},
	}, &searchResp); err != nil {
		return nil, err
	}
	if len(searchResp.Items) == 0 {
		return []core.ResolvedVideo{}, nil
	}

	ids := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}

	var detailsResp videosResponse
	if err := c.get(ctx, "/videos", url.Values{
		"part": {"contentDetails,snippet"},
		"id":   {strings.Join(ids, ",")},
	}, &detailsResp); err != nil {
		return nil, err
	}

	details := make(map[string]videoItem, len(detailsResp.Items))
	for _, item := range detailsResp.Items {
		details[item.ID] = item
	}

	results := make([]core.ResolvedVideo, 0, len(ids))
	for _, id := range ids {
		item, ok := details[id]
		if !ok {
			c.logger.Debug("Dropping search hit without details", zap.String("video_id", id))
			continue
		}
		results = append(results, core.ResolvedVideo{
			YouTubeID: item.ID,
			Title:     item.Snippet.Title,
			Duration:  item.ContentDetails.Duration,
			Thumbnail: item.Snippet.Thumbnails.High.URL,
		})
	}
	return results, nil
}

// Thumbnail fetches just the high-resolution thumbnail URL for a video id,
// or an empty string if the video has none.
func (c *Client) Thumbnail(ctx context.Context, videoID string) (string, error) {
	if cached, ok := c.cache.Get(videoID); ok {
		return cached.Thumbnail, nil
	}

	var resp videosResponse
	if err := c.get(ctx, "/videos", url.Values{
		"part": {"snippet"},
		"id":   {videoID},
	}, &resp); err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Snippet.Thumbnails.High.URL, nil
}

// CheckCredential reports whether the client can reach the API at all.
// Batch callers use it to reject a whole request up front instead of
// skipping every entry.
func (c *Client) CheckCredential() error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: YouTube API key not set", core.ErrUpstreamUnavailable)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.CheckCredential(); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	params.Set("key", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: YouTube API returned status %d", core.ErrUpstreamUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode YouTube API response: %w", err)
	}
	return nil
}
