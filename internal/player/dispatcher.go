// Package player dispatches playback commands to the media-player service.
package player

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"hamusic/internal/core"
)

const (
	// RequestTimeout is the timeout for media-player service requests.
	RequestTimeout = 10 * time.Second

	turnOnPath    = "/services/media_player/turn_on"
	playMediaPath = "/services/media_player/play_media"
)

// Dispatcher issues the two-step play sequence against a fixed media-player
// device: power on first, then play. The order matters because the device
// must be on before it accepts media; neither call is retried.
type Dispatcher struct {
	baseURL  string
	token    string
	entityID string
	client   *http.Client
	logger   *zap.Logger
}

func NewDispatcher(config *core.PlayerConfig, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
		token:    config.Token,
		entityID: config.EntityID,
		client:   &http.Client{Timeout: RequestTimeout},
		logger:   logger,
	}
}

type command struct {
	EntityID         string `json:"entity_id"`
	MediaContentType string `json:"media_content_type,omitempty"`
	MediaContentID   string `json:"media_content_id,omitempty"`
}

// Play powers the device on and starts the artist's video. Fails with
// core.ErrNoVideo when the artist has no video; a non-success response from
// either downstream call is surfaced instead of optimistically reporting
// success.
func (d *Dispatcher) Play(ctx context.Context, artist *core.Artist) error {
	if artist.Video == nil {
		return fmt.Errorf("%w for artist %d", core.ErrNoVideo, artist.ID)
	}

	if err := d.post(ctx, turnOnPath, command{EntityID: d.entityID}); err != nil {
		return fmt.Errorf("power-on failed: %w", err)
	}

	mediaURI := MediaURI(artist.Video)
	if err := d.post(ctx, playMediaPath, command{
		EntityID:         d.entityID,
		MediaContentType: "url",
		MediaContentID:   mediaURI,
	}); err != nil {
		return fmt.Errorf("play-media failed: %w", err)
	}

	d.logger.Info("Dispatched playback",
		zap.Int("artist_id", artist.ID),
		zap.String("media_uri", mediaURI))
	return nil
}

// MediaURI wraps a video reference in the youtube:// scheme the player
// expects, starting from the beginning.
func MediaURI(video *core.Video) string {
	return fmt.Sprintf("youtube://%s&start=0", video.Ref())
}

func (d *Dispatcher) post(ctx context.Context, path string, cmd command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrUpstreamUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: player returned status %d for %s", core.ErrUpstreamUnavailable, resp.StatusCode, path)
	}
	return nil
}
