// Package youtube contains the YouTube content source adapter
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

const (
	playerEndpoint = "https://www.youtube.com/youtubei/v1/player"
	requestTimeout = 30 * time.Second
)

// innertubeClient identifies which player client profile a metadata request uses.
// The android profile returns directly fetchable stream URLs; the web profile
// serves as the secondary listing strategy when android yields nothing.
type innertubeClient struct {
	Name    string
	Version string
}

var (
	clientAndroid = innertubeClient{Name: "ANDROID", Version: "19.09.37"}
	clientWeb     = innertubeClient{Name: "WEB", Version: "2.20240401.00.00"}
)

// format is one rendition reported by the player API
type format struct {
	Itag          int    `json:"itag"`
	URL           string `json:"url"`
	MimeType      string `json:"mimeType"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	ContentLength string `json:"contentLength"`
	QualityLabel  string `json:"qualityLabel"`
	AudioQuality  string `json:"audioQuality"`
	Bitrate       int    `json:"bitrate"`
}

// Size returns the reported content length in bytes, 0 when unknown
func (f format) Size() int64 {
	n, err := strconv.ParseInt(f.ContentLength, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// HasVideo reports whether the rendition carries a video track
func (f format) HasVideo() bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

// HasAudio reports whether the rendition carries an audio track
func (f format) HasAudio() bool {
	return f.AudioQuality != "" || strings.HasPrefix(f.MimeType, "audio/")
}

// IsProgressiveMP4 reports whether the rendition is a combined audio+video mp4
func (f format) IsProgressiveMP4() bool {
	return strings.HasPrefix(f.MimeType, "video/mp4") && f.HasAudio()
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	StreamingData struct {
		Formats         []format `json:"formats"`
		AdaptiveFormats []format `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
		Author  string `json:"author"`
	} `json:"videoDetails"`
}

// client queries the public player API for video metadata
type client struct {
	http   *http.Client
	logger zerolog.Logger
}

func newClient(logger zerolog.Logger) *client {
	return &client{
		http:   &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

// player fetches metadata for a video using the given client profile
func (c *client) player(ctx context.Context, videoID string, profile innertubeClient) (*playerResponse, error) {
	body := map[string]any{
		"videoId": videoID,
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    profile.Name,
				"clientVersion": profile.Version,
				"hl":            "en",
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to encode player request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to create player request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.NewNetwork("player request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, pkgerrors.NewRateLimited("player API is throttling", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.NewInternal(fmt.Sprintf("player API returned status %d", resp.StatusCode), nil)
	}

	var parsed playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, pkgerrors.NewInternal("failed to decode player response", err)
	}

	switch parsed.PlayabilityStatus.Status {
	case "", "OK":
	case "LOGIN_REQUIRED":
		return nil, pkgerrors.NewAccessDenied("video requires sign-in", nil)
	default:
		c.logger.Warn().
			Str("video_id", videoID).
			Str("status", parsed.PlayabilityStatus.Status).
			Str("reason", parsed.PlayabilityStatus.Reason).
			Msg("Video is not playable")
		return nil, pkgerrors.NewInternal("video is not playable: "+parsed.PlayabilityStatus.Reason, nil)
	}

	return &parsed, nil
}
