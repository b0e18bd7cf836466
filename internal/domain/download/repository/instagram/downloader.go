package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	domainerrors "github.com/Conte777/ClipFlow/internal/domain/download/errors"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	requestTimeout = 45 * time.Second
)

var (
	shortcodePattern = regexp.MustCompile(`instagram\.com/(?:p|reel|reels|tv)/([\w-]+)`)
	storyPattern     = regexp.MustCompile(`instagram\.com/stories/([\w.]+)/(\d+)`)
)

// mediaItem is one downloadable asset of a post, in carousel order
type mediaItem struct {
	URL  string
	Kind entities.MediaKind
}

// metadataStrategy resolves the media items of a post. Strategies are tried
// in order; the first one returning items wins.
type metadataStrategy struct {
	name    string
	resolve func(ctx context.Context, shortcode string) ([]mediaItem, error)
}

// Downloader implements deps.InstagramRepository
type Downloader struct {
	storage deps.TempStorage
	http    *http.Client
	logger  zerolog.Logger
}

func NewDownloader(storage deps.TempStorage, logger zerolog.Logger) *Downloader {
	return &Downloader{
		storage: storage,
		http:    &http.Client{Timeout: requestTimeout},
		logger:  logger,
	}
}

// Shortcode extracts the post identifier from an Instagram URL. Story links
// yield a synthetic "stories/<user>/<id>" identifier.
func Shortcode(raw string) (string, bool) {
	if m := shortcodePattern.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := storyPattern.FindStringSubmatch(raw); m != nil {
		return "stories/" + m[1] + "/" + m[2], true
	}
	return "", false
}

// DownloadPost resolves a post's media and downloads every item into temp
// storage, preserving carousel order. Partial results are cleaned up on error.
func (d *Downloader) DownloadPost(ctx context.Context, rawURL string) ([]entities.DownloadedArtifact, error) {
	shortcode, ok := Shortcode(rawURL)
	if !ok {
		return nil, domainerrors.ErrIdentifierNotFound
	}

	items, err := d.resolveMedia(ctx, shortcode)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domainerrors.ErrEmptyResult
	}

	artifacts := make([]entities.DownloadedArtifact, 0, len(items))
	for _, item := range items {
		artifact, err := d.downloadItem(ctx, item)
		if err != nil {
			d.Cleanup(artifacts)
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	d.logger.Info().Str("shortcode", shortcode).Int("count", len(artifacts)).Msg("Post downloaded")
	return artifacts, nil
}

// Cleanup deletes the backing files; never fails
func (d *Downloader) Cleanup(artifacts []entities.DownloadedArtifact) {
	for _, artifact := range artifacts {
		d.storage.Remove(artifact.Path)
	}
}

func (d *Downloader) resolveMedia(ctx context.Context, shortcode string) ([]mediaItem, error) {
	strategies := []metadataStrategy{
		{name: "json-endpoint", resolve: d.resolveViaJSON},
		{name: "embed-scrape", resolve: d.resolveViaEmbed},
	}

	var lastErr error
	for _, strategy := range strategies {
		items, err := strategy.resolve(ctx, shortcode)
		if err != nil {
			// An access-denied or rate-limited verdict is authoritative
			if pkgerrors.IsAccessDenied(err) || pkgerrors.IsRateLimited(err) {
				return nil, err
			}
			d.logger.Warn().Err(err).Str("strategy", strategy.name).Str("shortcode", shortcode).Msg("Metadata strategy failed")
			lastErr = err
			continue
		}
		if len(items) == 0 {
			d.logger.Warn().Str("strategy", strategy.name).Str("shortcode", shortcode).Msg("Metadata strategy found no media")
			continue
		}
		return items, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, domainerrors.ErrEmptyResult
}

// graphMedia mirrors the relevant slice of the public post JSON
type graphMedia struct {
	Typename   string `json:"__typename"`
	DisplayURL string `json:"display_url"`
	VideoURL   string `json:"video_url"`
	IsVideo    bool   `json:"is_video"`
	Sidecar    struct {
		Edges []struct {
			Node graphMedia `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`
}

// resolveViaJSON hits the public post JSON endpoint
func (d *Downloader) resolveViaJSON(ctx context.Context, shortcode string) ([]mediaItem, error) {
	if strings.HasPrefix(shortcode, "stories/") {
		// Story JSON requires a session, let the embed strategy try
		return nil, nil
	}

	endpoint := fmt.Sprintf("https://www.instagram.com/p/%s/?__a=1&__d=dis", url.PathEscape(shortcode))

	body, err := d.get(ctx, endpoint, "application/json")
	if err != nil {
		return nil, err
	}

	var payload struct {
		GraphQL struct {
			ShortcodeMedia graphMedia `json:"shortcode_media"`
		} `json:"graphql"`
		Items []struct {
			VideoVersions []struct {
				URL string `json:"url"`
			} `json:"video_versions"`
			ImageVersions struct {
				Candidates []struct {
					URL string `json:"url"`
				} `json:"candidates"`
			} `json:"image_versions2"`
			CarouselMedia []struct {
				VideoVersions []struct {
					URL string `json:"url"`
				} `json:"video_versions"`
				ImageVersions struct {
					Candidates []struct {
						URL string `json:"url"`
					} `json:"candidates"`
				} `json:"image_versions2"`
			} `json:"carousel_media"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.NewInternal("unexpected post JSON shape", err)
	}

	if items := flattenGraph(payload.GraphQL.ShortcodeMedia); len(items) > 0 {
		return items, nil
	}

	// Newer responses carry an items array instead of the graphql envelope
	var items []mediaItem
	for _, entry := range payload.Items {
		if len(entry.CarouselMedia) > 0 {
			for _, child := range entry.CarouselMedia {
				if len(child.VideoVersions) > 0 {
					items = append(items, mediaItem{URL: child.VideoVersions[0].URL, Kind: entities.MediaVideo})
				} else if len(child.ImageVersions.Candidates) > 0 {
					items = append(items, mediaItem{URL: child.ImageVersions.Candidates[0].URL, Kind: entities.MediaPhoto})
				}
			}
			continue
		}
		if len(entry.VideoVersions) > 0 {
			items = append(items, mediaItem{URL: entry.VideoVersions[0].URL, Kind: entities.MediaVideo})
		} else if len(entry.ImageVersions.Candidates) > 0 {
			items = append(items, mediaItem{URL: entry.ImageVersions.Candidates[0].URL, Kind: entities.MediaPhoto})
		}
	}
	return items, nil
}

func flattenGraph(media graphMedia) []mediaItem {
	if len(media.Sidecar.Edges) > 0 {
		var items []mediaItem
		for _, edge := range media.Sidecar.Edges {
			items = append(items, flattenGraph(edge.Node)...)
		}
		return items
	}

	switch {
	case media.IsVideo && media.VideoURL != "":
		return []mediaItem{{URL: media.VideoURL, Kind: entities.MediaVideo}}
	case media.DisplayURL != "":
		return []mediaItem{{URL: media.DisplayURL, Kind: entities.MediaPhoto}}
	}
	return nil
}

func (d *Downloader) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to create metadata request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, classifyTransferError(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransferError(err)
	}
	return body, nil
}

func (d *Downloader) downloadItem(ctx context.Context, item mediaItem) (entities.DownloadedArtifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, item.URL, nil)
	if err != nil {
		return entities.DownloadedArtifact{}, pkgerrors.NewInternal("failed to create media request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return entities.DownloadedArtifact{}, classifyTransferError(err)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp.StatusCode); err != nil {
		return entities.DownloadedArtifact{}, err
	}

	ext := ".jpg"
	if item.Kind == entities.MediaVideo {
		ext = ".mp4"
	}

	path := d.storage.NewFile(ext)
	out, err := os.Create(path)
	if err != nil {
		return entities.DownloadedArtifact{}, pkgerrors.NewInternal("failed to create temp file", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		d.storage.Remove(path)
		return entities.DownloadedArtifact{}, classifyTransferError(err)
	}
	if closeErr != nil {
		d.storage.Remove(path)
		return entities.DownloadedArtifact{}, pkgerrors.NewInternal("failed to finalize temp file", closeErr)
	}

	return entities.DownloadedArtifact{Path: path, Kind: item.Kind, Size: written}, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return pkgerrors.NewRateLimited("content source is throttling", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return pkgerrors.NewAccessDenied("content requires an authorized session", nil)
	case status == http.StatusNotFound || status == http.StatusGone:
		return pkgerrors.NewNotFound("post does not exist or was removed")
	default:
		return pkgerrors.NewInternal(fmt.Sprintf("metadata request returned status %d", status), nil)
	}
}

// classifyTransferError maps connection-class failures to the network kind
// and recognizes throttling and private-account phrasings in error text
func classifyTransferError(err error) error {
	msg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"):
		return pkgerrors.NewRateLimited("content source is throttling", err)
	case strings.Contains(msg, "private"), strings.Contains(msg, "login required"):
		return pkgerrors.NewAccessDenied("content belongs to a private account", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return pkgerrors.NewNetwork("network failure during transfer", err)
	}
	if strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") {
		return pkgerrors.NewNetwork("network failure during transfer", err)
	}

	return pkgerrors.NewInternal("transfer failed", err)
}
