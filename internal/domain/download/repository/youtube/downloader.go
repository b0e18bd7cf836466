package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/config"
	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
	sizefmt "github.com/Conte777/ClipFlow/pkg/format"
)

const (
	userAgent = "Mozilla/5.0 (Linux; Android 14) gzip"

	// extra video-only entries offered when no progressive rendition exists
	maxVideoOnlyOptions = 3
)

// Downloader implements deps.YouTubeRepository
type Downloader struct {
	client     *client
	storage    deps.TempStorage
	http       *http.Client
	maxUpload  int64
	ffmpegPath string
	ytdlpPath  string
	mirrorURL  string
	logger     zerolog.Logger
}

// NewDownloader creates a YouTube downloader
func NewDownloader(cfg *config.DownloadConfig, storage deps.TempStorage, logger zerolog.Logger) *Downloader {
	return &Downloader{
		client:     newClient(logger),
		storage:    storage,
		http:       &http.Client{}, // no global timeout, large downloads are context-bound
		maxUpload:  cfg.MaxUploadSize,
		ffmpegPath: cfg.FFmpegPath,
		ytdlpPath:  cfg.YtDlpPath,
		mirrorURL:  cfg.MirrorAPIURL,
		logger:     logger,
	}
}

// VideoID extracts the video identifier from a YouTube URL.
// Returns empty string for a bare home-page link.
func VideoID(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")

	if host == "youtu.be" {
		return firstSegmentAfter(parsed.EscapedPath(), "/")
	}

	if host != "youtube.com" {
		return ""
	}

	path := parsed.EscapedPath()
	switch {
	case strings.Contains(path, "/watch"):
		return parsed.Query().Get("v")
	case strings.Contains(path, "/shorts/"):
		return firstSegmentAfter(path, "/shorts/")
	case strings.Contains(path, "/embed/"):
		return firstSegmentAfter(path, "/embed/")
	case strings.Contains(path, "/v/"):
		return firstSegmentAfter(path, "/v/")
	}

	return ""
}

func firstSegmentAfter(path, marker string) string {
	idx := strings.Index(path, marker)
	if idx < 0 {
		return ""
	}
	rest := path[idx+len(marker):]
	if cut := strings.IndexAny(rest, "/?"); cut >= 0 {
		rest = rest[:cut]
	}
	return rest
}

// ListStreams lists combined renditions for a video, deduplicated by
// resolution in descending order. An empty map (no error) means the URL
// carried no video identifier.
func (d *Downloader) ListStreams(ctx context.Context, rawURL string) (map[string]entities.StreamOption, error) {
	videoID := VideoID(rawURL)
	if videoID == "" {
		d.logger.Warn().Str("url", rawURL).Msg("URL carries no video identifier")
		return map[string]entities.StreamOption{}, nil
	}

	resp, err := d.client.player(ctx, videoID, clientAndroid)
	if err != nil {
		// Secondary metadata-listing strategy before giving up
		d.logger.Warn().Err(err).Str("video_id", videoID).Msg("Primary stream listing failed, trying web client")
		resp, err = d.client.player(ctx, videoID, clientWeb)
		if err != nil {
			return nil, err
		}
	}

	options := d.buildStreamOptions(resp.StreamingData.Formats, resp.StreamingData.AdaptiveFormats)

	d.logger.Info().Str("video_id", videoID).Int("count", len(options)).Msg("Stream options listed")
	return options, nil
}

// buildStreamOptions selects progressive mp4 renditions ordered by resolution
// descending, keeping the first-seen entry per resolution. When no progressive
// rendition exists, up to three video-only renditions below the upload ceiling
// are offered instead.
func (d *Downloader) buildStreamOptions(formats, adaptive []format) map[string]entities.StreamOption {
	options := make(map[string]entities.StreamOption)

	progressive := filterFormats(formats, func(f format) bool { return f.IsProgressiveMP4() })
	sortByHeightDesc(progressive)

	seen := make(map[string]bool)
	for _, f := range progressive {
		res := resolutionLabel(f)
		if seen[res] {
			continue
		}
		seen[res] = true

		label := fmt.Sprintf("%s (%s)", res, sizefmt.Size(f.Size()))
		options[label] = entities.StreamOption{
			Label:      label,
			Itag:       f.Itag,
			Resolution: res,
			Size:       f.Size(),
		}
	}

	if len(options) > 0 {
		return options
	}

	// No combined rendition at all: offer a few high-resolution video-only
	// renditions, each strictly under the ceiling (they get muxed on fetch)
	videoOnly := filterFormats(adaptive, func(f format) bool {
		return f.HasVideo() && !f.HasAudio() && strings.HasPrefix(f.MimeType, "video/mp4")
	})
	sortByHeightDesc(videoOnly)

	for _, f := range videoOnly {
		if len(options) >= maxVideoOnlyOptions {
			break
		}
		if f.Size() == 0 || f.Size() >= d.maxUpload {
			continue
		}
		res := resolutionLabel(f)
		if seen[res] {
			continue
		}
		seen[res] = true

		label := fmt.Sprintf("%s (%s, muxed)", res, sizefmt.Size(f.Size()))
		options[label] = entities.StreamOption{
			Label:      label,
			Itag:       f.Itag,
			Resolution: res,
			Size:       f.Size(),
		}
	}

	return options
}

// Fetch downloads the rendition identified by itag. The upload ceiling is
// enforced before any transfer. On primary failure the fallback ladder runs:
// adaptive mux, then yt-dlp, then the public mirror API.
func (d *Downloader) Fetch(ctx context.Context, rawURL string, itag int) (entities.DownloadedArtifact, error) {
	videoID := VideoID(rawURL)
	if videoID == "" {
		return entities.DownloadedArtifact{}, pkgerrors.NewNotFound("no video identifier in URL")
	}

	resp, err := d.client.player(ctx, videoID, clientAndroid)
	if err != nil {
		return entities.DownloadedArtifact{}, err
	}

	chosen, ok := findByItag(resp, itag)
	if !ok {
		return entities.DownloadedArtifact{}, pkgerrors.NewNotFound(fmt.Sprintf("no rendition with itag %d", itag))
	}

	// Ceiling check short-circuits before the transfer starts. A file
	// exactly at the ceiling is rejected because of upload overhead.
	if size := chosen.Size(); size > 0 && size >= d.maxUpload {
		d.logger.Warn().
			Str("video_id", videoID).
			Int("itag", itag).
			Int64("size", size).
			Msg("Rendition exceeds upload ceiling")
		return entities.DownloadedArtifact{}, pkgerrors.NewTooLarge("rendition exceeds upload ceiling")
	}

	var path string
	var primaryErr error
	if chosen.IsProgressiveMP4() {
		path, primaryErr = d.downloadToFile(ctx, chosen.URL, ".mp4")
	} else {
		// A video-only choice has no audio track on its own
		path, primaryErr = d.muxAdaptive(ctx, resp, &chosen)
	}

	if primaryErr != nil || d.storage.FileSize(path) == 0 {
		if primaryErr != nil {
			d.logger.Warn().Err(primaryErr).Str("video_id", videoID).Msg("Primary fetch failed, running fallback ladder")
		}
		d.storage.Remove(path)
		path = d.runFallbackLadder(ctx, rawURL, videoID)
	}

	if d.storage.FileSize(path) == 0 {
		d.storage.Remove(path)
		if primaryErr != nil {
			return entities.DownloadedArtifact{}, primaryErr
		}
		return entities.DownloadedArtifact{}, pkgerrors.NewEmptyResult("all fetch strategies exhausted")
	}

	return entities.DownloadedArtifact{
		Path: path,
		Kind: entities.MediaVideo,
		Size: d.storage.FileSize(path),
	}, nil
}

// FetchShortForm downloads the best available combined rendition without a
// user choice; short-form assets are typically small.
func (d *Downloader) FetchShortForm(ctx context.Context, rawURL string) (entities.DownloadedArtifact, error) {
	videoID := VideoID(rawURL)
	if videoID == "" {
		return entities.DownloadedArtifact{}, pkgerrors.NewNotFound("no video identifier in URL")
	}

	resp, err := d.client.player(ctx, videoID, clientAndroid)
	if err != nil {
		return entities.DownloadedArtifact{}, err
	}

	best, ok := bestProgressive(resp.StreamingData.Formats, d.maxUpload)
	var path string
	if ok {
		path, err = d.downloadToFile(ctx, best.URL, ".mp4")
		if err != nil {
			d.logger.Warn().Err(err).Str("video_id", videoID).Msg("Short-form primary fetch failed, running fallback ladder")
		}
	}

	if d.storage.FileSize(path) == 0 {
		d.storage.Remove(path)
		path = d.runFallbackLadder(ctx, rawURL, videoID)
	}

	if d.storage.FileSize(path) == 0 {
		d.storage.Remove(path)
		return entities.DownloadedArtifact{}, pkgerrors.NewEmptyResult("all fetch strategies exhausted")
	}

	return entities.DownloadedArtifact{
		Path: path,
		Kind: entities.MediaVideo,
		Size: d.storage.FileSize(path),
	}, nil
}

// Cleanup deletes the backing file; never fails
func (d *Downloader) Cleanup(artifact entities.DownloadedArtifact) {
	d.storage.Remove(artifact.Path)
}

// bestProgressive returns the highest-resolution combined rendition whose
// reported size stays under the ceiling
func bestProgressive(formats []format, ceiling int64) (format, bool) {
	progressive := filterFormats(formats, func(f format) bool { return f.IsProgressiveMP4() })
	sortByHeightDesc(progressive)

	for _, f := range progressive {
		if size := f.Size(); size > 0 && size >= ceiling {
			continue
		}
		return f, true
	}
	return format{}, false
}

func findByItag(resp *playerResponse, itag int) (format, bool) {
	for _, f := range resp.StreamingData.Formats {
		if f.Itag == itag {
			return f, true
		}
	}
	for _, f := range resp.StreamingData.AdaptiveFormats {
		if f.Itag == itag {
			return f, true
		}
	}
	return format{}, false
}

func filterFormats(formats []format, keep func(format) bool) []format {
	var out []format
	for _, f := range formats {
		if f.URL != "" && keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// sortByHeightDesc orders by pixel height descending; the sort is stable so
// ties keep their first-seen order
func sortByHeightDesc(formats []format) {
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].Height > formats[j].Height
	})
}

func resolutionLabel(f format) string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	return fmt.Sprintf("%dp", f.Height)
}

// downloadToFile streams a URL into a fresh temp file
func (d *Downloader) downloadToFile(ctx context.Context, fileURL, ext string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", pkgerrors.NewInternal("failed to create download request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.http.Do(req)
	if err != nil {
		return "", classifyTransferError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", pkgerrors.NewRateLimited("content source is throttling", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.NewInternal(fmt.Sprintf("download returned status %d", resp.StatusCode), nil)
	}
	if resp.ContentLength > 0 && resp.ContentLength >= d.maxUpload {
		return "", pkgerrors.NewTooLarge(fmt.Sprintf("file of %s exceeds the upload ceiling", sizefmt.Size(resp.ContentLength)))
	}

	path := d.storage.NewFile(ext)
	out, err := os.Create(path)
	if err != nil {
		return "", pkgerrors.NewInternal("failed to create temp file", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err != nil {
		d.storage.Remove(path)
		return "", classifyTransferError(err)
	}
	if closeErr != nil {
		d.storage.Remove(path)
		return "", pkgerrors.NewInternal("failed to finalize temp file", closeErr)
	}

	d.logger.Debug().Str("path", path).Int64("size", written).Msg("Downloaded file")
	return path, nil
}

// classifyTransferError maps connection-class failures to the network kind
func classifyTransferError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return pkgerrors.NewNetwork("network failure during transfer", err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") {
		return pkgerrors.NewNetwork("network failure during transfer", err)
	}
	return pkgerrors.NewInternal("transfer failed", err)
}
