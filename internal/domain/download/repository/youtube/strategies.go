package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

const (
	ytdlpTimeout  = 5 * time.Minute
	mirrorTimeout = time.Minute
)

// fallbackStrategy is one alternate retrieval strategy. It returns the path
// of the produced file; the driver decides whether the result is usable.
type fallbackStrategy struct {
	name string
	run  func(ctx context.Context, rawURL, videoID string) (string, error)
}

// runFallbackLadder tries the alternate strategies in order and returns the
// first existing non-empty output. Empty string means everything failed.
func (d *Downloader) runFallbackLadder(ctx context.Context, rawURL, videoID string) string {
	ladder := []fallbackStrategy{
		{name: "adaptive-mux", run: d.adaptiveMuxStrategy},
		{name: "yt-dlp", run: d.ytdlpStrategy},
		{name: "mirror-api", run: d.mirrorStrategy},
	}

	for _, strategy := range ladder {
		path, err := strategy.run(ctx, rawURL, videoID)
		if err != nil {
			d.logger.Warn().Err(err).Str("strategy", strategy.name).Str("video_id", videoID).Msg("Fallback strategy failed")
			d.storage.Remove(path)
			continue
		}
		if d.storage.FileSize(path) == 0 {
			d.logger.Warn().Str("strategy", strategy.name).Str("video_id", videoID).Msg("Fallback strategy produced no output")
			d.storage.Remove(path)
			continue
		}

		d.logger.Info().Str("strategy", strategy.name).Str("video_id", videoID).Msg("Fallback strategy succeeded")
		return path
	}

	return ""
}

// adaptiveMuxStrategy re-resolves the video, downloads the best adaptive
// video-only and audio-only pair and muxes them into one mp4 locally
func (d *Downloader) adaptiveMuxStrategy(ctx context.Context, _, videoID string) (string, error) {
	resp, err := d.client.player(ctx, videoID, clientAndroid)
	if err != nil {
		return "", err
	}
	return d.muxAdaptive(ctx, resp, nil)
}

// muxAdaptive downloads an adaptive video+audio rendition pair and combines
// them into a single container with ffmpeg. When video is non-nil that
// rendition is used for the video track, otherwise the best one under the
// ceiling is picked.
func (d *Downloader) muxAdaptive(ctx context.Context, resp *playerResponse, video *format) (string, error) {
	adaptive := resp.StreamingData.AdaptiveFormats

	if video == nil {
		videoOnly := filterFormats(adaptive, func(f format) bool {
			return f.HasVideo() && !f.HasAudio() && strings.HasPrefix(f.MimeType, "video/mp4")
		})
		sortByHeightDesc(videoOnly)
		for i := range videoOnly {
			if size := videoOnly[i].Size(); size > 0 && size >= d.maxUpload {
				continue
			}
			video = &videoOnly[i]
			break
		}
	}
	if video == nil {
		return "", pkgerrors.NewEmptyResult("no adaptive video rendition available")
	}

	var audio *format
	audioOnly := filterFormats(adaptive, func(f format) bool {
		return !f.HasVideo() && strings.HasPrefix(f.MimeType, "audio/mp4")
	})
	for i := range audioOnly {
		if audio == nil || audioOnly[i].Bitrate > audio.Bitrate {
			audio = &audioOnly[i]
		}
	}
	if audio == nil {
		return "", pkgerrors.NewEmptyResult("no adaptive audio rendition available")
	}

	if total := video.Size() + audio.Size(); total >= d.maxUpload {
		return "", pkgerrors.NewTooLarge("muxed output would exceed upload ceiling")
	}

	videoPath, err := d.downloadToFile(ctx, video.URL, ".m4v")
	if err != nil {
		return "", err
	}
	defer d.storage.Remove(videoPath)

	audioPath, err := d.downloadToFile(ctx, audio.URL, ".m4a")
	if err != nil {
		return "", err
	}
	defer d.storage.Remove(audioPath)

	outPath := d.storage.NewFile(".mp4")

	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		outPath, "-y",
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		d.storage.Remove(outPath)
		return "", pkgerrors.NewInternal("ffmpeg mux failed: "+firstLine(stderr.String()), err)
	}

	return outPath, nil
}

// ytdlpStrategy shells out to the yt-dlp external extraction tool
func (d *Downloader) ytdlpStrategy(ctx context.Context, rawURL, _ string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, ytdlpTimeout)
	defer cancel()

	outPath := d.storage.NewFile(".mp4")

	cmd := exec.CommandContext(cmdCtx, d.ytdlpPath,
		"-f", "mp4/best",
		"--no-playlist",
		"--max-filesize", fmt.Sprintf("%d", d.maxUpload),
		"-q", "--no-warnings", "--no-progress",
		"-o", outPath,
		rawURL,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		d.storage.Remove(outPath)
		return "", pkgerrors.NewInternal("yt-dlp failed: "+firstLine(stderr.String()), err)
	}

	return outPath, nil
}

// mirrorStrategy asks a public mirror API to resolve a direct download link
func (d *Downloader) mirrorStrategy(ctx context.Context, rawURL, _ string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return "", pkgerrors.NewInternal("failed to encode mirror request", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, d.mirrorURL, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.NewInternal("failed to create mirror request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return "", classifyTransferError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.NewInternal(fmt.Sprintf("mirror API returned status %d", resp.StatusCode), nil)
	}

	var mirror struct {
		Status string `json:"status"`
		URL    string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&mirror); err != nil {
		return "", pkgerrors.NewInternal("failed to decode mirror response", err)
	}
	if mirror.URL == "" {
		return "", pkgerrors.NewEmptyResult("mirror API returned no direct link")
	}

	return d.downloadToFile(reqCtx, mirror.URL, ".mp4")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
