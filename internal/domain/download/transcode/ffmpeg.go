// Package transcode extracts audio tracks via an external ffmpeg process
package transcode

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	pkgerrors "github.com/Conte777/ClipFlow/pkg/errors"
)

const extractTimeout = 3 * time.Minute

// FFmpeg invokes the ffmpeg binary as a black box.
// Success means the process exited cleanly and the output file is non-empty.
type FFmpeg struct {
	binary  string
	storage deps.TempStorage
	logger  zerolog.Logger
}

// NewFFmpeg creates an ffmpeg-backed transcoder
func NewFFmpeg(binary string, storage deps.TempStorage, logger zerolog.Logger) *FFmpeg {
	return &FFmpeg{
		binary:  binary,
		storage: storage,
		logger:  logger,
	}
}

// Extract produces an mp3 audio artifact from an existing video file
func (f *FFmpeg) Extract(ctx context.Context, videoPath string) (entities.DownloadedArtifact, error) {
	if f.storage.FileSize(videoPath) == 0 {
		return entities.DownloadedArtifact{}, pkgerrors.NewTranscodeFailed("source video is missing or empty", nil)
	}

	audioPath := f.storage.NewFile(".mp3")

	cmdCtx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, f.binary,
		"-i", videoPath,
		"-q:a", "0", "-map", "a",
		audioPath, "-y",
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	f.logger.Info().Str("video", videoPath).Str("audio", audioPath).Msg("Extracting audio track")

	if err := cmd.Run(); err != nil {
		f.storage.Remove(audioPath)
		f.logger.Error().Err(err).Str("stderr", truncate(stderr.String(), 500)).Msg("ffmpeg failed")
		return entities.DownloadedArtifact{}, pkgerrors.NewTranscodeFailed("ffmpeg execution failed", err)
	}

	size := f.storage.FileSize(audioPath)
	if size == 0 {
		f.storage.Remove(audioPath)
		return entities.DownloadedArtifact{}, pkgerrors.NewTranscodeFailed("ffmpeg produced no output", nil)
	}

	f.logger.Info().Str("audio", audioPath).Int64("size", size).Msg("Audio extracted successfully")

	return entities.DownloadedArtifact{
		Path: audioPath,
		Kind: entities.MediaAudio,
		Size: size,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
