// Package deps contains interface definitions for the download domain dependencies
package deps

import (
	"context"

	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

// TelegramSender defines interface for sending messages via Telegram.
// This interface is used to break the cyclic dependency between UseCase
// and the Telegram handlers.
type TelegramSender interface {
	// SendText sends a text message and returns the telegram message ID
	SendText(ctx context.Context, chatID int64, text string) (messageID int, err error)

	// EditText replaces the text of a previously sent message
	EditText(ctx context.Context, chatID int64, messageID int, text string) error

	// EditTextWithChoices replaces message text and attaches an inline keyboard
	EditTextWithChoices(ctx context.Context, chatID int64, messageID int, text string, choices []dto.Choice) error

	// SendPhoto uploads a local photo file
	SendPhoto(ctx context.Context, chatID int64, path string) error

	// SendVideo uploads a local video file, streamable when supported
	SendVideo(ctx context.Context, chatID int64, path string) error

	// SendAudio uploads a local audio file with a display title
	SendAudio(ctx context.Context, chatID int64, path, title string) error

	// SendAlbum uploads up to 10 media items as one grouped album
	SendAlbum(ctx context.Context, chatID int64, artifacts []entities.DownloadedArtifact) error
}

// InstagramRepository wraps Instagram content retrieval
type InstagramRepository interface {
	// DownloadPost fetches every media item of a post into temporary storage.
	// An empty result without error never happens; zero media is an error.
	DownloadPost(ctx context.Context, url string) ([]entities.DownloadedArtifact, error)

	// Cleanup deletes all backing files; never fails
	Cleanup(artifacts []entities.DownloadedArtifact)
}

// YouTubeRepository wraps YouTube content retrieval
type YouTubeRepository interface {
	// ListStreams lists combined renditions for a video URL, deduplicated by
	// resolution descending. Returns an empty map for a bare home-page link.
	ListStreams(ctx context.Context, url string) (map[string]entities.StreamOption, error)

	// Fetch downloads the rendition identified by itag, enforcing the
	// upload-size ceiling before any transfer starts
	Fetch(ctx context.Context, url string, itag int) (entities.DownloadedArtifact, error)

	// FetchShortForm downloads the best available combined rendition
	FetchShortForm(ctx context.Context, url string) (entities.DownloadedArtifact, error)

	// Cleanup deletes the backing file; never fails
	Cleanup(artifact entities.DownloadedArtifact)
}

// PendingStore keeps at most one pending selection per user.
// Put overwrites any existing entry for the same user.
type PendingStore interface {
	Put(ctx context.Context, sel *entities.PendingSelection)
	Get(ctx context.Context, userID int64) (*entities.PendingSelection, bool)
	Pop(ctx context.Context, userID int64) (*entities.PendingSelection, bool)
}

// TempStorage generates and removes temporary file paths.
// It is the sole generator of on-disk paths for downloaded media.
type TempStorage interface {
	// NewFile returns a fresh collision-free path with the given extension
	NewFile(ext string) string

	// Remove deletes a file; failures are logged, never returned
	Remove(path string)

	// FileSize returns the file size in bytes, 0 if the file does not exist
	FileSize(path string) int64
}

// AudioTranscoder extracts the audio track of a video file
type AudioTranscoder interface {
	// Extract produces an audio artifact from an existing non-empty video file
	Extract(ctx context.Context, videoPath string) (entities.DownloadedArtifact, error)
}

// DownloadEventProducer publishes download lifecycle events
type DownloadEventProducer interface {
	// DownloadCompleted publishes a successful delivery event
	DownloadCompleted(ctx context.Context, event *entities.DownloadEvent) error

	// DownloadFailed publishes a failed attempt event
	DownloadFailed(ctx context.Context, event *entities.DownloadEvent) error

	// Close closes the producer
	Close() error
}
