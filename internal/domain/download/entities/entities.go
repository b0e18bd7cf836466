// Package entities contains domain entities
package entities

import "time"

// Platform identifies a supported content platform
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// LinkKind identifies what kind of content a classified link points at
type LinkKind string

const (
	KindPost        LinkKind = "post"
	KindReelOrVideo LinkKind = "reel_or_video"
	KindShortForm   LinkKind = "short_form"
)

// ClassifiedLink is a URL extracted from free-form text together with its
// platform and content kind. Derived purely from the text, never mutated.
type ClassifiedLink struct {
	RawURL   string
	Platform Platform
	Kind     LinkKind
}

// MediaKind identifies the upload method for a downloaded file
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
)

// StreamOption is one downloadable rendition of a video
type StreamOption struct {
	Label      string `json:"label"`
	Itag       int    `json:"itag"`
	Resolution string `json:"resolution"`
	Size       int64  `json:"size"`
}

// PendingSelection remembers which URL a user is mid-selection for.
// At most one exists per user; a newer menu overwrites the older entry.
type PendingSelection struct {
	UserID          int64                   `json:"userId"`
	ChatID          int64                   `json:"chatId"`
	URL             string                  `json:"url"`
	Streams         map[string]StreamOption `json:"streams,omitempty"`
	StatusMessageID int                     `json:"statusMessageId"`
	CreatedAt       time.Time               `json:"createdAt"`
}

// DownloadedArtifact is a media file fetched into temporary storage.
// The orchestrator owns it until delivery and removes it afterwards.
type DownloadedArtifact struct {
	Path string
	Kind MediaKind
	Size int64
}

// DownloadEvent describes a finished download attempt for event publishing
type DownloadEvent struct {
	UserID      int64    `json:"user_id"`
	Platform    Platform `json:"platform"`
	Kind        LinkKind `json:"kind"`
	URL         string   `json:"url"`
	MediaCount  int      `json:"media_count,omitempty"`
	TotalBytes  int64    `json:"total_bytes,omitempty"`
	FailureKind string   `json:"failure_kind,omitempty"`
}
