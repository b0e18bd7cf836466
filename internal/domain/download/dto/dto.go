// Package dto contains request/response objects for the download domain
package dto

// IncomingMessage is a free-form text message from a user
type IncomingMessage struct {
	UserID int64
	ChatID int64
	Text   string
}

// CallbackAction identifies which suspended flow branch a button press resumes
type CallbackAction string

const (
	ActionYouTubeQuality CallbackAction = "yt"
	ActionInstagramVideo CallbackAction = "igvideo"
	ActionInstagramAudio CallbackAction = "igaudio"
)

// CallbackRequest is a decoded button-press callback. The URL being acted on
// lives in the pending selection, never in the callback payload.
type CallbackRequest struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Action    CallbackAction
	Itag      int // set for ActionYouTubeQuality
}

// Choice is one button in a selection menu
type Choice struct {
	Label string
	Data  string
}

// CommandResponse is a plain text reply for a command
type CommandResponse struct {
	Message string
}
