package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
)

// Callback payload prefixes. The payload never carries a URL; Telegram caps
// callback data at 64 bytes and the URL lives in the pending selection.
const (
	callbackPrefixQuality = string(dto.ActionYouTubeQuality) + "_"
	callbackVideo         = string(dto.ActionInstagramVideo)
	callbackAudio         = string(dto.ActionInstagramAudio)
)

// DecodeCallback turns a raw callback query into a domain request
func DecodeCallback(query *models.CallbackQuery) (*dto.CallbackRequest, error) {
	chatID, messageID, err := callbackOrigin(query)
	if err != nil {
		return nil, err
	}

	req := &dto.CallbackRequest{
		UserID:    query.From.ID,
		ChatID:    chatID,
		MessageID: messageID,
	}

	data := query.Data
	switch {
	case strings.HasPrefix(data, callbackPrefixQuality):
		itag, err := strconv.Atoi(strings.TrimPrefix(data, callbackPrefixQuality))
		if err != nil {
			return nil, fmt.Errorf("malformed quality payload %q: %w", data, err)
		}
		req.Action = dto.ActionYouTubeQuality
		req.Itag = itag
	case data == callbackVideo:
		req.Action = dto.ActionInstagramVideo
	case data == callbackAudio:
		req.Action = dto.ActionInstagramAudio
	default:
		return nil, fmt.Errorf("unknown callback payload %q", data)
	}

	return req, nil
}

// callbackOrigin extracts the chat and message the pressed menu lives in
func callbackOrigin(query *models.CallbackQuery) (int64, int, error) {
	if query.Message.Message != nil {
		return query.Message.Message.Chat.ID, query.Message.Message.ID, nil
	}
	if query.Message.InaccessibleMessage != nil {
		m := query.Message.InaccessibleMessage
		return m.Chat.ID, m.MessageID, nil
	}
	return 0, 0, fmt.Errorf("callback query without an origin message")
}
