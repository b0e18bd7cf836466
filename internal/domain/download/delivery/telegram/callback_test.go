package telegram

import (
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
)

func callbackQuery(data string) *models.CallbackQuery {
	return &models.CallbackQuery{
		From: models.User{ID: 7},
		Data: data,
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{
				ID:   3,
				Chat: models.Chat{ID: 9},
			},
		},
	}
}

func TestDecodeCallback_Quality(t *testing.T) {
	req, err := DecodeCallback(callbackQuery("yt_22"))
	require.NoError(t, err)

	assert.Equal(t, dto.ActionYouTubeQuality, req.Action)
	assert.Equal(t, 22, req.Itag)
	assert.Equal(t, int64(7), req.UserID)
	assert.Equal(t, int64(9), req.ChatID)
	assert.Equal(t, 3, req.MessageID)
}

func TestDecodeCallback_InstagramBranches(t *testing.T) {
	video, err := DecodeCallback(callbackQuery("igvideo"))
	require.NoError(t, err)
	assert.Equal(t, dto.ActionInstagramVideo, video.Action)

	audio, err := DecodeCallback(callbackQuery("igaudio"))
	require.NoError(t, err)
	assert.Equal(t, dto.ActionInstagramAudio, audio.Action)
}

func TestDecodeCallback_Malformed(t *testing.T) {
	_, err := DecodeCallback(callbackQuery("yt_notanumber"))
	assert.Error(t, err)

	_, err = DecodeCallback(callbackQuery("something_else"))
	assert.Error(t, err)

	_, err = DecodeCallback(callbackQuery(""))
	assert.Error(t, err)
}

func TestDecodeCallback_InaccessibleOrigin(t *testing.T) {
	query := &models.CallbackQuery{
		From: models.User{ID: 7},
		Data: "igvideo",
		Message: models.MaybeInaccessibleMessage{
			InaccessibleMessage: &models.InaccessibleMessage{
				MessageID: 5,
				Chat:      models.Chat{ID: 11},
			},
		},
	}

	req, err := DecodeCallback(query)
	require.NoError(t, err)
	assert.Equal(t, int64(11), req.ChatID)
	assert.Equal(t, 5, req.MessageID)
}
