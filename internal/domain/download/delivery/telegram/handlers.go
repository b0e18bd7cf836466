// Package telegram contains Telegram delivery handlers
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/dto"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
	"github.com/Conte777/ClipFlow/internal/domain/download/usecase/buissines"
)

// Constants for Telegram API
const (
	RequestTimeout = 30 * time.Second
	UploadTimeout  = 5 * time.Minute
)

// Handlers contains Telegram update handlers.
// Implements deps.TelegramSender interface
type Handlers struct {
	uc     *buissines.UseCase
	bot    *tgbot.Bot
	logger zerolog.Logger
}

// NewHandlers creates new Telegram handlers
func NewHandlers(uc *buissines.UseCase, bot *tgbot.Bot, logger zerolog.Logger) *Handlers {
	return &Handlers{
		uc:     uc,
		bot:    bot,
		logger: logger,
	}
}

// SendText implements deps.TelegramSender interface
func (h *Handlers) SendText(ctx context.Context, chatID int64, text string) (int, error) {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	msg, err := h.bot.SendMessage(msgCtx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send message: %w", err)
	}
	return msg.ID, nil
}

// EditText implements deps.TelegramSender interface
func (h *Handlers) EditText(ctx context.Context, chatID int64, messageID int, text string) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// EditTextWithChoices implements deps.TelegramSender interface
func (h *Handlers) EditTextWithChoices(ctx context.Context, chatID int64, messageID int, text string, choices []dto.Choice) error {
	msgCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	rows := make([][]models.InlineKeyboardButton, 0, len(choices))
	for _, choice := range choices {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: choice.Label, CallbackData: choice.Data},
		})
	}

	_, err := h.bot.EditMessageText(msgCtx, &tgbot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
	if err != nil {
		return fmt.Errorf("failed to show selection menu: %w", err)
	}
	return nil
}

// SendPhoto implements deps.TelegramSender interface
func (h *Handlers) SendPhoto(ctx context.Context, chatID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open photo file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendPhoto(msgCtx, &tgbot.SendPhotoParams{
		ChatID: chatID,
		Photo:  &models.InputFileUpload{Filename: filepath.Base(path), Data: file},
	})
	if err != nil {
		return fmt.Errorf("failed to upload photo: %w", err)
	}
	return nil
}

// SendVideo implements deps.TelegramSender interface
func (h *Handlers) SendVideo(ctx context.Context, chatID int64, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendVideo(msgCtx, &tgbot.SendVideoParams{
		ChatID:            chatID,
		Video:             &models.InputFileUpload{Filename: filepath.Base(path), Data: file},
		SupportsStreaming: true,
	})
	if err != nil {
		return fmt.Errorf("failed to upload video: %w", err)
	}
	return nil
}

// SendAudio implements deps.TelegramSender interface
func (h *Handlers) SendAudio(ctx context.Context, chatID int64, path, title string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err = h.bot.SendAudio(msgCtx, &tgbot.SendAudioParams{
		ChatID: chatID,
		Audio:  &models.InputFileUpload{Filename: filepath.Base(path), Data: file},
		Title:  title,
	})
	if err != nil {
		return fmt.Errorf("failed to upload audio: %w", err)
	}
	return nil
}

// SendAlbum implements deps.TelegramSender interface.
// Callers chunk to the Telegram media-group limit before calling.
func (h *Handlers) SendAlbum(ctx context.Context, chatID int64, artifacts []entities.DownloadedArtifact) error {
	media := make([]models.InputMedia, 0, len(artifacts))
	files := make([]*os.File, 0, len(artifacts))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for i, artifact := range artifacts {
		file, err := os.Open(artifact.Path)
		if err != nil {
			return fmt.Errorf("failed to open media file: %w", err)
		}
		files = append(files, file)

		attachName := fmt.Sprintf("media-%d%s", i, filepath.Ext(artifact.Path))
		if artifact.Kind == entities.MediaVideo {
			media = append(media, &models.InputMediaVideo{
				Media:           "attach://" + attachName,
				MediaAttachment: file,
			})
		} else {
			media = append(media, &models.InputMediaPhoto{
				Media:           "attach://" + attachName,
				MediaAttachment: file,
			})
		}
	}

	msgCtx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	_, err := h.bot.SendMediaGroup(msgCtx, &tgbot.SendMediaGroupParams{
		ChatID: chatID,
		Media:  media,
	})
	if err != nil {
		return fmt.Errorf("failed to upload media group: %w", err)
	}
	return nil
}

// HandleStart handles /start command
func (h *Handlers) HandleStart(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	req := incomingMessage(update)
	if req == nil {
		return
	}

	resp, err := h.uc.HandleStart(ctx, req)
	if err != nil {
		h.logError(req.UserID, "/start", err)
		return
	}
	h.sendResponse(ctx, req.ChatID, resp.Message)
}

// HandleHelp handles /help command
func (h *Handlers) HandleHelp(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	req := incomingMessage(update)
	if req == nil {
		return
	}

	resp, err := h.uc.HandleHelp(ctx)
	if err != nil {
		h.logError(req.UserID, "/help", err)
		return
	}
	h.sendResponse(ctx, req.ChatID, resp.Message)
}

// HandleAbout handles /about command
func (h *Handlers) HandleAbout(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	req := incomingMessage(update)
	if req == nil {
		return
	}

	resp, err := h.uc.HandleAbout(ctx)
	if err != nil {
		h.logError(req.UserID, "/about", err)
		return
	}
	h.sendResponse(ctx, req.ChatID, resp.Message)
}

// HandleTextMessage handles free-form messages carrying a link
func (h *Handlers) HandleTextMessage(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	req := incomingMessage(update)
	if req == nil {
		return
	}

	h.logger.Debug().Int64("user_id", req.UserID).Msg("Processing text message")
	h.uc.HandleMessage(ctx, req)
}

// HandleCallbackQuery handles button presses on selection menus
func (h *Handlers) HandleCallbackQuery(ctx context.Context, bot *tgbot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	// Acknowledge first so the client stops the spinner
	_, err := bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	})
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to answer callback query")
	}

	req, err := DecodeCallback(query)
	if err != nil {
		h.logger.Warn().Err(err).Str("data", query.Data).Msg("Undecodable callback payload")
		return
	}

	h.uc.HandleCallback(ctx, req)
}

func incomingMessage(update *models.Update) *dto.IncomingMessage {
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	return &dto.IncomingMessage{
		UserID: update.Message.From.ID,
		ChatID: update.Message.Chat.ID,
		Text:   update.Message.Text,
	}
}

func (h *Handlers) sendResponse(ctx context.Context, chatID int64, text string) {
	if _, err := h.SendText(ctx, chatID, text); err != nil {
		h.logger.Error().Int64("chat_id", chatID).Err(err).Msg("Failed to send Telegram response")
	}
}

func (h *Handlers) logError(userID int64, command string, err error) {
	h.logger.Error().Err(err).Int64("user_id", userID).Str("command", command).Msg("Command handling failed")
}
