package telegram

import (
	"context"
	"strings"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/internal/domain/download/consts"
)

// Router registers Telegram bot handlers
type Router struct {
	handlers *Handlers
	logger   zerolog.Logger
}

// NewRouter creates new Telegram router
func NewRouter(handlers *Handlers, logger zerolog.Logger) *Router {
	return &Router{
		handlers: handlers,
		logger:   logger,
	}
}

// RegisterRoutes registers all command, callback and free-text handlers
func (r *Router) RegisterRoutes(ctx context.Context, bot *tgbot.Bot) {
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/"+consts.CommandStart.Name, tgbot.MatchTypeExact, r.handlers.HandleStart)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/"+consts.CommandHelp.Name, tgbot.MatchTypeExact, r.handlers.HandleHelp)
	bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/"+consts.CommandAbout.Name, tgbot.MatchTypeExact, r.handlers.HandleAbout)

	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackPrefixQuality, tgbot.MatchTypePrefix, r.handlers.HandleCallbackQuery)
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackVideo, tgbot.MatchTypeExact, r.handlers.HandleCallbackQuery)
	bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, callbackAudio, tgbot.MatchTypeExact, r.handlers.HandleCallbackQuery)

	bot.RegisterHandlerMatchFunc(isPlainText, r.handlers.HandleTextMessage)

	r.registerCommandMenu(ctx, bot)

	r.logger.Info().Msg("All Telegram handlers registered successfully")
}

// isPlainText matches non-command text messages
func isPlainText(update *models.Update) bool {
	return update.Message != nil &&
		update.Message.Text != "" &&
		!strings.HasPrefix(update.Message.Text, "/")
}

// registerCommandMenu publishes the command list shown in the Telegram UI
func (r *Router) registerCommandMenu(ctx context.Context, bot *tgbot.Bot) {
	commands := make([]models.BotCommand, 0, len(consts.AllCommands))
	for _, cmd := range consts.AllCommands {
		commands = append(commands, models.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	_, err := bot.SetMyCommands(ctx, &tgbot.SetMyCommandsParams{Commands: commands})
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to publish bot command menu")
	}
}
