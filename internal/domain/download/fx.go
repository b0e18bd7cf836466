// Package download contains the download domain module
package download

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/Conte777/ClipFlow/config"
	telegramDelivery "github.com/Conte777/ClipFlow/internal/domain/download/delivery/telegram"
	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/pending"
	instagramRepo "github.com/Conte777/ClipFlow/internal/domain/download/repository/instagram"
	kafkaRepo "github.com/Conte777/ClipFlow/internal/domain/download/repository/kafka"
	youtubeRepo "github.com/Conte777/ClipFlow/internal/domain/download/repository/youtube"
	"github.com/Conte777/ClipFlow/internal/domain/download/storage"
	"github.com/Conte777/ClipFlow/internal/domain/download/transcode"
	"github.com/Conte777/ClipFlow/internal/domain/download/usecase/buissines"
	"github.com/Conte777/ClipFlow/internal/infrastructure/telegram"
)

// Module provides download domain components for fx dependency injection
var Module = fx.Module("download",
	// Storage and stores
	fx.Provide(provideTempStorage),
	fx.Provide(providePendingStore),

	// Repositories
	fx.Provide(provideInstagramRepository),
	fx.Provide(provideYouTubeRepository),
	fx.Provide(provideEventProducer),

	// Transcoding
	fx.Provide(provideTranscoder),

	// UseCase
	fx.Provide(buissines.NewUseCase),

	// Delivery - Telegram (needs raw bot from infrastructure)
	fx.Provide(provideTelegramHandlers),
	fx.Provide(telegramDelivery.NewRouter),

	// Wire cyclic dependency and register routes
	fx.Invoke(wireAndRegister),
)

func provideTempStorage(cfg *config.DownloadConfig, logger zerolog.Logger) (deps.TempStorage, error) {
	return storage.NewManager(cfg.TempDir, logger)
}

// providePendingStore picks the backing by configuration: Redis when an
// address is set (multi-instance deployments), in-memory otherwise
func providePendingStore(cfg *config.RedisConfig, logger zerolog.Logger) deps.PendingStore {
	if cfg.Addr == "" {
		logger.Info().Msg("Using in-memory pending store")
		return pending.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	logger.Info().Str("addr", cfg.Addr).Msg("Using Redis pending store")
	return pending.NewRedisStore(client, logger)
}

func provideInstagramRepository(storage deps.TempStorage, logger zerolog.Logger) deps.InstagramRepository {
	return instagramRepo.NewDownloader(storage, logger)
}

func provideYouTubeRepository(cfg *config.DownloadConfig, storage deps.TempStorage, logger zerolog.Logger) deps.YouTubeRepository {
	return youtubeRepo.NewDownloader(cfg, storage, logger)
}

func provideEventProducer(cfg *config.KafkaConfig, logger zerolog.Logger) deps.DownloadEventProducer {
	return kafkaRepo.NewProducer(cfg, logger)
}

func provideTranscoder(cfg *config.DownloadConfig, storage deps.TempStorage, logger zerolog.Logger) deps.AudioTranscoder {
	return transcode.NewFFmpeg(cfg.FFmpegPath, storage, logger)
}

// provideTelegramHandlers creates Telegram handlers with raw bot
func provideTelegramHandlers(uc *buissines.UseCase, bot *telegram.Bot, logger zerolog.Logger) *telegramDelivery.Handlers {
	return telegramDelivery.NewHandlers(uc, bot.Raw(), logger)
}

// wireAndRegister resolves cyclic dependency and registers routes
func wireAndRegister(
	lc fx.Lifecycle,
	uc *buissines.UseCase,
	handlers *telegramDelivery.Handlers,
	router *telegramDelivery.Router,
	bot *telegram.Bot,
	producer deps.DownloadEventProducer,
) {
	// Handlers implements deps.TelegramSender interface
	// This resolves the cyclic dependency: UseCase -> TelegramSender <- Handlers -> UseCase
	uc.SetSender(handlers)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			router.RegisterRoutes(ctx, bot.Raw())
			return nil
		},
		OnStop: func(_ context.Context) error {
			return producer.Close()
		},
	})
}
