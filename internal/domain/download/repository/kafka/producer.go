package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Conte777/ClipFlow/config"
	"github.com/Conte777/ClipFlow/internal/domain/download/deps"
	"github.com/Conte777/ClipFlow/internal/domain/download/entities"
)

const (
	topicDownloadCompleted = "downloads.completed"
	topicDownloadFailed    = "downloads.failed"
)

type Producer struct {
	producer sarama.SyncProducer
	logger   zerolog.Logger
}

// NewProducer creates a download-event producer. When no brokers are
// configured (or none are reachable) a no-op producer is returned so the bot
// keeps working without Kafka.
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) deps.DownloadEventProducer {
	if len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka brokers not configured, download events disabled")
		return &NoopProducer{}
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		logger.Warn().Err(err).Strs("brokers", cfg.Brokers).Msg("Kafka unreachable, download events disabled")
		return &NoopProducer{}
	}

	logger.Info().Strs("brokers", cfg.Brokers).Msg("Kafka producer initialized successfully")

	return &Producer{
		producer: producer,
		logger:   logger,
	}
}

func (p *Producer) DownloadCompleted(ctx context.Context, event *entities.DownloadEvent) error {
	return p.sendEvent(ctx, topicDownloadCompleted, event)
}

func (p *Producer) DownloadFailed(ctx context.Context, event *entities.DownloadEvent) error {
	return p.sendEvent(ctx, topicDownloadFailed, event)
}

func (p *Producer) sendEvent(_ context.Context, topic string, event *entities.DownloadEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("user-%d", event.UserID)),
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to send Kafka message")
		return err
	}

	p.logger.Debug().Str("topic", topic).Int32("partition", partition).Int64("offset", offset).Msg("Kafka message sent")
	return nil
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	if err := p.producer.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	p.logger.Info().Msg("Kafka producer closed")
	return nil
}

// NoopProducer drops events. Used when Kafka is not configured.
type NoopProducer struct{}

func (*NoopProducer) DownloadCompleted(context.Context, *entities.DownloadEvent) error { return nil }
func (*NoopProducer) DownloadFailed(context.Context, *entities.DownloadEvent) error    { return nil }
func (*NoopProducer) Close() error                                                    { return nil }
