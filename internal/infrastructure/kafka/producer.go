package kafka

import (
	"context"
	"encoding/json"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/config"
	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/dto"
	"github.com/yokitheyo/hordegen/internal/retry"
)

type Producer struct {
	client *wbfkafka.Producer
	topic  string
}

func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return &Producer{
		client: client,
		topic:  cfg.Topic,
	}
}

// SendWithRetry publishes task keyed by generation id so redeliveries stay ordered per generation.
func (p *Producer) SendWithRetry(ctx context.Context, task dto.GenerationTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("generation_id", task.GenerationID).
			Msg("Failed to marshal task")
		return err
	}
	if err := p.client.SendWithRetry(ctx, retry.DefaultStrategy, []byte(task.GenerationID), data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("generation_id", task.GenerationID).
			Str("kind", task.Kind).
			Msg("Failed to send Kafka message with retry")
		return err
	}
	zlog.Logger.Info().
		Str("generation_id", task.GenerationID).
		Str("kind", task.Kind).
		Msg("Message sent to Kafka")
	return nil
}

func (p *Producer) PublishGenerationTask(ctx context.Context, generationID string, kind domain.GenerationKind) error {
	return p.SendWithRetry(ctx, dto.GenerationTask{
		GenerationID: generationID,
		Kind:         string(kind),
	})
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
