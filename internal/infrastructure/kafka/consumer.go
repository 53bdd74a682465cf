package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/config"
	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/dto"
	"github.com/yokitheyo/hordegen/internal/retry"
)

type MessageHandler func(ctx context.Context, task *dto.GenerationTask) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) *Consumer {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (wbf)")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}
}

// Start fetches tasks until ctx is done. A message is committed only after its
// handler succeeds; malformed messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.client.FetchWithRetry(ctx, retry.DefaultStrategy)
		if err != nil {
			if ctx.Err() != nil {
				zlog.Logger.Info().Msg("Kafka consumer stopped")
				return nil
			}
			zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
			time.Sleep(time.Second)
			continue
		}

		task, ok := decodeTask(msg.Value)
		if !ok {
			continue
		}

		zlog.Logger.Info().
			Str("generation_id", task.GenerationID).
			Str("kind", task.Kind).
			Msg("Received new Kafka task")

		if err := c.handler(ctx, task); err != nil {
			zlog.Logger.Error().
				Err(err).
				Str("generation_id", task.GenerationID).
				Str("kind", task.Kind).
				Msg("Task processing failed")
			continue
		}

		if err := c.client.Commit(ctx, msg); err != nil {
			zlog.Logger.Error().
				Err(err).
				Str("generation_id", task.GenerationID).
				Msg("Failed to commit message")
			continue
		}

		zlog.Logger.Info().
			Str("generation_id", task.GenerationID).
			Msg("Task processed and committed successfully")
	}
}

func decodeTask(value []byte) (*dto.GenerationTask, bool) {
	var task dto.GenerationTask
	if err := json.Unmarshal(value, &task); err != nil {
		zlog.Logger.Error().
			Err(err).
			Bytes("msg", value).
			Msg("Failed to unmarshal message")
		return nil, false
	}

	if task.GenerationID == "" || !domain.GenerationKind(task.Kind).Valid() {
		zlog.Logger.Error().
			Str("generation_id", task.GenerationID).
			Str("kind", task.Kind).
			Msg("Invalid task: empty GenerationID or unknown Kind")
		return nil, false
	}

	return &task, true
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
