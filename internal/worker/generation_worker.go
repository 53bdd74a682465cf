package worker

import (
	"context"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/dto"
)

// GenerationWorker handles generation tasks from the queue.
type GenerationWorker struct {
	processorService domain.ProcessorService
}

func NewGenerationWorker(processorService domain.ProcessorService) *GenerationWorker {
	return &GenerationWorker{
		processorService: processorService,
	}
}

func (w *GenerationWorker) HandleGenerationTask(ctx context.Context, task *dto.GenerationTask) error {
	if !domain.GenerationKind(task.Kind).Valid() {
		zlog.Logger.Error().
			Str("generation_id", task.GenerationID).
			Str("kind", task.Kind).
			Msg("invalid generation kind")
		return fmt.Errorf("%w: %s", domain.ErrInvalidKind, task.Kind)
	}

	zlog.Logger.Info().
		Str("generation_id", task.GenerationID).
		Str("kind", task.Kind).
		Msg("starting generation task")

	if err := w.processorService.ProcessGeneration(ctx, task.GenerationID); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("generation_id", task.GenerationID).
			Msg("failed to process generation")
		return fmt.Errorf("process generation %s: %w", task.GenerationID, err)
	}

	return nil
}
