package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/storage"
)

// ProcessorUsecase runs queued generations and records their outcome.
type ProcessorUsecase struct {
	repo       domain.GenerationRepository
	storage    storage.Storage
	generator  domain.GenerationService
	extension  string
	jobTimeout time.Duration
}

// NewProcessorUsecase creates the worker side of the generation queue.
// A zero jobTimeout leaves generations bounded only by the caller's context.
func NewProcessorUsecase(
	repo domain.GenerationRepository,
	storage storage.Storage,
	generator domain.GenerationService,
	extension string,
	jobTimeout time.Duration,
) *ProcessorUsecase {
	if extension == "" {
		extension = ".png"
	}
	return &ProcessorUsecase{
		repo:       repo,
		storage:    storage,
		generator:  generator,
		extension:  extension,
		jobTimeout: jobTimeout,
	}
}

// ProcessGeneration runs one stored generation. Failures of the generation itself are
// recorded on the record and reported as success so the task is not redelivered;
// only an interrupted worker returns an error.
func (u *ProcessorUsecase) ProcessGeneration(ctx context.Context, generationID string) error {
	generation, err := u.repo.FindByID(ctx, generationID)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generationID).Msg("failed to find generation")
		return fmt.Errorf("find generation: %w", err)
	}

	if !generation.CanBeProcessed() {
		zlog.Logger.Warn().
			Str("generation_id", generationID).
			Str("status", string(generation.Status)).
			Msg("generation cannot be processed in current status")
		return nil
	}

	generation.MarkAsProcessing()
	if err := u.repo.Update(ctx, generation); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generationID).Msg("failed to update status to processing")
		return fmt.Errorf("update status to processing: %w", err)
	}

	zlog.Logger.Info().
		Str("generation_id", generationID).
		Str("kind", string(generation.Kind)).
		Msg("starting generation")

	jobCtx, cancel := u.jobContext(ctx)
	defer cancel()

	result, err := u.generate(jobCtx, generation)
	if err == nil {
		err = u.store(ctx, generation, result)
	}
	if err != nil {
		return u.fail(ctx, generation, err)
	}

	if err := u.repo.Update(ctx, generation); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generationID).Msg("failed to update status to completed")
		return fmt.Errorf("update status to completed: %w", err)
	}

	zlog.Logger.Info().
		Str("generation_id", generationID).
		Str("result_path", generation.ResultPath).
		Int("width", generation.Width).
		Int("height", generation.Height).
		Msg("generation processed successfully")

	return nil
}

func (u *ProcessorUsecase) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.jobTimeout > 0 {
		return context.WithTimeout(ctx, u.jobTimeout)
	}
	return context.WithCancel(ctx)
}

func (u *ProcessorUsecase) generate(ctx context.Context, generation *domain.Generation) (*domain.GenerationResult, error) {
	switch generation.Kind {
	case domain.KindTextToImage:
		var payload domain.TextToImagePayload
		if err := json.Unmarshal(generation.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
		}
		return u.generator.TextToImage(ctx, payload)
	case domain.KindImageToImage:
		var payload domain.ImageToImagePayload
		if err := json.Unmarshal(generation.Payload, &payload); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
		}
		return u.generator.ImageToImage(ctx, payload)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidKind, generation.Kind)
	}
}

func (u *ProcessorUsecase) store(ctx context.Context, generation *domain.Generation, result *domain.GenerationResult) error {
	raw, err := base64.StdEncoding.DecodeString(result.Image)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrAssetDecode, err)
	}

	width, height := result.Width, result.Height
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(raw)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	path, err := u.storage.SaveResult(ctx, generation.ID+u.extension, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}

	generation.MarkAsCompleted(path, width, height, result.Seed, result.Hidden)
	return nil
}

func (u *ProcessorUsecase) fail(ctx context.Context, generation *domain.Generation, cause error) error {
	generation.MarkAsFailed(cause.Error())

	// the record must be updated even when the worker is shutting down
	if err := u.repo.Update(context.WithoutCancel(ctx), generation); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generation.ID).Msg("failed to update status to failed")
	}

	zlog.Logger.Error().
		Err(cause).
		Str("generation_id", generation.ID).
		Str("kind", string(generation.Kind)).
		Msg("generation failed")

	if ctx.Err() != nil && errors.Is(cause, domain.ErrCancelled) {
		return fmt.Errorf("generation %s interrupted: %w", generation.ID, cause)
	}
	return nil
}
