package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/storage"
)

// JobUsecase stores generation requests and hands them to the worker queue.
type JobUsecase struct {
	repo    domain.GenerationRepository
	storage storage.Storage
	queue   domain.QueueService
}

func NewJobUsecase(
	repo domain.GenerationRepository,
	storage storage.Storage,
	queue domain.QueueService,
) *JobUsecase {
	return &JobUsecase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (u *JobUsecase) SubmitTextToImage(ctx context.Context, payload domain.TextToImagePayload) (*domain.Generation, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return u.submit(ctx, domain.KindTextToImage, payload)
}

func (u *JobUsecase) SubmitImageToImage(ctx context.Context, payload domain.ImageToImagePayload) (*domain.Generation, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return u.submit(ctx, domain.KindImageToImage, payload)
}

func (u *JobUsecase) submit(ctx context.Context, kind domain.GenerationKind, payload any) (*domain.Generation, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now()
	generation := &domain.Generation{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   raw,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.repo.Create(ctx, generation); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generation.ID).Msg("failed to create generation record")
		return nil, fmt.Errorf("create generation: %w", err)
	}

	if err := u.queue.PublishGenerationTask(ctx, generation.ID, kind); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", generation.ID).Msg("failed to publish generation task")
		generation.MarkAsFailed(fmt.Sprintf("failed to enqueue generation: %v", err))
		if updateErr := u.repo.Update(ctx, generation); updateErr != nil {
			zlog.Logger.Error().Err(updateErr).Str("generation_id", generation.ID).Msg("failed to mark generation as failed")
		}
		return nil, fmt.Errorf("publish generation task: %w", err)
	}

	zlog.Logger.Info().
		Str("generation_id", generation.ID).
		Str("kind", string(kind)).
		Msg("generation queued")

	return generation, nil
}

func (u *JobUsecase) GetGeneration(ctx context.Context, id string) (*domain.Generation, error) {
	return u.repo.FindByID(ctx, id)
}

// GetGenerationImage opens the stored image of a completed generation.
func (u *JobUsecase) GetGenerationImage(ctx context.Context, id string) (io.ReadCloser, string, error) {
	generation, err := u.repo.FindByID(ctx, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to find generation by ID")
		return nil, "", err
	}

	if !generation.IsCompleted() {
		zlog.Logger.Warn().Str("generation_id", id).Str("status", string(generation.Status)).Msg("generation not completed yet")
		return nil, "", domain.ErrNotCompleted
	}

	file, err := u.storage.GetResult(ctx, generation.ResultPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Str("path", generation.ResultPath).Msg("failed to get result file")
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", domain.ErrGenerationNotFound
		}
		return nil, "", fmt.Errorf("%w: %w", domain.ErrStorageFailed, err)
	}

	filename := fmt.Sprintf("%s_%s%s", generation.ID, generation.Kind, filepath.Ext(generation.ResultPath))
	return file, filename, nil
}

func (u *JobUsecase) DeleteGeneration(ctx context.Context, id string) error {
	generation, err := u.repo.FindByID(ctx, id)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to find generation for delete")
		return err
	}

	if err := u.storage.Delete(ctx, generation.ResultPath); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to delete result file")
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		zlog.Logger.Error().Err(err).Str("generation_id", id).Msg("failed to delete generation record")
		return err
	}

	zlog.Logger.Info().Str("generation_id", id).Msg("generation deleted successfully")
	return nil
}

// ListGenerations pages through generations, optionally filtered by status.
func (u *JobUsecase) ListGenerations(ctx context.Context, status domain.GenerationStatus, limit, offset int) ([]*domain.Generation, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var (
		generations []*domain.Generation
		err         error
	)
	if status != "" {
		generations, err = u.repo.FindByStatus(ctx, status, limit, offset)
	} else {
		generations, err = u.repo.List(ctx, limit, offset)
	}
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list generations")
		return nil, err
	}
	return generations, nil
}
