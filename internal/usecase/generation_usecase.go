package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/horde"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// GenerationUsecase runs submit, poll and fetch as one operation per request.
type GenerationUsecase struct {
	api           HordeAPI
	submitter     *JobSubmitter
	poller        *Poller
	fetcher       *ResultFetcher
	codec         ImageCodec
	defaultModels []string
}

func NewGenerationUsecase(
	api HordeAPI,
	status StatusSink,
	fetcher *ResultFetcher,
	codec ImageCodec,
	pollInterval time.Duration,
	defaultModels []string,
) *GenerationUsecase {
	return &GenerationUsecase{
		api:           api,
		submitter:     NewJobSubmitter(api),
		poller:        NewPoller(api, status, pollInterval),
		fetcher:       fetcher,
		codec:         codec,
		defaultModels: defaultModels,
	}
}

func (u *GenerationUsecase) TextToImage(ctx context.Context, payload domain.TextToImagePayload) (*domain.GenerationResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	req := textToImageRequest(payload, u.defaultModels)
	return u.run(ctx, domain.KindTextToImage, req, func(image string, asset Asset) *domain.GenerationResult {
		return textToImageResult(payload, image, asset)
	})
}

func (u *GenerationUsecase) ImageToImage(ctx context.Context, payload domain.ImageToImagePayload) (*domain.GenerationResult, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	source, err := u.codec.PrepareSource(payload.Base64Image, payload.Width, payload.Height)
	if err != nil {
		return nil, err
	}

	req := imageToImageRequest(payload, source, u.defaultModels)
	return u.run(ctx, domain.KindImageToImage, req, func(image string, asset Asset) *domain.GenerationResult {
		return imageToImageResult(payload, image, asset)
	})
}

// ValidateAPIKey reports whether the configured key belongs to a Horde user.
// Every failure counts as invalid.
func (u *GenerationUsecase) ValidateAPIKey(ctx context.Context) bool {
	user, err := u.api.FindUser(ctx)
	if err != nil {
		zlog.Logger.Warn().Err(err).Msg("api key validation failed")
		return false
	}
	return user.ID != nil
}

func (u *GenerationUsecase) run(
	ctx context.Context,
	kind domain.GenerationKind,
	req horde.GenerationRequest,
	mapResult func(image string, asset Asset) *domain.GenerationResult,
) (result *domain.GenerationResult, err error) {
	start := time.Now()
	defer func() {
		metrics.JobDuration.WithLabelValues(string(kind), resultLabel(err)).Observe(time.Since(start).Seconds())
	}()

	handle, err := u.submitter.Submit(ctx, req)
	if err != nil {
		return nil, u.fail(ctx, kind, "", err)
	}

	asset, err := u.poller.Await(ctx, handle)
	if err != nil {
		return nil, u.fail(ctx, kind, handle, err)
	}

	image, err := u.fetcher.Fetch(ctx, asset.Ref)
	if err != nil {
		return nil, u.fail(ctx, kind, handle, err)
	}

	result = mapResult(image, asset)
	result.CreatedAt = time.Now()

	zlog.Logger.Info().
		Str("job_id", string(handle)).
		Str("kind", string(kind)).
		Bool("hidden", result.Hidden).
		Dur("duration", time.Since(start)).
		Msg("generation completed")

	return result, nil
}

// fail normalises err so that a cancelled context always surfaces as ErrCancelled.
func (u *GenerationUsecase) fail(ctx context.Context, kind domain.GenerationKind, handle domain.JobHandle, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, domain.ErrCancelled) {
		err = fmt.Errorf("%w: %w", domain.ErrCancelled, ctxErr)
	}

	zlog.Logger.Error().
		Err(err).
		Str("job_id", string(handle)).
		Str("kind", string(kind)).
		Msg("generation failed")
	return err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCancelled):
		return "cancelled"
	case errors.Is(err, domain.ErrNotPossible):
		return "not_possible"
	case errors.Is(err, domain.ErrJobRejected):
		return "rejected"
	default:
		return "error"
	}
}
