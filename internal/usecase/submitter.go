package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/horde"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// HordeAPI is the subset of the Horde REST API the pipeline consumes.
type HordeAPI interface {
	GenerateAsync(ctx context.Context, req horde.GenerationRequest) (*horde.AsyncResponse, error)
	CheckGeneration(ctx context.Context, id string) (*horde.CheckResponse, error)
	GenerationStatus(ctx context.Context, id string) (*horde.StatusResponse, error)
	FindUser(ctx context.Context) (*horde.UserResponse, error)
}

// JobSubmitter sends a generation request once and returns the job handle.
type JobSubmitter struct {
	api HordeAPI
}

func NewJobSubmitter(api HordeAPI) *JobSubmitter {
	return &JobSubmitter{api: api}
}

func (s *JobSubmitter) Submit(ctx context.Context, req horde.GenerationRequest) (domain.JobHandle, error) {
	resp, err := s.api.GenerateAsync(ctx, req)
	if err != nil {
		metrics.JobsSubmitted.WithLabelValues("error").Inc()
		return "", fmt.Errorf("submit generation: %w", err)
	}

	if resp.ID == nil || strings.TrimSpace(*resp.ID) == "" {
		metrics.JobsSubmitted.WithLabelValues("rejected").Inc()
		zlog.Logger.Warn().Str("message", resp.Message).Msg("horde accepted request without a job id")
		return "", domain.ErrJobRejected
	}

	metrics.JobsSubmitted.WithLabelValues("accepted").Inc()
	zlog.Logger.Info().
		Str("job_id", *resp.ID).
		Float64("kudos", resp.Kudos).
		Msg("generation submitted")

	return domain.JobHandle(*resp.ID), nil
}
