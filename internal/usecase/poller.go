package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// DefaultPollInterval is the fixed delay between status checks of a pending job.
const DefaultPollInterval = 10 * time.Second

type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeNotPossible
	OutcomeDone
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeNotPossible:
		return "not_possible"
	case OutcomeDone:
		return "done"
	default:
		return "unknown"
	}
}

// Asset references the finished image of a done job.
type Asset struct {
	Ref      string
	Seed     string
	Censored bool
}

// PollOutcome is the classification of a single status check.
// Status is set for OutcomePending, Asset for OutcomeDone.
type PollOutcome struct {
	Kind   OutcomeKind
	Status domain.ProcessStatus
	Asset  Asset
}

// StatusSink receives queue updates for pending jobs.
type StatusSink interface {
	Update(status domain.ProcessStatus)
}

// Poller checks a job at a fixed interval until it is done or not possible.
// Pending jobs are polled without any attempt limit; bound the wait with ctx.
type Poller struct {
	api      HordeAPI
	status   StatusSink
	interval time.Duration
}

func NewPoller(api HordeAPI, status StatusSink, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{api: api, status: status, interval: interval}
}

// Check performs one poll. A done job is resolved to its first generation.
func (p *Poller) Check(ctx context.Context, handle domain.JobHandle) (PollOutcome, error) {
	resp, err := p.api.CheckGeneration(ctx, string(handle))
	if err != nil {
		metrics.PollChecks.WithLabelValues("error").Inc()
		return PollOutcome{}, fmt.Errorf("check generation %s: %w", handle, err)
	}

	if resp.IsPossible != nil && !*resp.IsPossible {
		metrics.PollChecks.WithLabelValues(OutcomeNotPossible.String()).Inc()
		return PollOutcome{Kind: OutcomeNotPossible}, nil
	}

	if resp.Done != nil && *resp.Done {
		metrics.PollChecks.WithLabelValues(OutcomeDone.String()).Inc()
		asset, err := p.resolve(ctx, handle)
		if err != nil {
			return PollOutcome{}, err
		}
		return PollOutcome{Kind: OutcomeDone, Asset: asset}, nil
	}

	metrics.PollChecks.WithLabelValues(OutcomePending.String()).Inc()
	var status domain.ProcessStatus
	if resp.WaitTime != nil {
		status.WaitTimeSeconds = *resp.WaitTime
	}
	if resp.QueuePosition != nil {
		status.QueuePosition = *resp.QueuePosition
	}
	return PollOutcome{Kind: OutcomePending, Status: status}, nil
}

// Await polls until the job reaches a terminal state and returns its asset.
func (p *Poller) Await(ctx context.Context, handle domain.JobHandle) (Asset, error) {
	for attempt := 1; ; attempt++ {
		outcome, err := p.Check(ctx, handle)
		if err != nil {
			return Asset{}, err
		}

		switch outcome.Kind {
		case OutcomeDone:
			zlog.Logger.Info().
				Str("job_id", string(handle)).
				Int("polls", attempt).
				Msg("generation done")
			return outcome.Asset, nil
		case OutcomeNotPossible:
			zlog.Logger.Warn().Str("job_id", string(handle)).Msg("generation is not possible")
			return Asset{}, fmt.Errorf("%w: job %s", domain.ErrNotPossible, handle)
		}

		if err := ctx.Err(); err != nil {
			return Asset{}, cancelled(err)
		}
		p.status.Update(outcome.Status)

		zlog.Logger.Debug().
			Str("job_id", string(handle)).
			Int("attempt", attempt).
			Int("queue_position", outcome.Status.QueuePosition).
			Int("wait_time_seconds", outcome.Status.WaitTimeSeconds).
			Msg("Retrying HORDE status check...")

		if err := p.sleep(ctx); err != nil {
			return Asset{}, err
		}
	}
}

func (p *Poller) resolve(ctx context.Context, handle domain.JobHandle) (Asset, error) {
	resp, err := p.api.GenerationStatus(ctx, string(handle))
	if err != nil {
		return Asset{}, fmt.Errorf("fetch generation %s: %w", handle, err)
	}
	if len(resp.Generations) == 0 || resp.Generations[0].Img == "" {
		return Asset{}, fmt.Errorf("%w: job %s has no generations", domain.ErrAssetFetch, handle)
	}

	gen := resp.Generations[0]
	return Asset{Ref: gen.Img, Seed: gen.Seed, Censored: gen.Censored}, nil
}

func (p *Poller) sleep(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return cancelled(ctx.Err())
	case <-timer.C:
		return nil
	}
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", domain.ErrCancelled, cause)
}
