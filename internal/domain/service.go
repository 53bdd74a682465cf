package domain

import (
	"context"
	"io"
)

// GenerationService runs one generation end to end on the caller's context.
type GenerationService interface {
	TextToImage(ctx context.Context, payload TextToImagePayload) (*GenerationResult, error)
	ImageToImage(ctx context.Context, payload ImageToImagePayload) (*GenerationResult, error)
	ValidateAPIKey(ctx context.Context) bool
}

// GenerationJobService manages generations that run in the background worker.
type GenerationJobService interface {
	SubmitTextToImage(ctx context.Context, payload TextToImagePayload) (*Generation, error)
	SubmitImageToImage(ctx context.Context, payload ImageToImagePayload) (*Generation, error)
	GetGeneration(ctx context.Context, id string) (*Generation, error)
	GetGenerationImage(ctx context.Context, id string) (io.ReadCloser, string, error)
	DeleteGeneration(ctx context.Context, id string) error
	ListGenerations(ctx context.Context, status GenerationStatus, limit, offset int) ([]*Generation, error)
}

type ProcessorService interface {
	ProcessGeneration(ctx context.Context, generationID string) error
}

// StatusSource is the process-wide feed of the latest job status.
type StatusSource interface {
	Update(status ProcessStatus)
	Subscribe() (<-chan ProcessStatus, func())
	Latest() (ProcessStatus, bool)
}

type StorageService interface {
	SaveResult(ctx context.Context, filename string, reader io.Reader) (string, error)
	GetResult(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

type QueueService interface {
	PublishGenerationTask(ctx context.Context, generationID string, kind GenerationKind) error
	Close() error
}
