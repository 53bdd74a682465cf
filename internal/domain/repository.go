package domain

import "context"

type GenerationRepository interface {
	Create(ctx context.Context, generation *Generation) error
	FindByID(ctx context.Context, id string) (*Generation, error)
	Update(ctx context.Context, generation *Generation) error
	Delete(ctx context.Context, id string) error
	FindByStatus(ctx context.Context, status GenerationStatus, limit, offset int) ([]*Generation, error)
	List(ctx context.Context, limit, offset int) ([]*Generation, error)
}
