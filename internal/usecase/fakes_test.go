package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/storage"
)

type memRepo struct {
	mu          sync.Mutex
	generations map[string]domain.Generation
	updates     []domain.GenerationStatus
}

func newMemRepo() *memRepo {
	return &memRepo{generations: make(map[string]domain.Generation)}
}

func (r *memRepo) Create(_ context.Context, g *domain.Generation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[g.ID] = *g
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.generations[id]
	if !ok {
		return nil, domain.ErrGenerationNotFound
	}
	return &g, nil
}

func (r *memRepo) Update(ctx context.Context, g *domain.Generation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generations[g.ID]; !ok {
		return domain.ErrGenerationNotFound
	}
	r.generations[g.ID] = *g
	r.updates = append(r.updates, g.Status)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.generations[id]; !ok {
		return domain.ErrGenerationNotFound
	}
	delete(r.generations, id)
	return nil
}

func (r *memRepo) FindByStatus(_ context.Context, status domain.GenerationStatus, limit, offset int) ([]*domain.Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Generation
	for _, g := range r.generations {
		if g.Status == status {
			g := g
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r *memRepo) List(_ context.Context, limit, offset int) ([]*domain.Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Generation
	for _, g := range r.generations {
		g := g
		out = append(out, &g)
	}
	return out, nil
}

func (r *memRepo) get(id string) domain.Generation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generations[id]
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) SaveResult(_ context.Context, filename string, reader io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	path := "results/" + filename
	s.mu.Lock()
	s.objects[path] = data
	s.mu.Unlock()
	return path, nil
}

func (s *memStorage) GetResult(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

type memQueue struct {
	mu    sync.Mutex
	tasks []string
	err   error
}

func (q *memQueue) PublishGenerationTask(_ context.Context, id string, kind domain.GenerationKind) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, id+":"+string(kind))
	return nil
}

func (q *memQueue) Close() error { return nil }

// stubGenerator returns a fixed result or error and records what it was asked for.
type stubGenerator struct {
	result *domain.GenerationResult
	err    error
	block  bool

	mu    sync.Mutex
	kinds []domain.GenerationKind
}

func (g *stubGenerator) record(kind domain.GenerationKind) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.kinds = append(g.kinds, kind)
}

func (g *stubGenerator) respond(ctx context.Context) (*domain.GenerationResult, error) {
	if g.block {
		<-ctx.Done()
		return nil, errors.Join(domain.ErrCancelled, ctx.Err())
	}
	return g.result, g.err
}

func (g *stubGenerator) TextToImage(ctx context.Context, _ domain.TextToImagePayload) (*domain.GenerationResult, error) {
	g.record(domain.KindTextToImage)
	return g.respond(ctx)
}

func (g *stubGenerator) ImageToImage(ctx context.Context, _ domain.ImageToImagePayload) (*domain.GenerationResult, error) {
	g.record(domain.KindImageToImage)
	return g.respond(ctx)
}

func (g *stubGenerator) ValidateAPIKey(context.Context) bool { return true }
