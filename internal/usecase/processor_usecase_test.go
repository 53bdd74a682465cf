package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/hordegen/internal/domain"
)

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}

func seedGeneration(t *testing.T, repo *memRepo, kind domain.GenerationKind, payload any) *domain.Generation {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	g := &domain.Generation{
		ID:        "gen-" + string(kind),
		Kind:      kind,
		Payload:   raw,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

func TestProcessGenerationCompletes(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	png := testPNG(t, 24, 16)
	gen := &stubGenerator{result: &domain.GenerationResult{
		Image:  base64.StdEncoding.EncodeToString(png),
		Width:  512,
		Height: 512,
		Seed:   "777",
		Hidden: true,
	}}
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())

	uc := NewProcessorUsecase(repo, store, gen, ".png", time.Minute)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))

	stored := repo.get(g.ID)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.Equal(t, "results/"+g.ID+".png", stored.ResultPath)
	assert.Equal(t, 24, stored.Width)
	assert.Equal(t, 16, stored.Height)
	assert.Equal(t, "777", stored.Seed)
	assert.True(t, stored.Hidden)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, []domain.GenerationStatus{domain.StatusProcessing, domain.StatusCompleted}, repo.updates)
	assert.True(t, bytes.Equal(png, store.objects[stored.ResultPath]))
}

func TestProcessGenerationDispatchesImageToImage(t *testing.T) {
	repo := newMemRepo()
	gen := &stubGenerator{result: &domain.GenerationResult{Image: base64.StdEncoding.EncodeToString(testPNG(t, 4, 4))}}
	g := seedGeneration(t, repo, domain.KindImageToImage, domain.ImageToImagePayload{
		TextToImagePayload: textPayload(),
		Base64Image:        "aGVsbG8=",
		DenoisingStrength:  0.4,
	})

	uc := NewProcessorUsecase(repo, newMemStorage(), gen, "", 0)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))
	assert.Equal(t, []domain.GenerationKind{domain.KindImageToImage}, gen.kinds)
}

func TestProcessGenerationRecordsTerminalFailure(t *testing.T) {
	repo := newMemRepo()
	gen := &stubGenerator{err: domain.ErrNotPossible}
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())

	uc := NewProcessorUsecase(repo, newMemStorage(), gen, ".png", time.Minute)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))

	stored := repo.get(g.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Equal(t, domain.ErrNotPossible.Error(), stored.ErrorMessage)
}

func TestProcessGenerationStorageFailure(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	store.saveErr = errors.New("disk full")
	gen := &stubGenerator{result: &domain.GenerationResult{Image: base64.StdEncoding.EncodeToString(testPNG(t, 4, 4))}}
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())

	uc := NewProcessorUsecase(repo, store, gen, ".png", 0)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))

	stored := repo.get(g.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "disk full")
}

func TestProcessGenerationJobTimeout(t *testing.T) {
	repo := newMemRepo()
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())

	uc := NewProcessorUsecase(repo, newMemStorage(), &stubGenerator{block: true}, ".png", 20*time.Millisecond)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))

	stored := repo.get(g.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, context.DeadlineExceeded.Error())
}

func TestProcessGenerationInterruptedWorker(t *testing.T) {
	repo := newMemRepo()
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())

	ctx, cancel := context.WithCancel(context.Background())
	gen := &stubGenerator{block: true}
	uc := NewProcessorUsecase(repo, newMemStorage(), gen, ".png", time.Minute)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := uc.ProcessGeneration(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrCancelled)

	// failed generations are picked up again when the task is redelivered
	stored := repo.get(g.ID)
	assert.Equal(t, domain.StatusFailed, stored.Status)
	assert.True(t, stored.CanBeProcessed())
}

func TestProcessGenerationSkipsFinished(t *testing.T) {
	repo := newMemRepo()
	g := seedGeneration(t, repo, domain.KindTextToImage, textPayload())
	g.MarkAsCompleted("results/x.png", 1, 1, "", false)
	require.NoError(t, repo.Update(context.Background(), g))

	gen := &stubGenerator{}
	uc := NewProcessorUsecase(repo, newMemStorage(), gen, ".png", 0)
	require.NoError(t, uc.ProcessGeneration(context.Background(), g.ID))
	assert.Empty(t, gen.kinds)
}

func TestProcessGenerationUnknownID(t *testing.T) {
	uc := NewProcessorUsecase(newMemRepo(), newMemStorage(), &stubGenerator{}, ".png", 0)
	err := uc.ProcessGeneration(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrGenerationNotFound)
}
