package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yokitheyo/hordegen/internal/domain"
)

func TestJobUsecaseSubmitTextToImage(t *testing.T) {
	repo, queue := newMemRepo(), &memQueue{}
	uc := NewJobUsecase(repo, newMemStorage(), queue)

	g, err := uc.SubmitTextToImage(context.Background(), textPayload())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, g.Status)
	assert.Equal(t, domain.KindTextToImage, g.Kind)
	assert.Equal(t, []string{g.ID + ":txt2img"}, queue.tasks)

	var stored domain.TextToImagePayload
	require.NoError(t, json.Unmarshal(repo.get(g.ID).Payload, &stored))
	assert.Equal(t, textPayload(), stored)
}

func TestJobUsecaseSubmitRejectsInvalidPayload(t *testing.T) {
	repo, queue := newMemRepo(), &memQueue{}
	uc := NewJobUsecase(repo, newMemStorage(), queue)

	_, err := uc.SubmitImageToImage(context.Background(), domain.ImageToImagePayload{TextToImagePayload: textPayload()})
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
	assert.Empty(t, queue.tasks)
	assert.Empty(t, repo.generations)
}

func TestJobUsecaseSubmitQueueFailure(t *testing.T) {
	repo := newMemRepo()
	uc := NewJobUsecase(repo, newMemStorage(), &memQueue{err: errors.New("broker down")})

	_, err := uc.SubmitTextToImage(context.Background(), textPayload())
	require.Error(t, err)

	require.Len(t, repo.generations, 1)
	for _, g := range repo.generations {
		assert.Equal(t, domain.StatusFailed, g.Status)
		assert.Contains(t, g.ErrorMessage, "broker down")
	}
}

func TestJobUsecaseGetGenerationImage(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	uc := NewJobUsecase(repo, store, &memQueue{})
	ctx := context.Background()

	g, err := uc.SubmitTextToImage(ctx, textPayload())
	require.NoError(t, err)

	_, _, err = uc.GetGenerationImage(ctx, g.ID)
	assert.ErrorIs(t, err, domain.ErrNotCompleted)

	path, err := store.SaveResult(ctx, g.ID+".png", bytesReader("png-bytes"))
	require.NoError(t, err)
	g.MarkAsCompleted(path, 512, 512, "7", false)
	require.NoError(t, repo.Update(ctx, g))

	rc, name, err := uc.GetGenerationImage(ctx, g.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, g.ID+"_txt2img.png", name)

	_, _, err = uc.GetGenerationImage(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrGenerationNotFound)
}

func TestJobUsecaseDeleteAndList(t *testing.T) {
	repo, store := newMemRepo(), newMemStorage()
	uc := NewJobUsecase(repo, store, &memQueue{})
	ctx := context.Background()

	first, err := uc.SubmitTextToImage(ctx, textPayload())
	require.NoError(t, err)
	_, err = uc.SubmitTextToImage(ctx, textPayload())
	require.NoError(t, err)

	all, err := uc.ListGenerations(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := uc.ListGenerations(ctx, domain.StatusPending, 10, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	completed, err := uc.ListGenerations(ctx, domain.StatusCompleted, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, completed)

	require.NoError(t, uc.DeleteGeneration(ctx, first.ID))
	assert.ErrorIs(t, uc.DeleteGeneration(ctx, first.ID), domain.ErrGenerationNotFound)
}
