package domain

import (
	"encoding/json"
	"time"
)

type GenerationStatus string

const (
	StatusPending    GenerationStatus = "pending"
	StatusProcessing GenerationStatus = "processing"
	StatusCompleted  GenerationStatus = "completed"
	StatusFailed     GenerationStatus = "failed"
)

type GenerationKind string

const (
	KindTextToImage  GenerationKind = "txt2img"
	KindImageToImage GenerationKind = "img2img"
)

func (k GenerationKind) Valid() bool {
	return k == KindTextToImage || k == KindImageToImage
}

// Generation is an asynchronous generation request tracked in the database.
type Generation struct {
	ID           string           `json:"id"`
	Kind         GenerationKind   `json:"kind"`
	Payload      json.RawMessage  `json:"payload"`
	Status       GenerationStatus `json:"status"`
	ResultPath   string           `json:"result_path,omitempty"`
	Width        int              `json:"width,omitempty"`
	Height       int              `json:"height,omitempty"`
	Seed         string           `json:"seed,omitempty"`
	Hidden       bool             `json:"hidden"`
	ErrorMessage string           `json:"error_message,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

func (g *Generation) IsCompleted() bool {
	return g.Status == StatusCompleted
}

func (g *Generation) IsFailed() bool {
	return g.Status == StatusFailed
}

// CanBeProcessed reports whether a worker may pick the generation up.
// Failed generations are retried when their task is redelivered.
func (g *Generation) CanBeProcessed() bool {
	return g.Status == StatusPending || g.Status == StatusFailed
}

func (g *Generation) MarkAsProcessing() {
	g.Status = StatusProcessing
	g.UpdatedAt = time.Now()
}

func (g *Generation) MarkAsCompleted(resultPath string, width, height int, seed string, hidden bool) {
	g.Status = StatusCompleted
	g.ResultPath = resultPath
	g.Width = width
	g.Height = height
	g.Seed = seed
	g.Hidden = hidden
	now := time.Now()
	g.CompletedAt = &now
	g.UpdatedAt = now
	g.ErrorMessage = ""
}

func (g *Generation) MarkAsFailed(errMsg string) {
	g.Status = StatusFailed
	g.ErrorMessage = errMsg
	g.UpdatedAt = time.Now()
}
