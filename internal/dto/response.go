package dto

import (
	"time"

	"github.com/yokitheyo/hordegen/internal/domain"
)

type GenerationResponse struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	Status       string     `json:"status"`
	Width        int        `json:"width,omitempty"`
	Height       int        `json:"height,omitempty"`
	Seed         string     `json:"seed,omitempty"`
	Hidden       bool       `json:"hidden"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	ImageURL string `json:"image_url,omitempty"`
}

type GenerationListResponse struct {
	Generations []*GenerationResponse `json:"generations"`
	Total       int                   `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

type StatusResponse struct {
	Available       bool `json:"available"`
	WaitTimeSeconds int  `json:"wait_time_seconds"`
	QueuePosition   int  `json:"queue_position"`
}

type ValidateKeyResponse struct {
	Valid bool `json:"valid"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func MapGenerationToResponse(g *domain.Generation, baseURL string) *GenerationResponse {
	if g == nil {
		return nil
	}

	resp := &GenerationResponse{
		ID:           g.ID,
		Kind:         string(g.Kind),
		Status:       string(g.Status),
		Width:        g.Width,
		Height:       g.Height,
		Seed:         g.Seed,
		Hidden:       g.Hidden,
		ErrorMessage: g.ErrorMessage,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    g.UpdatedAt,
		CompletedAt:  g.CompletedAt,
	}

	if g.IsCompleted() {
		resp.ImageURL = baseURL + "/generations/" + g.ID + "/image"
	}

	return resp
}

func MapGenerationsToResponse(generations []*domain.Generation, baseURL string, limit, offset int) *GenerationListResponse {
	responses := make([]*GenerationResponse, 0, len(generations))
	for _, g := range generations {
		responses = append(responses, MapGenerationToResponse(g, baseURL))
	}

	return &GenerationListResponse{
		Generations: responses,
		Total:       len(responses),
		Limit:       limit,
		Offset:      offset,
	}
}

func MapStatusToResponse(s domain.ProcessStatus, ok bool) *StatusResponse {
	return &StatusResponse{
		Available:       ok,
		WaitTimeSeconds: s.WaitTimeSeconds,
		QueuePosition:   s.QueuePosition,
	}
}
