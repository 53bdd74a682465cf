package dto

import "github.com/yokitheyo/hordegen/internal/domain"

type TextToImageRequest struct {
	Prompt         string   `json:"prompt" binding:"required"`
	NegativePrompt string   `json:"negative_prompt"`
	Width          int      `json:"width" binding:"required"`
	Height         int      `json:"height" binding:"required"`
	SamplingSteps  int      `json:"sampling_steps"`
	CfgScale       float64  `json:"cfg_scale"`
	Seed           string   `json:"seed"`
	Sampler        string   `json:"sampler"`
	Models         []string `json:"models"`
	NSFW           bool     `json:"nsfw"`
	BatchCount     int      `json:"batch_count"`
}

func (r *TextToImageRequest) ToPayload() domain.TextToImagePayload {
	return domain.TextToImagePayload{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Width:          r.Width,
		Height:         r.Height,
		SamplingSteps:  r.SamplingSteps,
		CfgScale:       r.CfgScale,
		Seed:           r.Seed,
		Sampler:        r.Sampler,
		Models:         r.Models,
		NSFW:           r.NSFW,
		BatchCount:     r.BatchCount,
	}
}

type ImageToImageRequest struct {
	TextToImageRequest
	Base64Image       string  `json:"base64_image" binding:"required"`
	DenoisingStrength float64 `json:"denoising_strength"`
}

func (r *ImageToImageRequest) ToPayload() domain.ImageToImagePayload {
	return domain.ImageToImagePayload{
		TextToImagePayload: r.TextToImageRequest.ToPayload(),
		Base64Image:        r.Base64Image,
		DenoisingStrength:  r.DenoisingStrength,
	}
}

// GenerationTask is the queue message that asks a worker to run a stored generation.
type GenerationTask struct {
	GenerationID string `json:"generation_id"`
	Kind         string `json:"kind"`
}
