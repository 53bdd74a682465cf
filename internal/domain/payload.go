package domain

import (
	"fmt"
	"strings"
)

const (
	maxPromptLength = 1000
	maxDimension    = 2048
	maxSteps        = 150
)

// TextToImagePayload is what a caller sends to generate an image from a prompt.
type TextToImagePayload struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	SamplingSteps  int      `json:"sampling_steps"`
	CfgScale       float64  `json:"cfg_scale"`
	Seed           string   `json:"seed,omitempty"`
	Sampler        string   `json:"sampler,omitempty"`
	Models         []string `json:"models,omitempty"`
	NSFW           bool     `json:"nsfw"`
	BatchCount     int      `json:"batch_count,omitempty"`
}

// ImageToImagePayload extends the text payload with a base64 source image.
type ImageToImagePayload struct {
	TextToImagePayload
	Base64Image       string  `json:"base64_image"`
	DenoisingStrength float64 `json:"denoising_strength"`
}

func (p *TextToImagePayload) Validate() error {
	if strings.TrimSpace(p.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidPayload)
	}
	if len([]rune(p.Prompt)) > maxPromptLength {
		return fmt.Errorf("%w: prompt exceeds %d characters", ErrInvalidPayload, maxPromptLength)
	}
	if p.Width <= 0 || p.Height <= 0 || p.Width > maxDimension || p.Height > maxDimension {
		return fmt.Errorf("%w: width and height must be in 1..%d", ErrInvalidPayload, maxDimension)
	}
	if p.Width%64 != 0 || p.Height%64 != 0 {
		return fmt.Errorf("%w: width and height must be multiples of 64", ErrInvalidPayload)
	}
	if p.SamplingSteps < 0 || p.SamplingSteps > maxSteps {
		return fmt.Errorf("%w: sampling_steps must be in 0..%d", ErrInvalidPayload, maxSteps)
	}
	if p.CfgScale < 0 {
		return fmt.Errorf("%w: cfg_scale must be non-negative", ErrInvalidPayload)
	}
	if p.BatchCount < 0 {
		return fmt.Errorf("%w: batch_count must be non-negative", ErrInvalidPayload)
	}
	return nil
}

func (p *ImageToImagePayload) Validate() error {
	if err := p.TextToImagePayload.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(p.Base64Image) == "" {
		return fmt.Errorf("%w: base64_image is required", ErrInvalidPayload)
	}
	if p.DenoisingStrength < 0 || p.DenoisingStrength > 1 {
		return fmt.Errorf("%w: denoising_strength must be in 0..1", ErrInvalidPayload)
	}
	return nil
}
