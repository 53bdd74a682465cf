package usecase

import (
	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/horde"
)

// negativePromptSeparator splits positive and negative prompts in a Horde prompt string.
const negativePromptSeparator = " ### "

func textToImageRequest(p domain.TextToImagePayload, defaultModels []string) horde.GenerationRequest {
	prompt := p.Prompt
	if p.NegativePrompt != "" {
		prompt += negativePromptSeparator + p.NegativePrompt
	}

	models := p.Models
	if len(models) == 0 {
		models = defaultModels
	}

	n := p.BatchCount
	if n <= 0 {
		n = 1
	}

	return horde.GenerationRequest{
		Prompt: prompt,
		Params: horde.GenerationParams{
			SamplerName: p.Sampler,
			CfgScale:    p.CfgScale,
			Seed:        p.Seed,
			Height:      p.Height,
			Width:       p.Width,
			Steps:       p.SamplingSteps,
			N:           n,
		},
		NSFW:       p.NSFW,
		CensorNSFW: !p.NSFW,
		R2:         true,
		Models:     models,
	}
}

func imageToImageRequest(p domain.ImageToImagePayload, sourceImage string, defaultModels []string) horde.GenerationRequest {
	req := textToImageRequest(p.TextToImagePayload, defaultModels)
	strength := p.DenoisingStrength
	req.Params.DenoisingStrength = &strength
	req.SourceImage = sourceImage
	req.SourceProcessing = "img2img"
	return req
}

func textToImageResult(p domain.TextToImagePayload, image string, asset Asset) *domain.GenerationResult {
	seed := p.Seed
	if seed == "" {
		seed = asset.Seed
	}

	return &domain.GenerationResult{
		Kind:           domain.KindTextToImage,
		Image:          image,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Width:          p.Width,
		Height:         p.Height,
		SamplingSteps:  p.SamplingSteps,
		CfgScale:       p.CfgScale,
		Seed:           seed,
		Sampler:        p.Sampler,
		Hidden:         asset.Censored,
	}
}

func imageToImageResult(p domain.ImageToImagePayload, image string, asset Asset) *domain.GenerationResult {
	result := textToImageResult(p.TextToImagePayload, image, asset)
	result.Kind = domain.KindImageToImage
	result.InputImage = p.Base64Image
	return result
}
