package domain

import "time"

// JobHandle identifies one server-side job for the lifetime of a single generation call.
type JobHandle string

// ProcessStatus is the most recent queue information reported for a pending job.
type ProcessStatus struct {
	WaitTimeSeconds int `json:"wait_time_seconds"`
	QueuePosition   int `json:"queue_position"`
}

// GenerationResult pairs the re-encoded image with the payload that produced it.
type GenerationResult struct {
	Kind           GenerationKind `json:"kind"`
	Image          string         `json:"image"`
	InputImage     string         `json:"input_image,omitempty"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	SamplingSteps  int            `json:"sampling_steps"`
	CfgScale       float64        `json:"cfg_scale"`
	Seed           string         `json:"seed,omitempty"`
	Sampler        string         `json:"sampler,omitempty"`
	Hidden         bool           `json:"hidden"`
	CreatedAt      time.Time      `json:"created_at"`
}
