package horde

// GenerationRequest is the body of POST /generate/async.
type GenerationRequest struct {
	Prompt           string           `json:"prompt"`
	Params           GenerationParams `json:"params"`
	NSFW             bool             `json:"nsfw"`
	CensorNSFW       bool             `json:"censor_nsfw"`
	TrustedWorkers   bool             `json:"trusted_workers"`
	R2               bool             `json:"r2"`
	Models           []string         `json:"models,omitempty"`
	SourceImage      string           `json:"source_image,omitempty"`
	SourceProcessing string           `json:"source_processing,omitempty"`
}

type GenerationParams struct {
	SamplerName       string   `json:"sampler_name,omitempty"`
	CfgScale          float64  `json:"cfg_scale,omitempty"`
	DenoisingStrength *float64 `json:"denoising_strength,omitempty"`
	Seed              string   `json:"seed,omitempty"`
	Height            int      `json:"height"`
	Width             int      `json:"width"`
	Steps             int      `json:"steps,omitempty"`
	N                 int      `json:"n,omitempty"`
}

type AsyncResponse struct {
	ID      *string `json:"id"`
	Kudos   float64 `json:"kudos"`
	Message string  `json:"message,omitempty"`
}

// CheckResponse is the lightweight GET /generate/check/{id} payload.
// Every field is optional on the wire.
type CheckResponse struct {
	Finished      *int  `json:"finished"`
	Processing    *int  `json:"processing"`
	Waiting       *int  `json:"waiting"`
	Done          *bool `json:"done"`
	Faulted       *bool `json:"faulted"`
	WaitTime      *int  `json:"wait_time"`
	QueuePosition *int  `json:"queue_position"`
	IsPossible    *bool `json:"is_possible"`
}

// StatusResponse is GET /generate/status/{id}; it carries the finished generations.
type StatusResponse struct {
	CheckResponse
	Generations []Generation `json:"generations"`
}

type Generation struct {
	ID       string `json:"id"`
	Img      string `json:"img"`
	Seed     string `json:"seed"`
	Model    string `json:"model"`
	Censored bool   `json:"censored"`
}

type UserResponse struct {
	ID       *int    `json:"id"`
	Username string  `json:"username"`
	Kudos    float64 `json:"kudos"`
}
