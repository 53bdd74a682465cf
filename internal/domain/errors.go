package domain

import "errors"

var (
	ErrJobRejected = errors.New("horde returned no generation id")
	ErrNotPossible = errors.New("generation is not possible")
	ErrAssetFetch  = errors.New("failed to fetch generated image")
	ErrAssetDecode = errors.New("failed to decode generated image")
	ErrTransport   = errors.New("horde transport error")
	ErrCancelled   = errors.New("generation cancelled")

	ErrGenerationNotFound = errors.New("generation not found")
	ErrInvalidPayload     = errors.New("invalid generation payload")
	ErrNotCompleted       = errors.New("generation is not completed yet")
	ErrInvalidKind        = errors.New("invalid generation kind")
	ErrStorageFailed      = errors.New("storage operation failed")
)
