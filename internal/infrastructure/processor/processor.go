package processor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/yokitheyo/hordegen/internal/config"
	"github.com/yokitheyo/hordegen/internal/domain"
)

type ImageProcessor struct {
	cfg    *config.ProcessingConfig
	format imaging.Format
}

func NewImageProcessor(cfg *config.ProcessingConfig) *ImageProcessor {
	if cfg.SourceMaxWidth <= 0 || cfg.SourceMaxHeight <= 0 {
		zlog.Logger.Warn().
			Int("source_max_width", cfg.SourceMaxWidth).
			Int("source_max_height", cfg.SourceMaxHeight).
			Msg("Invalid source dimensions, using defaults")
		cfg.SourceMaxWidth = 1024
		cfg.SourceMaxHeight = 1024
	}
	if cfg.OutputQuality <= 0 || cfg.OutputQuality > 100 {
		cfg.OutputQuality = 95
	}

	format := imaging.PNG
	if strings.EqualFold(cfg.OutputFormat, "jpeg") || strings.EqualFold(cfg.OutputFormat, "jpg") {
		format = imaging.JPEG
	}

	zlog.Logger.Info().
		Str("output_format", format.String()).
		Int("output_quality", cfg.OutputQuality).
		Int("source_max_width", cfg.SourceMaxWidth).
		Int("source_max_height", cfg.SourceMaxHeight).
		Msg("ImageProcessor initialized")
	return &ImageProcessor{cfg: cfg, format: format}
}

// Decode reads any registered raster format (png, jpeg, gif, bmp, tiff, webp).
func (p *ImageProcessor) Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode image")
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		zlog.Logger.Error().Msg("decoded image is empty")
		return nil, fmt.Errorf("decoded image is empty")
	}
	zlog.Logger.Debug().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Image decoded successfully")
	return img, nil
}

// EncodeBase64 re-encodes img in the configured output format as standard base64.
func (p *ImageProcessor) EncodeBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, p.format, imaging.JPEGQuality(p.cfg.OutputQuality)); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to encode image")
		return "", fmt.Errorf("encode image: %w", err)
	}
	if buf.Len() == 0 {
		return "", fmt.Errorf("empty buffer after encoding")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PrepareSource decodes a caller supplied base64 image, shrinks it to fit the
// requested generation size and the configured maximum, and re-encodes it.
func (p *ImageProcessor) PrepareSource(encoded string, width, height int) (string, error) {
	raw, err := DecodeBase64(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: source image is not valid base64", domain.ErrInvalidPayload)
	}

	img, err := p.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: source image: %w", domain.ErrInvalidPayload, err)
	}

	maxW, maxH := p.cfg.SourceMaxWidth, p.cfg.SourceMaxHeight
	if width > 0 && width < maxW {
		maxW = width
	}
	if height > 0 && height < maxH {
		maxH = height
	}

	if img.Bounds().Dx() > maxW || img.Bounds().Dy() > maxH {
		resized := imaging.Fit(img, maxW, maxH, imaging.Lanczos)
		zlog.Logger.Info().
			Int("original_width", img.Bounds().Dx()).
			Int("original_height", img.Bounds().Dy()).
			Int("resized_width", resized.Bounds().Dx()).
			Int("resized_height", resized.Bounds().Dy()).
			Msg("Source image resized with aspect ratio preserved")
		img = resized
	}

	return p.EncodeBase64(img)
}

// DecodeBase64 accepts plain base64 or a data URI.
func DecodeBase64(encoded string) ([]byte, error) {
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	return base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
}

// Extension returns the file extension matching the output format.
func (p *ImageProcessor) Extension() string {
	if p.format == imaging.JPEG {
		return ".jpg"
	}
	return ".png"
}
