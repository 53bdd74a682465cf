package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

// ImageCodec decodes downloaded bytes and re-encodes them for the caller.
type ImageCodec interface {
	Decode(r io.Reader) (image.Image, error)
	EncodeBase64(img image.Image) (string, error)
	PrepareSource(encoded string, width, height int) (string, error)
}

// ResultFetcher downloads a finished image and transcodes it to base64.
type ResultFetcher struct {
	httpClient *http.Client
	codec      ImageCodec
	maxBytes   int64
}

// NewResultFetcher creates a fetcher. maxBytes <= 0 means no size limit.
func NewResultFetcher(httpClient *http.Client, codec ImageCodec, maxBytes int64) *ResultFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ResultFetcher{httpClient: httpClient, codec: codec, maxBytes: maxBytes}
}

func (f *ResultFetcher) Fetch(ctx context.Context, assetRef string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetRef, nil)
	if err != nil {
		metrics.AssetFetches.WithLabelValues("fetch_error").Inc()
		return "", fmt.Errorf("%w: build request: %w", domain.ErrAssetFetch, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		metrics.AssetFetches.WithLabelValues("fetch_error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrAssetFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.AssetFetches.WithLabelValues("fetch_error").Inc()
		return "", fmt.Errorf("%w: unexpected status code: %d", domain.ErrAssetFetch, resp.StatusCode)
	}

	raw, err := f.read(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", cancelled(ctxErr)
		}
		metrics.AssetFetches.WithLabelValues("fetch_error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrAssetFetch, err)
	}

	img, err := f.codec.Decode(bytes.NewReader(raw))
	if err != nil {
		metrics.AssetFetches.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrAssetDecode, err)
	}

	encoded, err := f.codec.EncodeBase64(img)
	if err != nil {
		metrics.AssetFetches.WithLabelValues("decode_error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrAssetDecode, err)
	}

	metrics.AssetFetches.WithLabelValues("ok").Inc()
	zlog.Logger.Info().
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("encoded_len", len(encoded)).
		Msg("generated image fetched")

	return encoded, nil
}

// read loads the whole body, refusing anything larger than maxBytes.
func (f *ResultFetcher) read(body io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(body)
	}

	raw, err := io.ReadAll(io.LimitReader(body, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > f.maxBytes {
		return nil, fmt.Errorf("asset exceeds %d bytes", f.maxBytes)
	}
	return raw, nil
}
