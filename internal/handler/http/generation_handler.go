package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/domain"
	"github.com/yokitheyo/hordegen/internal/dto"
	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

const defaultHeartbeat = 15 * time.Second

type GenerationHandler struct {
	generator domain.GenerationService
	jobs      domain.GenerationJobService
	status    domain.StatusSource
	heartbeat time.Duration
}

func NewGenerationHandler(
	generator domain.GenerationService,
	jobs domain.GenerationJobService,
	status domain.StatusSource,
) *GenerationHandler {
	return &GenerationHandler{
		generator: generator,
		jobs:      jobs,
		status:    status,
		heartbeat: defaultHeartbeat,
	}
}

func (h *GenerationHandler) RegisterRoutes(engine *ginext.Engine) {
	engine.POST("/txt2img", h.TextToImage)
	engine.POST("/img2img", h.ImageToImage)

	engine.POST("/generations/txt2img", h.SubmitTextToImage)
	engine.POST("/generations/img2img", h.SubmitImageToImage)
	engine.GET("/generations", h.ListGenerations)
	engine.GET("/generations/:id", h.GetGeneration)
	engine.GET("/generations/:id/image", h.GetGenerationImage)
	engine.DELETE("/generations/:id", h.DeleteGeneration)

	engine.GET("/status", h.GetStatus)
	engine.GET("/status/stream", h.StreamStatus)
	engine.GET("/credentials/validate", h.ValidateCredentials)
}

// TextToImage POST /txt2img runs a generation on the request context.
func (h *GenerationHandler) TextToImage(c *ginext.Context) {
	var req dto.TextToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.generator.TextToImage(c.Request.Context(), req.ToPayload())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImageToImage POST /img2img
func (h *GenerationHandler) ImageToImage(c *ginext.Context) {
	var req dto.ImageToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.generator.ImageToImage(c.Request.Context(), req.ToPayload())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitTextToImage POST /generations/txt2img queues a generation for the worker.
func (h *GenerationHandler) SubmitTextToImage(c *ginext.Context) {
	var req dto.TextToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	generation, err := h.jobs.SubmitTextToImage(c.Request.Context(), req.ToPayload())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MapGenerationToResponse(generation, baseURL(c)))
}

// SubmitImageToImage POST /generations/img2img
func (h *GenerationHandler) SubmitImageToImage(c *ginext.Context) {
	var req dto.ImageToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	generation, err := h.jobs.SubmitImageToImage(c.Request.Context(), req.ToPayload())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.MapGenerationToResponse(generation, baseURL(c)))
}

// GetGeneration GET /generations/:id
func (h *GenerationHandler) GetGeneration(c *ginext.Context) {
	generation, err := h.jobs.GetGeneration(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapGenerationToResponse(generation, baseURL(c)))
}

// GetGenerationImage GET /generations/:id/image
func (h *GenerationHandler) GetGenerationImage(c *ginext.Context) {
	id := c.Param("id")
	file, filename, err := h.jobs.GetGenerationImage(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	if stat, ok := file.(interface{ Stat() (os.FileInfo, error) }); ok {
		if info, err := stat.Stat(); err == nil {
			c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
		}
	}
	c.Header("Content-Type", contentType(filename))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, file)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("generation_id", id).
			Int64("bytes_written", written).
			Msg("failed to write image to response")
		return
	}
	zlog.Logger.Info().
		Str("generation_id", id).
		Str("filename", filename).
		Int64("bytes_written", written).
		Msg("generated image sent successfully")
}

// DeleteGeneration DELETE /generations/:id
func (h *GenerationHandler) DeleteGeneration(c *ginext.Context) {
	if err := h.jobs.DeleteGeneration(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListGenerations GET /generations?status=&limit=&offset=
func (h *GenerationHandler) ListGenerations(c *ginext.Context) {
	limit := 10
	if l := c.Query("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil && val > 0 {
			limit = val
		}
	}

	offset := 0
	if o := c.Query("offset"); o != "" {
		if val, err := strconv.Atoi(o); err == nil && val >= 0 {
			offset = val
		}
	}

	status := domain.GenerationStatus(c.Query("status"))
	switch status {
	case "", domain.StatusPending, domain.StatusProcessing, domain.StatusCompleted, domain.StatusFailed:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_status",
			Message: "Status must be one of: pending, processing, completed, failed",
		})
		return
	}

	generations, err := h.jobs.ListGenerations(c.Request.Context(), status, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapGenerationsToResponse(generations, baseURL(c), limit, offset))
}

// GetStatus GET /status returns the latest published queue status.
func (h *GenerationHandler) GetStatus(c *ginext.Context) {
	c.JSON(http.StatusOK, dto.MapStatusToResponse(h.status.Latest()))
}

// StreamStatus GET /status/stream sends every status update as a server-sent event
// until the client disconnects.
func (h *GenerationHandler) StreamStatus(c *ginext.Context) {
	updates, unsubscribe := h.status.Subscribe()
	defer unsubscribe()

	metrics.StatusSubscribers.Inc()
	defer metrics.StatusSubscribers.Dec()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(c.Writer, "status", dto.MapStatusToResponse(status, true)); err != nil {
				zlog.Logger.Debug().Err(err).Msg("status stream closed")
				return
			}
			c.Writer.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// ValidateCredentials GET /credentials/validate
func (h *GenerationHandler) ValidateCredentials(c *ginext.Context) {
	c.JSON(http.StatusOK, dto.ValidateKeyResponse{Valid: h.generator.ValidateAPIKey(c.Request.Context())})
}

func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func badRequest(c *ginext.Context, err error) {
	zlog.Logger.Warn().Err(err).Msg("invalid request body")
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}

func writeError(c *ginext.Context, err error) {
	code, kind := classify(err)
	if code >= http.StatusInternalServerError {
		zlog.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		zlog.Logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("request rejected")
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		message = "An internal error occurred"
	}
	c.JSON(code, dto.ErrorResponse{Error: kind, Message: message, Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, "invalid_payload"
	case errors.Is(err, domain.ErrGenerationNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNotCompleted):
		return http.StatusConflict, "not_completed"
	case errors.Is(err, domain.ErrNotPossible):
		return http.StatusUnprocessableEntity, "not_possible"
	case errors.Is(err, domain.ErrCancelled):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "timeout"
		}
		return http.StatusRequestTimeout, "cancelled"
	case errors.Is(err, domain.ErrJobRejected):
		return http.StatusBadGateway, "job_rejected"
	case errors.Is(err, domain.ErrAssetFetch), errors.Is(err, domain.ErrAssetDecode):
		return http.StatusBadGateway, "asset_error"
	case errors.Is(err, domain.ErrTransport):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

func baseURL(c *ginext.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, c.Request.Host)
}
