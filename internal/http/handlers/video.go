package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/factory"
	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/observability"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
)

const (
	msgGenerateFailed = "GPU Factory unreachable. Verify cluster status."
	msgInpaintFailed  = "Temporal mask processing failed."
	msgInvalidBody    = "invalid request body"
)

type VideoFactory interface {
	Generate(ctx context.Context, req factory.GenerateRequest) (factory.GenerateResult, error)
	Inpaint(ctx context.Context, req factory.InpaintRequest) (factory.InpaintResult, error)
}

// VideoHandler proxies generation and inpainting to the GPU factory. Both
// routes answer failures with a flat {"error": "..."} body.
type VideoHandler struct {
	log     *logger.Logger
	factory VideoFactory
	metrics *observability.Metrics
}

func NewVideoHandler(log *logger.Logger, f VideoFactory, metrics *observability.Metrics) *VideoHandler {
	return &VideoHandler{
		log:     log.With("handler", "VideoHandler"),
		factory: f,
		metrics: metrics,
	}
}

// POST /api/generate/video
func (h *VideoHandler) Generate(c *gin.Context) {
	var req factory.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := req.Validate(); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := h.factory.Generate(c.Request.Context(), req)
	h.metrics.ObserveFactory("generate", err, time.Since(start))
	if err != nil {
		h.logFailure("Video generation proxy failed", err, "quality", string(req.Quality.Tier()))
		response.RespondFlatError(c, http.StatusInternalServerError, msgGenerateFailed)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/edit/video
func (h *VideoHandler) Inpaint(c *gin.Context) {
	var req factory.InpaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := req.Validate(); err != nil {
		response.RespondFlatError(c, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	res, err := h.factory.Inpaint(c.Request.Context(), req)
	h.metrics.ObserveFactory("inpaint", err, time.Since(start))
	if err != nil {
		h.logFailure("Video inpainting proxy failed", err)
		response.RespondFlatError(c, http.StatusInternalServerError, msgInpaintFailed)
		return
	}
	response.RespondOK(c, res)
}

func (h *VideoHandler) logFailure(msg string, err error, kv ...interface{}) {
	fields := append([]interface{}{"error", err}, kv...)
	var upstream *factory.UpstreamError
	switch {
	case errors.As(err, &upstream):
		fields = append(fields, "upstream_status", upstream.StatusCode, "upstream_body", upstream.Body)
	case factory.IsUnreachable(err):
		fields = append(fields, "unreachable", true)
	case errors.Is(err, factory.ErrMissingToken):
		fields = append(fields, "misconfigured", true)
	}
	h.log.Error(msg, fields...)
}
