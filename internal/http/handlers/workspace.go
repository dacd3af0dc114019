package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/contentpilot/contentpilot-backend/internal/domain"
	"github.com/contentpilot/contentpilot-backend/internal/http/response"
	"github.com/contentpilot/contentpilot-backend/internal/platform/ctxutil"
	"github.com/contentpilot/contentpilot-backend/internal/platform/logger"
	"github.com/contentpilot/contentpilot-backend/internal/services"
	"github.com/contentpilot/contentpilot-backend/internal/state"
)

const defaultMaxUploadBytes int64 = 200 << 20

type WorkspaceHandler struct {
	log            *logger.Logger
	workspaces     services.WorkspaceService
	maxUploadBytes int64
}

func NewWorkspaceHandler(log *logger.Logger, workspaces services.WorkspaceService, maxUploadBytes int64) *WorkspaceHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &WorkspaceHandler{
		log:            log.With("handler", "WorkspaceHandler"),
		workspaces:     workspaces,
		maxUploadBytes: maxUploadBytes,
	}
}

type onboardingRequest struct {
	Brand  domain.BrandInfo `json:"brand"`
	Assets []domain.Asset   `json:"assets"`
}

type reviewRequest struct {
	Status   domain.Status `json:"status"`
	Feedback *string       `json:"feedback"`
}

type scheduleRequest struct {
	ScheduledAt int64 `json:"scheduledAt"`
}

// GET /api/workspace
func (h *WorkspaceHandler) Get(c *gin.Context) {
	ws, err := h.workspaces.Get(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ws)
}

// POST /api/onboarding
func (h *WorkspaceHandler) Onboard(c *gin.Context) {
	var req onboardingRequest
	if !bindJSON(c, &req) {
		return
	}
	ws, err := h.workspaces.Onboard(c.Request.Context(), ctxutil.UserID(c.Request.Context()), req.Brand, req.Assets)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ws)
}

// PATCH /api/brand
func (h *WorkspaceHandler) UpdateBrand(c *gin.Context) {
	var brand domain.BrandInfo
	if !bindJSON(c, &brand) {
		return
	}
	ws, err := h.workspaces.UpdateBrand(c.Request.Context(), ctxutil.UserID(c.Request.Context()), brand)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ws)
}

// PUT /api/brand/persona
func (h *WorkspaceHandler) UpdatePersona(c *gin.Context) {
	var persona domain.BrandPersona
	if !bindJSON(c, &persona) {
		return
	}
	ws, err := h.workspaces.UpdatePersona(c.Request.Context(), ctxutil.UserID(c.Request.Context()), persona)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, ws)
}

// POST /api/plan/:day/review
func (h *WorkspaceHandler) ReviewItem(c *gin.Context) {
	day, ok := dayParam(c)
	if !ok {
		return
	}
	var req reviewRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.workspaces.ReviewItem(c.Request.Context(), ctxutil.UserID(c.Request.Context()), day, req.Status, req.Feedback)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, item)
}

// POST /api/plan/:day/schedule
func (h *WorkspaceHandler) ScheduleItem(c *gin.Context) {
	day, ok := dayParam(c)
	if !ok {
		return
	}
	var req scheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.workspaces.ScheduleItem(c.Request.Context(), ctxutil.UserID(c.Request.Context()), day, req.ScheduledAt)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, item)
}

// PATCH /api/plan/:day
func (h *WorkspaceHandler) UpdatePlanItem(c *gin.Context) {
	day, ok := dayParam(c)
	if !ok {
		return
	}
	var patch state.PlanItemPatch
	if !bindJSON(c, &patch) {
		return
	}
	item, err := h.workspaces.UpdatePlanItem(c.Request.Context(), ctxutil.UserID(c.Request.Context()), day, patch)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, item)
}

// GET /api/assets
func (h *WorkspaceHandler) ListAssets(c *gin.Context) {
	assets, err := h.workspaces.ListAssets(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assets": assets})
}

// POST /api/assets
func (h *WorkspaceHandler) AppendAsset(c *gin.Context) {
	var asset domain.Asset
	if !bindJSON(c, &asset) {
		return
	}
	out, err := h.workspaces.AppendAsset(c.Request.Context(), ctxutil.UserID(c.Request.Context()), asset)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// POST /api/assets/upload (multipart: file, tags)
func (h *WorkspaceHandler) UploadAsset(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", errors.New("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	defer f.Close()

	out, err := h.workspaces.UploadAsset(c.Request.Context(), ctxutil.UserID(c.Request.Context()), services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Tags:        splitTags(c.PostForm("tags")),
		Body:        f,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// POST /api/trends/refresh
func (h *WorkspaceHandler) RefreshTrends(c *gin.Context) {
	trends, err := h.workspaces.RefreshTrends(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"trends": trends})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return false
	}
	return true
}

func dayParam(c *gin.Context) (int, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_day", errors.New("day must be a positive integer"))
		return 0, false
	}
	return day, true
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
