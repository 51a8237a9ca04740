package cvs

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cv-backend/internal/shared/server/respond"
)

const (
	maxBodySize = 1 << 20 // 1MB

	// statusClientClosedRequest is nginx's 499, used when the caller went away.
	statusClientClosedRequest = 499
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches CV routes to the router group. writeMW runs in front
// of the mutating routes only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writeMW ...gin.HandlerFunc) {
	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		chain := make([]gin.HandlerFunc, 0, len(writeMW)+1)
		chain = append(chain, writeMW...)
		return append(chain, handler)
	}

	rg.GET("/cvs", h.list)
	rg.GET("/cvs/:id", h.get)
	rg.POST("/cvs", write(h.create)...)
	rg.PUT("/cvs/:id", write(h.update)...)
	rg.DELETE("/cvs/:id", write(h.delete)...)
}

func (h *Handler) create(c *gin.Context) {
	req, ok := bindSaveRequest(c)
	if !ok {
		return
	}

	id, err := h.Svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "Failed to save CV")
		return
	}
	c.Set("cvId", id)

	respond.Created(c, gin.H{
		"success": true,
		"message": "CV saved successfully",
		"cvId":    id,
	})
}

func (h *Handler) list(c *gin.Context) {
	summaries, err := h.Svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to fetch CVs")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"cvs":     summaries,
	})
}

func (h *Handler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	cv, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to fetch CV")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"cv":      toResponse(cv),
	})
}

func (h *Handler) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindSaveRequest(c)
	if !ok {
		return
	}

	if err := h.Svc.Update(c.Request.Context(), id, req); err != nil {
		writeError(c, err, "Failed to update CV")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"message": "CV updated successfully",
		"cvId":    id,
	})
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err, "Failed to delete CV")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"message": "CV deleted successfully",
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid CV ID", nil)
		return 0, false
	}
	c.Set("cvId", id)
	return id, true
}

func bindSaveRequest(c *gin.Context) (SaveRequest, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)

	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return SaveRequest{}, false
	}
	return req, true
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "CV not found", nil)
	case errors.Is(err, context.Canceled):
		respond.Error(c, statusClientClosedRequest, "canceled", "Request canceled", nil)
	case IsRetryable(err):
		respond.Error(c, http.StatusServiceUnavailable, "storage_error", message, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "storage_error", message, nil)
	}
}
