package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/response"
	"github.com/examply/proctor-backend/internal/service"
	"github.com/examply/proctor-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// OriginHandler handles the teacher's origin-restriction management view.
type OriginHandler struct {
	gate *service.AccessGate
}

// NewOriginHandler creates a new OriginHandler.
func NewOriginHandler(gate *service.AccessGate) *OriginHandler {
	return &OriginHandler{gate: gate}
}

// ListOrigins godoc
// GET /api/v1/teacher/origins
// All origins with trust state and the last student seen from each.
func (h *OriginHandler) ListOrigins(c *gin.Context) {
	origins, err := h.gate.ListOrigins(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if origins == nil {
		origins = []model.OriginOverview{}
	}
	response.Success(c, http.StatusOK, gin.H{"origins": origins})
}

// SetOriginState godoc
// POST /api/v1/teacher/origins/:origin_id/state
// Manual override: approve (unblock) or pre-block an origin.
func (h *OriginHandler) SetOriginState(c *gin.Context) {
	originID, err := strconv.ParseInt(c.Param("origin_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetOriginStateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state := model.OriginStateApproved
	if req.State == "block" {
		state = model.OriginStateBlocked
	}

	if err := h.gate.SetState(c.Request.Context(), originID, state, time.Now()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"origin_id": originID, "state": state})
}
