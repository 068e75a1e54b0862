package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/examply/proctor-backend/internal/middleware"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/response"
	"github.com/examply/proctor-backend/internal/service"
	"github.com/examply/proctor-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StudentHandler handles the student-facing exam flow: opening an attempt,
// polling state, saving drafts, and final submission.
type StudentHandler struct {
	sessionService *service.SessionService
	ledgerService  *service.LedgerService
	examService    *service.ExamService
	authService    *service.AuthService
	trustProxy     bool
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(
	sessionService *service.SessionService,
	ledgerService *service.LedgerService,
	examService *service.ExamService,
	authService *service.AuthService,
	trustProxy bool,
	log zerolog.Logger,
) *StudentHandler {
	return &StudentHandler{
		sessionService: sessionService,
		ledgerService:  ledgerService,
		examService:    examService,
		authService:    authService,
		trustProxy:     trustProxy,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// Open godoc
// POST /api/v1/student/open
// Opens or resumes the student's attempt on the active exam. Returns the
// attempt token, the assigned variant's question payload, and remaining time.
func (h *StudentHandler) Open(c *gin.Context) {
	var req model.OpenAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	now := time.Now()
	origin := middleware.ResolveOrigin(c, h.trustProxy)

	attempt, created, err := h.sessionService.OpenOrResume(c.Request.Context(), &req, origin, now)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveExam):
			response.Fail(c, http.StatusNotFound, response.ErrNoActiveExam)
		case errors.Is(err, service.ErrOriginBlocked):
			response.Fail(c, http.StatusForbidden, response.ErrOriginBlocked)
		default:
			h.log.Error().Err(err).Msg("Open attempt failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	token, err := h.authService.GenerateAttemptToken(attempt, now)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), attempt.ExamID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	payload, err := h.examService.Payload(c.Request.Context(), exam, attempt.VariantID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	lastVersion, err := h.ledgerService.LastVersion(c.Request.Context(), attempt)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"exam":  payload,
		"state": model.AttemptState{
			AttemptID:        attempt.ID,
			ExamID:           attempt.ExamID,
			VariantID:        attempt.VariantID,
			Resumed:          !created,
			RemainingSeconds: int64(attempt.Remaining(now).Seconds()),
			LastVersion:      lastVersion,
		},
	})
}

// State godoc
// GET /api/v1/student/state
// Returns remaining time and the last saved version for the attempt.
func (h *StudentHandler) State(c *gin.Context) {
	attempt, ok := h.attemptFromClaims(c)
	if !ok {
		return
	}

	now := time.Now()
	remaining, err := h.sessionService.RemainingTime(c.Request.Context(), attempt.ID, now)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	lastVersion, err := h.ledgerService.LastVersion(c.Request.Context(), attempt)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AttemptState{
		AttemptID:        attempt.ID,
		ExamID:           attempt.ExamID,
		VariantID:        attempt.VariantID,
		Resumed:          true,
		RemainingSeconds: remaining,
		LastVersion:      lastVersion,
	})
}

// SaveDraft godoc
// POST /api/v1/student/drafts
// Appends a draft snapshot; returns the assigned version.
func (h *StudentHandler) SaveDraft(c *gin.Context) {
	h.save(c, false)
}

// SubmitFinal godoc
// POST /api/v1/student/submit
// Appends the terminal snapshot, closes the attempt, and blocks the origin.
func (h *StudentHandler) SubmitFinal(c *gin.Context) {
	h.save(c, true)
}

func (h *StudentHandler) save(c *gin.Context, final bool) {
	attempt, ok := h.attemptFromClaims(c)
	if !ok {
		return
	}

	var req model.SaveAnswersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	now := time.Now()
	var version int
	var err error
	if final {
		version, err = h.ledgerService.RecordFinal(c.Request.Context(), attempt.ID, req.Answers, now)
	} else {
		version, err = h.ledgerService.RecordDraft(c.Request.Context(), attempt.ID, req.Answers, now)
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAttemptClosed):
			response.Fail(c, http.StatusConflict, response.ErrAttemptClosed)
		case errors.Is(err, service.ErrMalformedAnswers):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		case errors.Is(err, service.ErrVersionConflict):
			response.Fail(c, http.StatusConflict, response.ErrVersionConflict)
		default:
			h.log.Error().Err(err).Bool("final", final).Msg("Save failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"version": version, "final": final})
}

// attemptFromClaims resolves the attempt referenced by the JWT. The token
// only names the attempt; the row is the source of truth for its state.
func (h *StudentHandler) attemptFromClaims(c *gin.Context) (*model.Attempt, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	attemptID, err := uuid.Parse(claims.AttemptID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return nil, false
	}

	attempt, err := h.sessionService.GetAttempt(c.Request.Context(), attemptID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return nil, false
	}
	return attempt, true
}
