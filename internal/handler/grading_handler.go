package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/examply/proctor-backend/internal/middleware"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/response"
	"github.com/examply/proctor-backend/internal/service"
	"github.com/examply/proctor-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// GradingHandler handles submission browsing and grading.
type GradingHandler struct {
	gradingService *service.GradingService
	log            zerolog.Logger
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(gradingService *service.GradingService, log zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		gradingService: gradingService,
		log:            log.With().Str("component", "grading_handler").Logger(),
	}
}

// ListSubmissions godoc
// GET /api/v1/teacher/exams/:exam_id/submissions
// Roster of every student's latest submission with grading state, plus the
// ungraded subset.
func (h *GradingHandler) ListSubmissions(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	roster, err := h.gradingService.SubmissionRoster(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	ungraded, err := h.gradingService.UngradedRoster(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if roster == nil {
		roster = []model.SubmissionSummary{}
	}
	if ungraded == nil {
		ungraded = []model.RosterEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"submissions": roster, "ungraded": ungraded})
}

// ListGrades godoc
// GET /api/v1/teacher/grades
// Every recorded grade across all exams, for the teacher's overview.
func (h *GradingHandler) ListGrades(c *gin.Context) {
	grades, err := h.gradingService.AllGrades(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("List grades failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if grades == nil {
		grades = []model.GradeOverview{}
	}
	response.Success(c, http.StatusOK, gin.H{"grades": grades})
}

// ListVersions godoc
// GET /api/v1/teacher/exams/:exam_id/students/:student_number/versions
// Full version history of one student's submissions for the exam.
func (h *GradingHandler) ListVersions(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}
	studentNumber := c.Param("student_number")

	versions, err := h.gradingService.VersionHistory(c.Request.Context(), studentNumber, examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	latest, err := h.gradingService.LatestForGrading(c.Request.Context(), studentNumber, examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if versions == nil {
		versions = []model.Submission{}
	}
	resp := gin.H{"versions": versions}
	if latest != nil {
		resp["latest_id"] = latest.ID
	}
	response.Success(c, http.StatusOK, resp)
}

// GetSubmission godoc
// GET /api/v1/teacher/submissions/:submission_id
// One submission with its per-question answers and grade, if graded.
func (h *GradingHandler) GetSubmission(c *gin.Context) {
	id, ok := parseSubmissionID(c)
	if !ok {
		return
	}

	sub, grade, err := h.gradingService.GetSubmission(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub, "grade": grade})
}

// GradeSubmission godoc
// POST /api/v1/teacher/submissions/:submission_id/grade
// Upserts a grade; refused with NOT_LATEST_SUBMISSION for superseded entries.
func (h *GradingHandler) GradeSubmission(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, ok := parseSubmissionID(c)
	if !ok {
		return
	}

	var req model.GradeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	grade, err := h.gradingService.Grade(c.Request.Context(), id, &req, claims.TeacherID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotLatest):
			response.Fail(c, http.StatusConflict, response.ErrNotLatest)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			h.log.Error().Err(err).Int64("submission_id", id).Msg("Grade failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"grade": grade})
}

func parseSubmissionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("submission_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
