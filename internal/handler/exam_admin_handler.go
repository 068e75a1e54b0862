package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/response"
	"github.com/examply/proctor-backend/internal/service"
	"github.com/examply/proctor-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExamAdminHandler handles the teacher-side exam authoring workflow.
type ExamAdminHandler struct {
	examService *service.ExamService
}

// NewExamAdminHandler creates a new ExamAdminHandler.
func NewExamAdminHandler(examService *service.ExamService) *ExamAdminHandler {
	return &ExamAdminHandler{examService: examService}
}

// CreateExam godoc
// POST /api/v1/teacher/exams
func (h *ExamAdminHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/teacher/exams
func (h *ExamAdminHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.List(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// ActivateExam godoc
// POST /api/v1/teacher/exams/:exam_id/activate
// Deactivates all other exams and activates this one.
func (h *ExamAdminHandler) ActivateExam(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	if err := h.examService.Activate(c.Request.Context(), examID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"activated": examID})
}

// AddVariant godoc
// POST /api/v1/teacher/exams/:exam_id/variants
func (h *ExamAdminHandler) AddVariant(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	var req model.CreateVariantRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	variant, err := h.examService.AddVariant(c.Request.Context(), examID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamLocked):
			response.Fail(c, http.StatusConflict, response.ErrExamLocked)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"variant": variant})
}

// ListVariants godoc
// GET /api/v1/teacher/exams/:exam_id/variants
func (h *ExamAdminHandler) ListVariants(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	variants, err := h.examService.ListVariants(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if variants == nil {
		variants = []model.Variant{}
	}
	response.Success(c, http.StatusOK, gin.H{"variants": variants})
}

// AddQuestion godoc
// POST /api/v1/teacher/exams/:exam_id/variants/:variant_id/questions
func (h *ExamAdminHandler) AddQuestion(c *gin.Context) {
	examID, ok := parseExamID(c)
	if !ok {
		return
	}

	variantID, err := strconv.ParseInt(c.Param("variant_id"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.examService.AddQuestion(c.Request.Context(), examID, variantID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamLocked):
			response.Fail(c, http.StatusConflict, response.ErrExamLocked)
		case errors.Is(err, pgx.ErrNoRows):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

func parseExamID(c *gin.Context) (uuid.UUID, bool) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return examID, true
}
