package model

import (
	"time"

	"github.com/google/uuid"
)

// Exam represents a gradeable assessment. At most one exam is active at a
// time; activation is enforced transactionally by the exam repository.
type Exam struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Variant is an answer-set partition of an exam ("Model A", "Model B", ...).
// Variants are immutable once the exam has been activated.
type Variant struct {
	ID     int64     `json:"id"`
	ExamID uuid.UUID `json:"exam_id"`
	Name   string    `json:"name"`
}

// DefaultVariantName is assigned when an exam is opened without any variants.
const DefaultVariantName = "Default Model"

// Question is a prompt belonging to exactly one (exam, variant) pair.
type Question struct {
	ID        int64     `json:"id"`
	ExamID    uuid.UUID `json:"exam_id"`
	VariantID int64     `json:"variant_id"`
	Text      string    `json:"text"`
	OrderNum  int       `json:"order_num"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// CreateVariantRequest is the payload for adding a variant to an exam.
type CreateVariantRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// AddQuestionRequest is the payload for adding a question to a variant.
type AddQuestionRequest struct {
	Text     string `json:"text" binding:"required,min=1,max=10000"`
	OrderNum int    `json:"order_num" binding:"min=0"`
}

// ExamPayload is the question set delivered to a student for their assigned
// variant. Cached in Redis keyed by (exam, variant).
type ExamPayload struct {
	ExamID          uuid.UUID  `json:"exam_id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	VariantID       int64      `json:"variant_id"`
	VariantName     string     `json:"variant_name"`
	Questions       []Question `json:"questions"`
}
