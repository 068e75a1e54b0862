package model

import (
	"time"

	"github.com/google/uuid"
)

// Submission is one immutable, versioned snapshot of a student's answers.
// Versions are strictly increasing from 1 with no gaps or duplicates within
// a (student_number, exam_id, variant_id) partition. Submissions are never
// updated or deleted.
type Submission struct {
	ID            int64          `json:"id"`
	StudentName   string         `json:"student_name"`
	StudentNumber string         `json:"student_number"`
	ExamID        uuid.UUID      `json:"exam_id"`
	VariantID     int64          `json:"variant_id"`
	OriginID      int64          `json:"origin_id"`
	SubmittedAt   time.Time      `json:"submitted_at"`
	Version       int            `json:"version"`
	IsFinal       bool           `json:"is_final"`
	Answers       map[int64]string `json:"answers,omitempty"`
}

// SaveAnswersRequest is the payload for draft saves and final submission.
// Keys are question IDs; JSON object keys are decoded as integers and any
// non-numeric key is rejected at the boundary.
type SaveAnswersRequest struct {
	Answers map[int64]string `json:"answers" binding:"required"`
}

// SubmissionSummary is a roster row: a student's latest submission for an
// exam with its grading state.
type SubmissionSummary struct {
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	SubmissionID  int64     `json:"submission_id"`
	VariantID     int64     `json:"variant_id"`
	Version       int       `json:"version"`
	SubmittedAt   time.Time `json:"submitted_at"`
	IsFinal       bool      `json:"is_final"`
	Graded        bool      `json:"graded"`
	Mark          *float64  `json:"mark,omitempty"`
}
