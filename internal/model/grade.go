package model

import (
	"time"

	"github.com/google/uuid"
)

// Grade is the mark attached to exactly one submission: the latest one for
// its (student, exam). Upserted, never duplicated per submission.
type Grade struct {
	SubmissionID int64     `json:"submission_id"`
	Mark         float64   `json:"mark"`
	Comment      string    `json:"comment"`
	GraderID     int       `json:"grader_id"`
	GradedAt     time.Time `json:"graded_at"`
}

// GradeRequest is the payload for grading a submission.
type GradeRequest struct {
	Mark    float64 `json:"mark" binding:"min=0,max=100"`
	Comment string  `json:"comment" binding:"max=2000"`
}

// GradeOverview is one row of the cross-exam grades listing: a recorded
// grade joined with the exam and student it belongs to.
type GradeOverview struct {
	ExamID        uuid.UUID `json:"exam_id"`
	ExamTitle     string    `json:"exam_title"`
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	SubmissionID  int64     `json:"submission_id"`
	Version       int       `json:"version"`
	Mark          float64   `json:"mark"`
	Comment       string    `json:"comment"`
	GradedAt      time.Time `json:"graded_at"`
}

// RosterEntry identifies a student whose latest submission for an exam has
// not been graded yet.
type RosterEntry struct {
	StudentName   string `json:"student_name"`
	StudentNumber string `json:"student_number"`
	SubmissionID  int64  `json:"submission_id"`
	Version       int    `json:"version"`
}
