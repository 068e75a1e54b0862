package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one student's timed access window to one exam. The variant is
// fixed at creation for the attempt's whole lifetime. The only mutation an
// attempt ever sees is SubmittedAt being set once on final submission.
type Attempt struct {
	ID            uuid.UUID  `json:"id"`
	StudentName   string     `json:"student_name"`
	StudentNumber string     `json:"student_number"`
	ExamID        uuid.UUID  `json:"exam_id"`
	VariantID     int64      `json:"variant_id"`
	OriginID      int64      `json:"origin_id"`
	StartedAt     time.Time  `json:"started_at"`
	EndsAt        time.Time  `json:"ends_at"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// Remaining returns the attempt's remaining duration at the given instant,
// clamped to zero.
func (a *Attempt) Remaining(now time.Time) time.Duration {
	r := a.EndsAt.Sub(now)
	if r < 0 {
		return 0
	}
	return r
}

// Closed reports whether the attempt no longer accepts writes: either the
// final answer set was recorded or the time window elapsed.
func (a *Attempt) Closed(now time.Time) bool {
	return a.SubmittedAt != nil || now.After(a.EndsAt)
}

// OpenAttemptRequest is the payload for a student opening (or resuming) an
// attempt on the active exam. Name plus student number is the student key.
type OpenAttemptRequest struct {
	Name          string `json:"name" binding:"required,min=2,max=100"`
	StudentNumber string `json:"student_number" binding:"required,min=4,max=32"`
}

// AttemptState is returned to the student on open/resume and state polls.
type AttemptState struct {
	AttemptID        uuid.UUID `json:"attempt_id"`
	ExamID           uuid.UUID `json:"exam_id"`
	VariantID        int64     `json:"variant_id"`
	Resumed          bool      `json:"resumed"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	LastVersion      int       `json:"last_version"`
}
