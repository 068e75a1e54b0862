package model

import "time"

// OriginState enumerates the trust states of a network origin. An address
// that has never been seen has no row, which callers treat as unknown.
type OriginState string

const (
	OriginStateApproved OriginState = "APPROVED"
	OriginStateBlocked  OriginState = "BLOCKED"
)

// Origin is the trust record of one network origin. First sighting records
// it as approved; final submission flips it to blocked; a teacher override
// may re-approve it.
type Origin struct {
	ID        int64       `json:"id"`
	Address   string      `json:"address"`
	State     OriginState `json:"state"`
	BlockedAt *time.Time  `json:"blocked_at,omitempty"`
	FirstSeen time.Time   `json:"first_seen"`
	LastSeen  time.Time   `json:"last_seen"`
}

// OriginOverview is an Origin joined with the most recent student activity
// seen from it, for the management listing.
type OriginOverview struct {
	Origin
	LastStudentName   *string    `json:"last_student_name,omitempty"`
	LastStudentNumber *string    `json:"last_student_number,omitempty"`
	LastActivityAt    *time.Time `json:"last_activity_at,omitempty"`
}

// SetOriginStateRequest is the teacher override payload.
type SetOriginStateRequest struct {
	State string `json:"state" binding:"required,oneof=approve block"`
}

// ActivityEvent enumerates origin activity log event kinds.
type ActivityEvent string

const (
	ActivityEventLogin ActivityEvent = "LOGIN"
	ActivityEventDraft ActivityEvent = "DRAFT"
	ActivityEventFinal ActivityEvent = "FINAL"
)

// OriginActivity is one sighting of a student acting from an origin. Rows
// are written asynchronously by the activity worker.
type OriginActivity struct {
	ID            int64         `json:"id"`
	OriginID      int64         `json:"origin_id"`
	StudentName   string        `json:"student_name"`
	StudentNumber string        `json:"student_number"`
	ExamID        string        `json:"exam_id"`
	Event         ActivityEvent `json:"event"`
	OccurredAt    time.Time     `json:"occurred_at"`
}
