package service

import "errors"

// Typed, recoverable outcomes of the core engine. Handlers map these onto
// response codes; none of them should ever crash the process.
var (
	// ErrNoActiveExam means no exam is currently activated.
	ErrNoActiveExam = errors.New("no active exam")

	// ErrOriginBlocked means the caller's network origin is blocked.
	ErrOriginBlocked = errors.New("origin is blocked")

	// ErrAttemptClosed means a write targeted a finalized or expired attempt.
	ErrAttemptClosed = errors.New("attempt is closed")

	// ErrNotLatest means grading targeted a superseded submission.
	ErrNotLatest = errors.New("not the latest submission")

	// ErrVersionConflict means the partition serialization guarantee was
	// beaten and retries were exhausted. It must never surface in correct
	// operation; treat an occurrence as a concurrency bug.
	ErrVersionConflict = errors.New("version conflict")

	// ErrMalformedAnswers means the answers payload failed boundary checks.
	ErrMalformedAnswers = errors.New("malformed answers payload")

	// ErrExamLocked means an authoring write targeted an exam that has
	// already been activated; variants and questions are immutable then.
	ErrExamLocked = errors.New("exam is locked for editing")
)
