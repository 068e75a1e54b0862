package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
	"unicode/utf8"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxAnswerLen caps a single answer's text at the boundary.
const maxAnswerLen = 100_000

// appendRetries bounds retry attempts when the version-uniqueness backstop
// fires. Contention is expected to be rare (one student rarely double
// submits), so a handful of short retries is plenty.
const appendRetries = 3

// LedgerService turns draft saves and final submissions into the
// append-only version history and drives the access gate on finalization.
type LedgerService struct {
	ledgerRepo  *repository.LedgerRepository
	attemptRepo *repository.AttemptRepository
	gate        *AccessGate
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	ledgerRepo *repository.LedgerRepository,
	attemptRepo *repository.AttemptRepository,
	gate *AccessGate,
	rdb *redis.Client,
	log zerolog.Logger,
) *LedgerService {
	return &LedgerService{
		ledgerRepo:  ledgerRepo,
		attemptRepo: attemptRepo,
		gate:        gate,
		rdb:         rdb,
		log:         log.With().Str("component", "ledger_service").Logger(),
	}
}

// SubmissionEvent is published on the exam's monitor channel after every
// accepted draft or final submission.
type SubmissionEvent struct {
	StudentName   string    `json:"student_name"`
	StudentNumber string    `json:"student_number"`
	ExamID        uuid.UUID `json:"exam_id"`
	VariantID     int64     `json:"variant_id"`
	Version       int       `json:"version"`
	IsFinal       bool      `json:"is_final"`
	At            time.Time `json:"at"`
}

// RecordDraft appends a draft snapshot for the attempt and returns its
// version. Fails with ErrAttemptClosed once the attempt is finalized or its
// time window has elapsed.
func (s *LedgerService) RecordDraft(ctx context.Context, attemptID uuid.UUID, answers map[int64]string, now time.Time) (int, error) {
	return s.record(ctx, attemptID, answers, false, now)
}

// RecordFinal appends the terminal snapshot, closes the attempt, and blocks
// the attempt's origin through the access gate.
func (s *LedgerService) RecordFinal(ctx context.Context, attemptID uuid.UUID, answers map[int64]string, now time.Time) (int, error) {
	return s.record(ctx, attemptID, answers, true, now)
}

func (s *LedgerService) record(ctx context.Context, attemptID uuid.UUID, answers map[int64]string, final bool, now time.Time) (int, error) {
	if err := validateAnswers(answers); err != nil {
		return 0, err
	}

	// Re-read the attempt so a finalization that landed after the token was
	// minted is observed. This is a fast path only: the append itself
	// re-decides under the partition lock.
	attempt, err := s.attemptRepo.GetByID(ctx, attemptID)
	if err != nil {
		return 0, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Closed(now) {
		return 0, ErrAttemptClosed
	}

	sub := &model.Submission{
		StudentName:   attempt.StudentName,
		StudentNumber: attempt.StudentNumber,
		ExamID:        attempt.ExamID,
		VariantID:     attempt.VariantID,
		OriginID:      attempt.OriginID,
		IsFinal:       final,
		Answers:       answers,
	}

	if err := s.appendWithRetry(ctx, sub, attempt.EndsAt); err != nil {
		return 0, err
	}

	if final {
		if err := s.attemptRepo.MarkSubmitted(ctx, attempt.ID, now); err != nil {
			return 0, fmt.Errorf("mark attempt submitted: %w", err)
		}
		if err := s.gate.OnFinalSubmission(ctx, attempt.OriginID, now); err != nil {
			return 0, err
		}
	}

	s.publishEvents(ctx, attempt, sub, now)

	return sub.Version, nil
}

// appendWithRetry retries the ledger append a bounded number of times with
// jittered backoff if the uniqueness backstop fires. In correct operation
// the partition lock means the first attempt always wins.
func (s *LedgerService) appendWithRetry(ctx context.Context, sub *model.Submission, deadline time.Time) error {
	for attempt := 0; ; attempt++ {
		err := s.ledgerRepo.Append(ctx, sub, deadline)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrPartitionClosed) {
			return ErrAttemptClosed
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return fmt.Errorf("append submission: %w", err)
		}
		if attempt+1 >= appendRetries {
			s.log.Error().
				Str("student_number", sub.StudentNumber).
				Str("exam_id", sub.ExamID.String()).
				Int64("variant_id", sub.VariantID).
				Msg("Version conflict survived retries — partition serialization is broken")
			return ErrVersionConflict
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(10+rand.IntN(15)) * time.Millisecond):
		}
	}
}

// publishEvents pushes the origin-activity record onto the worker queue and
// fans the submission event out to the exam monitor channel. Both are
// best-effort: the write already committed.
func (s *LedgerService) publishEvents(ctx context.Context, attempt *model.Attempt, sub *model.Submission, now time.Time) {
	event := model.ActivityEventDraft
	if sub.IsFinal {
		event = model.ActivityEventFinal
	}

	activity, err := json.Marshal(model.OriginActivity{
		OriginID:      attempt.OriginID,
		StudentName:   attempt.StudentName,
		StudentNumber: attempt.StudentNumber,
		ExamID:        attempt.ExamID.String(),
		Event:         event,
		OccurredAt:    now,
	})
	if err == nil {
		if err := s.rdb.RPush(ctx, config.WorkerKey.OriginActivityQueue, activity).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to enqueue origin activity")
		}
	}

	monitor, err := json.Marshal(SubmissionEvent{
		StudentName:   attempt.StudentName,
		StudentNumber: attempt.StudentNumber,
		ExamID:        attempt.ExamID,
		VariantID:     attempt.VariantID,
		Version:       sub.Version,
		IsFinal:       sub.IsFinal,
		At:            now,
	})
	if err == nil {
		channel := config.CacheKey.ExamMonitorChannel(attempt.ExamID.String())
		if err := s.rdb.Publish(ctx, channel, monitor).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to publish monitor event")
		}
	}
}

// LatestInPartition returns the newest entry of one partition, if any.
func (s *LedgerService) LatestInPartition(ctx context.Context, studentNumber string, examID uuid.UUID, variantID int64) (*model.Submission, error) {
	return s.ledgerRepo.LatestInPartition(ctx, studentNumber, examID, variantID)
}

// LastVersion returns the highest version saved in the attempt's partition,
// 0 when nothing has been saved yet.
func (s *LedgerService) LastVersion(ctx context.Context, attempt *model.Attempt) (int, error) {
	return s.ledgerRepo.MaxVersion(ctx, attempt.StudentNumber, attempt.ExamID, attempt.VariantID)
}

// validateAnswers rejects malformed entries before they reach the ledger.
func validateAnswers(answers map[int64]string) error {
	if answers == nil {
		return ErrMalformedAnswers
	}
	for qid, text := range answers {
		if qid <= 0 {
			return ErrMalformedAnswers
		}
		if len(text) > maxAnswerLen {
			return ErrMalformedAnswers
		}
		if !utf8.ValidString(text) {
			return ErrMalformedAnswers
		}
	}
	return nil
}
