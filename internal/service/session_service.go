package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionService creates or resumes timed attempts against the single
// active exam and answers remaining-time queries.
type SessionService struct {
	attemptRepo *repository.AttemptRepository
	examRepo    *repository.ExamRepository
	gate        *AccessGate
	rdb         *redis.Client
	log         zerolog.Logger

	// randIndex picks a variant index on the create path. Overridable in
	// tests; defaults to uniform rand.
	randIndex func(n int) int
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	attemptRepo *repository.AttemptRepository,
	examRepo *repository.ExamRepository,
	gate *AccessGate,
	rdb *redis.Client,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		attemptRepo: attemptRepo,
		examRepo:    examRepo,
		gate:        gate,
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
		randIndex:   rand.IntN,
	}
}

// OpenOrResume authorizes the origin against the access gate, then returns
// the student's live attempt for the active exam, creating one with a
// uniformly random variant if none exists. Concurrent first logins for the
// same student resolve to a single attempt (serialized in the repository).
func (s *SessionService) OpenOrResume(ctx context.Context, req *model.OpenAttemptRequest, originAddress string, now time.Time) (*model.Attempt, bool, error) {
	exam, err := s.examRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrNoActiveExam
		}
		return nil, false, fmt.Errorf("get active exam: %w", err)
	}

	origin, err := s.gate.Authorize(ctx, originAddress, now)
	if err != nil {
		return nil, false, err
	}

	attempt, created, err := s.attemptRepo.OpenOrResume(ctx,
		req.Name, req.StudentNumber, exam, origin.ID, now,
		func(variants []model.Variant) int { return s.randIndex(len(variants)) },
	)
	if err != nil {
		return nil, false, fmt.Errorf("open or resume attempt: %w", err)
	}

	// Cache the end time so remaining-time polls skip PostgreSQL. The DB
	// row stays the source of truth; a cache miss falls back and re-heals.
	endKey := config.CacheKey.AttemptEndKey(attempt.ID.String())
	if err := s.rdb.Set(ctx, endKey, attempt.EndsAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Str("attempt_id", attempt.ID.String()).Msg("Failed to cache attempt end time")
	}

	if created {
		s.log.Info().
			Str("attempt_id", attempt.ID.String()).
			Str("student_number", attempt.StudentNumber).
			Int64("variant_id", attempt.VariantID).
			Msg("Attempt created")
	}

	// Best-effort audit trail; the attempt is already durable.
	if raw, err := json.Marshal(model.OriginActivity{
		OriginID:      origin.ID,
		StudentName:   attempt.StudentName,
		StudentNumber: attempt.StudentNumber,
		ExamID:        attempt.ExamID.String(),
		Event:         model.ActivityEventLogin,
		OccurredAt:    now,
	}); err == nil {
		if err := s.rdb.RPush(ctx, config.WorkerKey.OriginActivityQueue, raw).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to enqueue login activity")
		}
	}

	return attempt, created, nil
}

// RemainingTime returns the attempt's remaining seconds at the given
// instant, clamped to zero. Reads the Redis end-time cache first and falls
// back to PostgreSQL on a miss, re-priming the cache.
func (s *SessionService) RemainingTime(ctx context.Context, attemptID uuid.UUID, now time.Time) (int64, error) {
	endKey := config.CacheKey.AttemptEndKey(attemptID.String())

	var endUnix int64
	val, err := s.rdb.Get(ctx, endKey).Result()
	switch {
	case err == nil:
		endUnix, err = strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid end time in cache: %w", err)
		}
	case errors.Is(err, redis.Nil):
		attempt, dbErr := s.attemptRepo.GetByID(ctx, attemptID)
		if dbErr != nil {
			return 0, fmt.Errorf("attempt not found in cache or db: %w", dbErr)
		}
		endUnix = attempt.EndsAt.Unix()
		_ = s.rdb.Set(ctx, endKey, endUnix, 0)
	default:
		return 0, fmt.Errorf("redis error getting end time: %w", err)
	}

	remaining := endUnix - now.Unix()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// GetAttempt retrieves an attempt by ID.
func (s *SessionService) GetAttempt(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return s.attemptRepo.GetByID(ctx, id)
}
