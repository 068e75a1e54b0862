package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ExamService covers the teacher-side authoring workflow: exams, variants,
// questions, and activation. It also serves the per-variant question
// payload students receive, cached in Redis.
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// Create authors a new, inactive exam.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	exam := &model.Exam{
		Title:           req.Title,
		DurationMinutes: req.DurationMinutes,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return exam, nil
}

// List returns all exams.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.List(ctx)
}

// GetByID returns one exam.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// Activate makes the exam the single active one, deactivating all others.
// Last write wins when admins race; attempts already opened against the
// previously active exam are not rolled back.
func (s *ExamService) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Activate(ctx, id); err != nil {
		return fmt.Errorf("activate exam: %w", err)
	}
	s.log.Info().Str("exam_id", id.String()).Msg("Exam activated")
	return nil
}

// AddVariant adds a variant to an exam that has not been activated yet.
func (s *ExamService) AddVariant(ctx context.Context, examID uuid.UUID, req *model.CreateVariantRequest) (*model.Variant, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.IsActive {
		return nil, ErrExamLocked
	}

	v := &model.Variant{ExamID: examID, Name: req.Name}
	if err := s.examRepo.CreateVariant(ctx, v); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	return v, nil
}

// ListVariants returns an exam's variants.
func (s *ExamService) ListVariants(ctx context.Context, examID uuid.UUID) ([]model.Variant, error) {
	return s.examRepo.ListVariants(ctx, examID)
}

// AddQuestion adds a question to one of the exam's variants, as long as the
// exam has not been activated.
func (s *ExamService) AddQuestion(ctx context.Context, examID uuid.UUID, variantID int64, req *model.AddQuestionRequest) (*model.Question, error) {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}
	if exam.IsActive {
		return nil, ErrExamLocked
	}

	variant, err := s.examRepo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	if variant.ExamID != examID {
		return nil, errors.New("variant does not belong to exam")
	}

	q := &model.Question{
		ExamID:    examID,
		VariantID: variantID,
		Text:      req.Text,
		OrderNum:  req.OrderNum,
	}
	if err := s.examRepo.CreateQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Payload returns the question set a student sees for their assigned
// variant, cache-aside through Redis. Safe to cache: variants and questions
// are immutable once the exam is active.
func (s *ExamService) Payload(ctx context.Context, exam *model.Exam, variantID int64) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(exam.ID.String(), fmt.Sprintf("%d", variantID))

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		payload := &model.ExamPayload{}
		if err := json.Unmarshal([]byte(cached), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry; rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Payload cache read failed")
	}

	variant, err := s.examRepo.GetVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	questions, err := s.examRepo.ListQuestions(ctx, exam.ID, variantID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	payload := &model.ExamPayload{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		VariantID:       variantID,
		VariantName:     variant.Name,
		Questions:       questions,
	}

	if raw, err := json.Marshal(payload); err == nil {
		if err := s.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Payload cache write failed")
		}
	}

	return payload, nil
}
