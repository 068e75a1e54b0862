package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// GradingService resolves which submission is authoritative for grading and
// is the only entry point through which a grade may be attached.
type GradingService struct {
	ledgerRepo *repository.LedgerRepository
	gradeRepo  *repository.GradeRepository
	log        zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(
	ledgerRepo *repository.LedgerRepository,
	gradeRepo *repository.GradeRepository,
	log zerolog.Logger,
) *GradingService {
	return &GradingService{
		ledgerRepo: ledgerRepo,
		gradeRepo:  gradeRepo,
		log:        log.With().Str("component", "grading_service").Logger(),
	}
}

// LatestForGrading returns the single authoritative submission for
// (studentNumber, examID): the maximum version across all of the student's
// variant partitions combined. Returns nil when the student never
// submitted anything.
func (s *GradingService) LatestForGrading(ctx context.Context, studentNumber string, examID uuid.UUID) (*model.Submission, error) {
	sub, err := s.ledgerRepo.LatestForStudentExam(ctx, studentNumber, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest for student exam: %w", err)
	}
	return sub, nil
}

// Grade upserts a grade against the given submission, failing with
// ErrNotLatest unless it is still the latest for its (student, exam). The
// check and write are atomic with respect to concurrent ledger appends.
func (s *GradingService) Grade(ctx context.Context, submissionID int64, req *model.GradeRequest, graderID int, now time.Time) (*model.Grade, error) {
	sub, err := s.ledgerRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	grade := &model.Grade{
		Mark:     req.Mark,
		Comment:  req.Comment,
		GraderID: graderID,
	}
	if err := s.gradeRepo.UpsertForLatest(ctx, sub, grade, now); err != nil {
		if errors.Is(err, repository.ErrNotLatest) {
			return nil, ErrNotLatest
		}
		return nil, fmt.Errorf("upsert grade: %w", err)
	}

	s.log.Info().
		Int64("submission_id", submissionID).
		Int("grader_id", graderID).
		Float64("mark", grade.Mark).
		Msg("Submission graded")

	return grade, nil
}

// UngradedRoster lists each student whose latest submission for the exam is
// still ungraded. Recomputed on every call.
func (s *GradingService) UngradedRoster(ctx context.Context, examID uuid.UUID) ([]model.RosterEntry, error) {
	return s.gradeRepo.UngradedRoster(ctx, examID)
}

// SubmissionRoster lists every student's latest submission for the exam
// with grading state.
func (s *GradingService) SubmissionRoster(ctx context.Context, examID uuid.UUID) ([]model.SubmissionSummary, error) {
	return s.gradeRepo.SubmissionRoster(ctx, examID)
}

// AllGrades returns every recorded grade across all exams for the overview
// listing.
func (s *GradingService) AllGrades(ctx context.Context) ([]model.GradeOverview, error) {
	return s.gradeRepo.ListAll(ctx)
}

// VersionHistory returns a student's full submission history for an exam.
func (s *GradingService) VersionHistory(ctx context.Context, studentNumber string, examID uuid.UUID) ([]model.Submission, error) {
	return s.ledgerRepo.ListVersions(ctx, studentNumber, examID)
}

// GetSubmission returns one submission with answers and its grade, if any.
func (s *GradingService) GetSubmission(ctx context.Context, id int64) (*model.Submission, *model.Grade, error) {
	sub, err := s.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	grade, err := s.gradeRepo.GetBySubmission(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sub, nil, nil
		}
		return nil, nil, fmt.Errorf("get grade: %w", err)
	}
	return sub, grade, nil
}
