package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AttemptRepository handles attempt data access. All open-or-resume traffic
// for one (student, exam) pair is serialized through a per-partition
// advisory lock so concurrent first logins cannot create two live attempts.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, student_name, student_number, exam_id, variant_id, origin_id, started_at, ends_at, submitted_at`

func scanAttempt(row pgx.Row) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := row.Scan(&a.ID, &a.StudentName, &a.StudentNumber, &a.ExamID, &a.VariantID,
		&a.OriginID, &a.StartedAt, &a.EndsAt, &a.SubmittedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM attempts WHERE id = $1`, id))
}

// GetLive retrieves the attempt for (studentNumber, examID) whose window is
// still open at the given instant, if any.
func (r *AttemptRepository) GetLive(ctx context.Context, studentNumber string, examID uuid.UUID, now time.Time) (*model.Attempt, error) {
	return scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE student_number = $1 AND exam_id = $2 AND ends_at > $3
		 ORDER BY started_at DESC
		 LIMIT 1`, studentNumber, examID, now))
}

// OpenOrResume returns the live attempt for (studentNumber, examID) or
// creates one. The whole existence-check-then-insert runs under a partition
// advisory lock, so exactly one attempt is created no matter how many
// callers race; losers of the race observe the winner's attempt.
//
// chooseVariant receives the exam's variants (never empty — a default
// variant is created lazily when the exam has none) and returns the index
// of the variant to assign. It is only consulted on the create path.
func (r *AttemptRepository) OpenOrResume(
	ctx context.Context,
	studentName, studentNumber string,
	exam *model.Exam,
	originID int64,
	now time.Time,
	chooseVariant func(variants []model.Variant) int,
) (*model.Attempt, bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := fmt.Sprintf("attempt:%s:%s", studentNumber, exam.ID)
	if err := lockPartition(ctx, tx, lockKey); err != nil {
		return nil, false, fmt.Errorf("lock partition: %w", err)
	}

	existing, err := scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+`
		 FROM attempts
		 WHERE student_number = $1 AND exam_id = $2 AND ends_at > $3
		 ORDER BY started_at DESC
		 LIMIT 1`, studentNumber, exam.ID, now))
	if err == nil {
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("commit: %w", err)
		}
		return existing, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("find live attempt: %w", err)
	}

	variants, err := listVariantsTx(ctx, tx, exam.ID)
	if err != nil {
		return nil, false, fmt.Errorf("list variants: %w", err)
	}
	if len(variants) == 0 {
		// Lazy default variant for exams authored without any.
		v := model.Variant{ExamID: exam.ID, Name: model.DefaultVariantName}
		if err := tx.QueryRow(ctx,
			`INSERT INTO exam_variants (exam_id, name) VALUES ($1, $2) RETURNING id`,
			v.ExamID, v.Name,
		).Scan(&v.ID); err != nil {
			return nil, false, fmt.Errorf("create default variant: %w", err)
		}
		variants = []model.Variant{v}
	}

	variant := variants[chooseVariant(variants)]

	a := &model.Attempt{
		StudentName:   studentName,
		StudentNumber: studentNumber,
		ExamID:        exam.ID,
		VariantID:     variant.ID,
		OriginID:      originID,
		StartedAt:     now,
		EndsAt:        now.Add(time.Duration(exam.DurationMinutes) * time.Minute),
	}
	if err := tx.QueryRow(ctx,
		`INSERT INTO attempts (student_name, student_number, exam_id, variant_id, origin_id, started_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.StudentName, a.StudentNumber, a.ExamID, a.VariantID, a.OriginID, a.StartedAt, a.EndsAt,
	).Scan(&a.ID); err != nil {
		return nil, false, fmt.Errorf("create attempt: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return a, true, nil
}

// MarkSubmitted closes an attempt after final submission. Only the first
// call flips the row; repeated calls are no-ops.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE attempts SET submitted_at = $1 WHERE id = $2 AND submitted_at IS NULL`,
		now, id)
	return err
}

func listVariantsTx(ctx context.Context, tx pgx.Tx, examID uuid.UUID) ([]model.Variant, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, exam_id, name FROM exam_variants WHERE exam_id = $1 ORDER BY id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []model.Variant
	for rows.Next() {
		var v model.Variant
		if err := rows.Scan(&v.ID, &v.ExamID, &v.Name); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
