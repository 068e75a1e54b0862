package repository

import (
	"context"
	"fmt"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExamRepository handles exam, variant, and question data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// Create inserts a new exam. New exams start inactive.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, duration_minutes, is_active)
		 VALUES ($1, $2, FALSE)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.DurationMinutes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its ID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, is_active, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetActive retrieves the currently active exam. The read path tolerates a
// dirty state with more than one active row by picking the most recently
// activated, so students always see a single exam.
func (r *ExamRepository) GetActive(ctx context.Context) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, is_active, created_at, updated_at
		 FROM exams WHERE is_active = TRUE
		 ORDER BY updated_at DESC
		 LIMIT 1`,
	).Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List retrieves all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, duration_minutes, is_active, created_at, updated_at
		 FROM exams ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Activate deactivates every exam and activates the given one in a single
// transaction, so concurrent readers of GetActive never see two live exams.
func (r *ExamRepository) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE exams SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE`,
	); err != nil {
		return fmt.Errorf("deactivate: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE exams SET is_active = TRUE, updated_at = NOW() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

// CreateVariant adds a variant to an exam.
func (r *ExamRepository) CreateVariant(ctx context.Context, v *model.Variant) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_variants (exam_id, name) VALUES ($1, $2) RETURNING id`,
		v.ExamID, v.Name,
	).Scan(&v.ID)
}

// ListVariants retrieves all variants of an exam in insertion order.
func (r *ExamRepository) ListVariants(ctx context.Context, examID uuid.UUID) ([]model.Variant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, name FROM exam_variants WHERE exam_id = $1 ORDER BY id`, examID,
	)
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

// GetVariant retrieves a single variant.
func (r *ExamRepository) GetVariant(ctx context.Context, id int64) (*model.Variant, error) {
	v := &model.Variant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, name FROM exam_variants WHERE id = $1`, id,
	).Scan(&v.ID, &v.ExamID, &v.Name)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CreateQuestion adds a question to an (exam, variant) pair.
func (r *ExamRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (exam_id, variant_id, text, order_num)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		q.ExamID, q.VariantID, q.Text, q.OrderNum,
	).Scan(&q.ID)
}

// ListQuestions retrieves the questions of one (exam, variant) pair.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID uuid.UUID, variantID int64) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, variant_id, text, order_num
		 FROM questions
		 WHERE exam_id = $1 AND variant_id = $2
		 ORDER BY order_num, id`, examID, variantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.VariantID, &q.Text, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
