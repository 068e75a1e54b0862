package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrVersionConflict reports that a submission insert hit the partition's
// UNIQUE(version) constraint. The advisory lock makes this unreachable in
// correct operation; seeing it means the serialization guarantee broke.
var ErrVersionConflict = errors.New("submission version conflict")

// ErrPartitionClosed reports an append into a (student, exam) stream that
// already holds a final submission or whose deadline has passed.
var ErrPartitionClosed = errors.New("submission partition is closed")

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

// LedgerRepository is the append-only store of versioned submissions. It is
// the sole writer of version numbers. It exposes no update or delete.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

const submissionColumns = `id, student_name, student_number, exam_id, variant_id, origin_id, submitted_at, version, is_final`

func scanSubmission(row pgx.Row) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(&s.ID, &s.StudentName, &s.StudentNumber, &s.ExamID, &s.VariantID,
		&s.OriginID, &s.SubmittedAt, &s.Version, &s.IsFinal)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Append inserts a new submission with version = current partition max + 1
// and writes its per-question answers in the same transaction, so no reader
// can observe a version without its answer content. The read-increment-
// insert runs under the partition advisory lock shared with the grading
// path; the UNIQUE constraint on (student_number, exam_id, variant_id,
// version) backstops it, surfacing ErrVersionConflict if it is ever beaten.
//
// Whether the stream still accepts writes is decided here, under the same
// lock: an append loses with ErrPartitionClosed once a final submission
// exists in the (student, exam) stream or the deadline has passed by the
// database clock. A caller-side closed check alone would race a final
// submission that lands between the check and the lock.
func (r *LedgerRepository) Append(ctx context.Context, s *model.Submission, deadline time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPartition(ctx, tx, ledgerLockKey(s.StudentNumber, s.ExamID)); err != nil {
		return fmt.Errorf("lock partition: %w", err)
	}

	var finalized, expired bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM submissions
		     WHERE student_number = $1 AND exam_id = $2 AND is_final
		 ), clock_timestamp() > $3`,
		s.StudentNumber, s.ExamID, deadline,
	).Scan(&finalized, &expired); err != nil {
		return fmt.Errorf("check partition state: %w", err)
	}
	if finalized || expired {
		return ErrPartitionClosed
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO submissions (student_name, student_number, exam_id, variant_id, origin_id, version, is_final)
		 SELECT $1, $2, $3, $4, $5, COALESCE(MAX(version), 0) + 1, $6
		 FROM submissions
		 WHERE student_number = $2 AND exam_id = $3 AND variant_id = $4
		 RETURNING id, version, submitted_at`,
		s.StudentName, s.StudentNumber, s.ExamID, s.VariantID, s.OriginID, s.IsFinal,
	).Scan(&s.ID, &s.Version, &s.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrVersionConflict
		}
		return fmt.Errorf("insert submission: %w", err)
	}

	if len(s.Answers) > 0 {
		batch := &pgx.Batch{}
		for qid, text := range s.Answers {
			batch.Queue(
				`INSERT INTO submission_answers (submission_id, question_id, answer_text)
				 VALUES ($1, $2, $3)`,
				s.ID, qid, text)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert answers: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LatestInPartition retrieves the highest-version submission of one
// (student, exam, variant) partition, without answers.
func (r *LedgerRepository) LatestInPartition(ctx context.Context, studentNumber string, examID uuid.UUID, variantID int64) (*model.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE student_number = $1 AND exam_id = $2 AND variant_id = $3
		 ORDER BY version DESC
		 LIMIT 1`, studentNumber, examID, variantID))
}

// LatestForStudentExam retrieves the submission with the maximum version
// across all variant partitions of (studentNumber, examID) — the single
// logical submission stream the grader sees. Ties across partitions (same
// version number under re-assigned variants) break by recency, then id.
func (r *LedgerRepository) LatestForStudentExam(ctx context.Context, studentNumber string, examID uuid.UUID) (*model.Submission, error) {
	return scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE student_number = $1 AND exam_id = $2
		 ORDER BY version DESC, submitted_at DESC, id DESC
		 LIMIT 1`, studentNumber, examID))
}

// MaxVersion returns the current highest version in a partition, 0 if none.
func (r *LedgerRepository) MaxVersion(ctx context.Context, studentNumber string, examID uuid.UUID, variantID int64) (int, error) {
	var v int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0)
		 FROM submissions
		 WHERE student_number = $1 AND exam_id = $2 AND variant_id = $3`,
		studentNumber, examID, variantID,
	).Scan(&v)
	return v, err
}

// GetByID retrieves one submission with its per-question answers.
func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (*model.Submission, error) {
	s, err := scanSubmission(r.pool.QueryRow(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_id, answer_text FROM submission_answers WHERE submission_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s.Answers = make(map[int64]string)
	for rows.Next() {
		var qid int64
		var text string
		if err := rows.Scan(&qid, &text); err != nil {
			return nil, err
		}
		s.Answers[qid] = text
	}
	return s, rows.Err()
}

// ListVersions retrieves the full version history of (studentNumber, examID)
// across all variants, oldest first, without answer content.
func (r *LedgerRepository) ListVersions(ctx context.Context, studentNumber string, examID uuid.UUID) ([]model.Submission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+submissionColumns+`
		 FROM submissions
		 WHERE student_number = $1 AND exam_id = $2
		 ORDER BY variant_id, version`, studentNumber, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		var s model.Submission
		if err := rows.Scan(&s.ID, &s.StudentName, &s.StudentNumber, &s.ExamID, &s.VariantID,
			&s.OriginID, &s.SubmittedAt, &s.Version, &s.IsFinal); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ledgerLockKey is the advisory lock key shared by submission appends and
// grading for one (student, exam) pair. Grading must not interleave with an
// append that could supersede the submission being graded.
func ledgerLockKey(studentNumber string, examID uuid.UUID) string {
	return fmt.Sprintf("ledger:%s:%s", studentNumber, examID)
}
