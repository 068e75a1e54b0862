package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotLatest reports an attempt to grade a submission that has been
// superseded by a newer version.
var ErrNotLatest = errors.New("submission is not the latest")

// GradeRepository handles grade data access. A grade only ever targets the
// latest submission of its (student, exam); the check and the write share a
// transaction under the same partition lock the ledger appends take, so a
// racing append either lands before the check or after the commit.
type GradeRepository struct {
	pool *pgxpool.Pool
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(pool *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{pool: pool}
}

// UpsertForLatest attaches (or re-attaches) a grade to the submission with
// the given id, failing with ErrNotLatest unless it is still the maximum
// version across all variant partitions of its (student, exam).
func (r *GradeRepository) UpsertForLatest(ctx context.Context, sub *model.Submission, g *model.Grade, now time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPartition(ctx, tx, ledgerLockKey(sub.StudentNumber, sub.ExamID)); err != nil {
		return fmt.Errorf("lock partition: %w", err)
	}

	var latestID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM submissions
		 WHERE student_number = $1 AND exam_id = $2
		 ORDER BY version DESC, submitted_at DESC, id DESC
		 LIMIT 1`, sub.StudentNumber, sub.ExamID,
	).Scan(&latestID)
	if err != nil {
		return fmt.Errorf("find latest: %w", err)
	}
	if latestID != sub.ID {
		return ErrNotLatest
	}

	g.SubmissionID = sub.ID
	g.GradedAt = now
	if _, err := tx.Exec(ctx,
		`INSERT INTO grades (submission_id, mark, comment, grader_id, graded_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (submission_id) DO UPDATE
		 SET mark = EXCLUDED.mark, comment = EXCLUDED.comment,
		     grader_id = EXCLUDED.grader_id, graded_at = EXCLUDED.graded_at`,
		g.SubmissionID, g.Mark, g.Comment, g.GraderID, g.GradedAt,
	); err != nil {
		return fmt.Errorf("upsert grade: %w", err)
	}

	return tx.Commit(ctx)
}

// GetBySubmission retrieves the grade of a submission, if any.
func (r *GradeRepository) GetBySubmission(ctx context.Context, submissionID int64) (*model.Grade, error) {
	g := &model.Grade{}
	err := r.pool.QueryRow(ctx,
		`SELECT submission_id, mark, comment, grader_id, graded_at
		 FROM grades WHERE submission_id = $1`, submissionID,
	).Scan(&g.SubmissionID, &g.Mark, &g.Comment, &g.GraderID, &g.GradedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// UngradedRoster lists every student whose latest submission for the exam
// has no grade. Computed on demand; grading and submitting both move too
// fast for this to be worth caching.
func (r *GradeRepository) UngradedRoster(ctx context.Context, examID uuid.UUID) ([]model.RosterEntry, error) {
	rows, err := r.pool.Query(ctx,
		`WITH latest AS (
		     SELECT DISTINCT ON (student_number)
		            id, student_name, student_number, version
		     FROM submissions
		     WHERE exam_id = $1
		     ORDER BY student_number, version DESC, submitted_at DESC, id DESC
		 )
		 SELECT l.student_name, l.student_number, l.id, l.version
		 FROM latest l
		 LEFT JOIN grades g ON g.submission_id = l.id
		 WHERE g.submission_id IS NULL
		 ORDER BY l.student_number`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []model.RosterEntry
	for rows.Next() {
		var e model.RosterEntry
		if err := rows.Scan(&e.StudentName, &e.StudentNumber, &e.SubmissionID, &e.Version); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

// ListAll returns every recorded grade across all exams, newest exams
// first. Grades only ever point at latest submissions, so a plain join is
// enough here.
func (r *GradeRepository) ListAll(ctx context.Context) ([]model.GradeOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, s.student_name, s.student_number,
		        s.id, s.version, g.mark, g.comment, g.graded_at
		 FROM grades g
		 JOIN submissions s ON s.id = g.submission_id
		 JOIN exams e ON e.id = s.exam_id
		 ORDER BY e.created_at DESC, s.student_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overview []model.GradeOverview
	for rows.Next() {
		var o model.GradeOverview
		if err := rows.Scan(&o.ExamID, &o.ExamTitle, &o.StudentName, &o.StudentNumber,
			&o.SubmissionID, &o.Version, &o.Mark, &o.Comment, &o.GradedAt); err != nil {
			return nil, err
		}
		overview = append(overview, o)
	}
	return overview, rows.Err()
}

// SubmissionRoster lists every student's latest submission for the exam
// with its grading state, for the teacher's submissions view.
func (r *GradeRepository) SubmissionRoster(ctx context.Context, examID uuid.UUID) ([]model.SubmissionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`WITH latest AS (
		     SELECT DISTINCT ON (student_number)
		            id, student_name, student_number, variant_id, version, submitted_at, is_final
		     FROM submissions
		     WHERE exam_id = $1
		     ORDER BY student_number, version DESC, submitted_at DESC, id DESC
		 )
		 SELECT l.student_name, l.student_number, l.id, l.variant_id, l.version,
		        l.submitted_at, l.is_final,
		        g.submission_id IS NOT NULL AS graded, g.mark
		 FROM latest l
		 LEFT JOIN grades g ON g.submission_id = l.id
		 ORDER BY l.student_number`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.SubmissionSummary
	for rows.Next() {
		var s model.SubmissionSummary
		if err := rows.Scan(&s.StudentName, &s.StudentNumber, &s.SubmissionID, &s.VariantID,
			&s.Version, &s.SubmittedAt, &s.IsFinal, &s.Graded, &s.Mark); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
