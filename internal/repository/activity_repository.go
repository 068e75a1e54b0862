package repository

import (
	"context"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepository persists origin activity sightings. Writes arrive from
// the activity worker, not from request handlers.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Insert appends one activity row.
func (r *ActivityRepository) Insert(ctx context.Context, a *model.OriginActivity) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO origin_activity (origin_id, student_name, student_number, exam_id, event, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		a.OriginID, a.StudentName, a.StudentNumber, a.ExamID, a.Event, a.OccurredAt,
	).Scan(&a.ID)
}
