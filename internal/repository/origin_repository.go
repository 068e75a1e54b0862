package repository

import (
	"context"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OriginRepository is the only component allowed to write origin trust
// state. Everything else consults it through the access gate.
type OriginRepository struct {
	pool *pgxpool.Pool
}

// NewOriginRepository creates a new OriginRepository.
func NewOriginRepository(pool *pgxpool.Pool) *OriginRepository {
	return &OriginRepository{pool: pool}
}

// Sight records an address sighting: unseen addresses are inserted as
// approved, known ones get their last_seen refreshed. Returns the current
// record either way, so two racing first sightings both observe one row.
func (r *OriginRepository) Sight(ctx context.Context, address string, now time.Time) (*model.Origin, error) {
	o := &model.Origin{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO origins (address, state, first_seen, last_seen)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (address) DO UPDATE SET last_seen = EXCLUDED.last_seen
		 RETURNING id, address, state, blocked_at, first_seen, last_seen`,
		address, model.OriginStateApproved, now,
	).Scan(&o.ID, &o.Address, &o.State, &o.BlockedAt, &o.FirstSeen, &o.LastSeen)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Block transitions an origin to blocked, stamping blocked_at. Repeated
// calls only refresh the timestamp.
func (r *OriginRepository) Block(ctx context.Context, id int64, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE origins SET state = $1, blocked_at = $2 WHERE id = $3`,
		model.OriginStateBlocked, now, id)
	return err
}

// SetState is the teacher override: force an origin to the given state.
// Re-approving clears blocked_at.
func (r *OriginRepository) SetState(ctx context.Context, id int64, state model.OriginState, now time.Time) error {
	if state == model.OriginStateBlocked {
		return r.Block(ctx, id, now)
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE origins SET state = $1, blocked_at = NULL WHERE id = $2`,
		state, id)
	return err
}

// GetByID retrieves an origin record.
func (r *OriginRepository) GetByID(ctx context.Context, id int64) (*model.Origin, error) {
	o := &model.Origin{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, address, state, blocked_at, first_seen, last_seen
		 FROM origins WHERE id = $1`, id,
	).Scan(&o.ID, &o.Address, &o.State, &o.BlockedAt, &o.FirstSeen, &o.LastSeen)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListWithActivity retrieves all origins, newest first, each joined with
// the most recent student seen acting from it.
func (r *OriginRepository) ListWithActivity(ctx context.Context) ([]model.OriginOverview, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.id, o.address, o.state, o.blocked_at, o.first_seen, o.last_seen,
		        a.student_name, a.student_number, a.occurred_at
		 FROM origins o
		 LEFT JOIN LATERAL (
		     SELECT student_name, student_number, occurred_at
		     FROM origin_activity
		     WHERE origin_id = o.id
		     ORDER BY occurred_at DESC
		     LIMIT 1
		 ) a ON TRUE
		 ORDER BY o.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overviews []model.OriginOverview
	for rows.Next() {
		var o model.OriginOverview
		if err := rows.Scan(&o.ID, &o.Address, &o.State, &o.BlockedAt, &o.FirstSeen, &o.LastSeen,
			&o.LastStudentName, &o.LastStudentNumber, &o.LastActivityAt); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}
	return overviews, rows.Err()
}
