package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// lockPartition takes a transaction-scoped advisory lock derived from the
// given partition key. It serializes read-modify-write sequences for one
// (student, exam) partition without blocking other partitions. The lock is
// released automatically at commit or rollback.
func lockPartition(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return err
}
