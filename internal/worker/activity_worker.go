package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/examply/proctor-backend/internal/config"
	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ActivityWorker consumes the origin activity queue and persists sightings
// to PostgreSQL. Request handlers only enqueue; this keeps the audit trail
// off the student write path.
type ActivityWorker struct {
	activityRepo *repository.ActivityRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(activityRepo *repository.ActivityRepository, rdb *redis.Client, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		activityRepo: activityRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "activity_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *ActivityWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.OriginActivityQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var activity model.OriginActivity
	if err := json.Unmarshal([]byte(result[1]), &activity); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.activityRepo.Insert(ctx, &activity); err != nil {
		w.log.Error().Err(err).
			Int64("origin_id", activity.OriginID).
			Str("student_number", activity.StudentNumber).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.OriginActivityQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

// drain processes all remaining items in the queue before shutdown.
func (w *ActivityWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.OriginActivityQueue).Result()
		if err != nil {
			break
		}

		var activity model.OriginActivity
		if err := json.Unmarshal([]byte(result), &activity); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.activityRepo.Insert(ctx, &activity); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.OriginActivityQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
