package service

import (
	"context"
	"fmt"
	"time"

	"github.com/examply/proctor-backend/internal/model"
	"github.com/examply/proctor-backend/internal/repository"
	"github.com/rs/zerolog"
)

// AccessGate owns per-origin trust state. It gates attempt creation and
// reacts to final submission by blocking the origin. Nothing else writes
// the origins table.
type AccessGate struct {
	originRepo *repository.OriginRepository
	log        zerolog.Logger
}

// NewAccessGate creates a new AccessGate.
func NewAccessGate(originRepo *repository.OriginRepository, log zerolog.Logger) *AccessGate {
	return &AccessGate{
		originRepo: originRepo,
		log:        log.With().Str("component", "access_gate").Logger(),
	}
}

// Authorize records a sighting of the address and decides whether it may
// open an attempt. An unseen address is recorded as approved and allowed; a
// blocked one is denied with ErrOriginBlocked. Returns the origin record
// for the caller to thread through attempt creation.
func (g *AccessGate) Authorize(ctx context.Context, address string, now time.Time) (*model.Origin, error) {
	origin, err := g.originRepo.Sight(ctx, address, now)
	if err != nil {
		return nil, fmt.Errorf("sight origin: %w", err)
	}

	if origin.State == model.OriginStateBlocked {
		g.log.Info().Str("address", address).Msg("Blocked origin denied")
		return nil, ErrOriginBlocked
	}

	return origin, nil
}

// OnFinalSubmission transitions the origin to blocked. Idempotent: a second
// call only refreshes the block timestamp.
func (g *AccessGate) OnFinalSubmission(ctx context.Context, originID int64, now time.Time) error {
	if err := g.originRepo.Block(ctx, originID, now); err != nil {
		return fmt.Errorf("block origin: %w", err)
	}
	g.log.Info().Int64("origin_id", originID).Msg("Origin blocked after final submission")
	return nil
}

// SetState is the teacher override. "approve" unblocks, "block" pre-blocks;
// it always succeeds for an existing origin.
func (g *AccessGate) SetState(ctx context.Context, originID int64, state model.OriginState, now time.Time) error {
	if err := g.originRepo.SetState(ctx, originID, state, now); err != nil {
		return fmt.Errorf("set origin state: %w", err)
	}
	g.log.Info().Int64("origin_id", originID).Str("state", string(state)).Msg("Origin state overridden")
	return nil
}

// ListOrigins returns all origins with their latest observed student, for
// the management view.
func (g *AccessGate) ListOrigins(ctx context.Context) ([]model.OriginOverview, error) {
	return g.originRepo.ListWithActivity(ctx)
}
