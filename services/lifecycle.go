package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	"golang.org/x/sync/errgroup"
)

// Clock returns the current instant. Services never call time.Now directly.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// DeriveStatus maps a tournament date range to its phase at now. Both bounds
// are inclusive for the ongoing phase.
func DeriveStatus(start, end, now time.Time) models.TournamentStatus {
	switch {
	case now.Before(start):
		return models.StatusUpcoming
	case !now.After(end):
		return models.StatusOngoing
	default:
		return models.StatusCompleted
	}
}

// refreshConcurrency bounds the write-back fan-out for list reads.
const refreshConcurrency = 8

// statusRefresher recomputes a tournament's phase on read and persists it when
// the stored value is stale. Concurrent refreshes of the same tournament write
// the same value, so last-write-wins is harmless.
type statusRefresher struct {
	tournamentRepo repositories.TournamentRepository
	clock          Clock
	notifier       Notifier
	logger         *slog.Logger
}

func (r *statusRefresher) refresh(ctx context.Context, t *models.Tournament) error {
	derived := DeriveStatus(t.Dates.Start, t.Dates.End, r.clock())
	if derived == t.Status {
		return nil
	}

	if err := r.tournamentRepo.UpdateStatus(ctx, t.ID, derived); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to write back status for tournament %s: %w", t.ID, err)
	}

	r.logger.DebugContext(ctx, "tournament status refreshed",
		slog.String("tournament_id", t.ID.String()),
		slog.String("from", string(t.Status)),
		slog.String("to", string(derived)),
	)
	t.Status = derived
	publish(r.notifier, t.ID, EventTournamentStatusChanged, map[string]interface{}{
		"tournament_id": t.ID,
		"status":        derived,
	})
	return nil
}

// refreshAll refreshes every item and drops those deleted after they were
// listed.
func (r *statusRefresher) refreshAll(ctx context.Context, tournaments []models.Tournament) ([]models.Tournament, error) {
	gone := make([]bool, len(tournaments))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)
	for i := range tournaments {
		t := &tournaments[i]
		g.Go(func() error {
			err := r.refresh(gCtx, t)
			if errors.Is(err, ErrTournamentNotFound) {
				gone[i] = true
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	kept := tournaments[:0]
	for i, t := range tournaments {
		if !gone[i] {
			kept = append(kept, t)
		}
	}
	return kept, nil
}
