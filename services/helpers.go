package services

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optionalText trims s and returns nil for an empty result.
func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func validationError(err error) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
}

// defaultImageURL returns one of the five stock images for the given kind.
func defaultImageURL(kind string) string {
	return fmt.Sprintf("IMAGE_%s_%d", kind, rand.IntN(5)+1)
}

func uniqueIDs(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	result := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func summarizeTournament(t models.Tournament, games map[uuid.UUID]models.GameSummary) *models.TournamentSummary {
	summary := &models.TournamentSummary{
		ID:       t.ID,
		Name:     t.Name,
		Dates:    t.Dates,
		Status:   t.Status,
		ImageURL: t.ImageURL,
	}
	if g, ok := games[t.GameID]; ok {
		summary.Game = &g
	}
	return summary
}
