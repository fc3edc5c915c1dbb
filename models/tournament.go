package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus is the lifecycle phase of a tournament. It is always
// derivable from the date range and the current instant; the stored value is a
// cache refreshed on access.
type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

type DateRange struct {
	Start time.Time `json:"start" db:"start"`
	End   time.Time `json:"end" db:"end"`
}

type Tournament struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Name             string           `json:"name" db:"name"`
	GameID           uuid.UUID        `json:"game_id" db:"game_id"`
	OrganizerID      uuid.UUID        `json:"organizer_id" db:"organizer_id"`
	Format           string           `json:"format" db:"format"`
	Dates            DateRange        `json:"dates" db:"dates"`
	Rules            *string          `json:"rules,omitempty" db:"rules"`
	ImageURL         string           `json:"image_url" db:"image_url"`
	Status           TournamentStatus `json:"status" db:"status"`
	RegistrationOpen bool             `json:"registration_open" db:"registration_open"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Game      *GameSummary `json:"game,omitempty" db:"-"`
	Organizer *UserSummary `json:"organizer,omitempty" db:"-"`
}

// TournamentSummary is embedded into registrations listed for a player.
type TournamentSummary struct {
	ID       uuid.UUID        `json:"id"`
	Name     string           `json:"name"`
	Dates    DateRange        `json:"dates"`
	Status   TournamentStatus `json:"status"`
	ImageURL string           `json:"image_url"`
	Game     *GameSummary     `json:"game,omitempty"`
}

type TournamentStats struct {
	TotalTournaments     int `json:"total_tournaments"`
	UpcomingTournaments  int `json:"upcoming_tournaments"`
	OngoingTournaments   int `json:"ongoing_tournaments"`
	CompletedTournaments int `json:"completed_tournaments"`
	TotalRegistrations   int `json:"total_registrations"`
	TotalMatches         int `json:"total_matches"`
}
