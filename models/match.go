package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchScheduled MatchStatus = "scheduled"
	MatchOngoing   MatchStatus = "ongoing"
	MatchCompleted MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchScheduled, MatchOngoing, MatchCompleted:
		return true
	}
	return false
}

// Match references both teams and the winner by registration id.
type Match struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	TournamentID uuid.UUID   `json:"tournament_id" db:"tournament_id"`
	TeamA        uuid.UUID   `json:"team_a" db:"team_a"`
	TeamB        uuid.UUID   `json:"team_b" db:"team_b"`
	ScoreA       int         `json:"score_a" db:"score_a"`
	ScoreB       int         `json:"score_b" db:"score_b"`
	Date         time.Time   `json:"date" db:"date"`
	Winner       *uuid.UUID  `json:"winner,omitempty" db:"winner"`
	Status       MatchStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// MatchTeam is a registration as shown inside a match.
type MatchTeam struct {
	ID       uuid.UUID    `json:"id"`
	TeamName string       `json:"team_name"`
	User     *UserSummary `json:"user,omitempty"`
}

// MatchView is a match with its related names populated for display.
type MatchView struct {
	Match
	TeamAInfo  *MatchTeam     `json:"team_a_info,omitempty"`
	TeamBInfo  *MatchTeam     `json:"team_b_info,omitempty"`
	WinnerInfo *MatchTeam     `json:"winner_info,omitempty"`
	Tournament *TournamentRef `json:"tournament,omitempty"`
}

type TournamentRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
