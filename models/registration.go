package models

import (
	"time"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationApproved, RegistrationRejected:
		return true
	}
	return false
}

type Registration struct {
	ID           uuid.UUID          `json:"id" db:"id"`
	UserID       uuid.UUID          `json:"user_id" db:"user_id"`
	TournamentID uuid.UUID          `json:"tournament_id" db:"tournament_id"`
	TeamName     string             `json:"team_name" db:"team_name"`
	Status       RegistrationStatus `json:"status" db:"status"`
	CreatedAt    time.Time          `json:"created_at" db:"created_at"`

	User       *UserSummary       `json:"user,omitempty" db:"-"`
	Tournament *TournamentSummary `json:"tournament,omitempty" db:"-"`
}
