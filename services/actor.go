package services

import (
	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
)

// Actor is the authenticated caller as decoded from the bearer token.
type Actor struct {
	ID   uuid.UUID
	Role models.UserRole
	Name string
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// CanOrganize reports whether the actor may manage games, tournaments and matches.
func (a Actor) CanOrganize() bool {
	return a.Role == models.RoleOrganizer || a.Role == models.RoleAdmin
}

// owns is the organizer-of-record check; admins pass unconditionally.
func (a Actor) owns(t *models.Tournament) bool {
	return a.IsAdmin() || t.OrganizerID == a.ID
}
