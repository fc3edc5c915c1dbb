package services

import (
	"github.com/google/uuid"
)

const (
	EventMatchCreated            = "MATCH_CREATED"
	EventMatchUpdated            = "MATCH_UPDATED"
	EventMatchDeleted            = "MATCH_DELETED"
	EventTournamentStatusChanged = "TOURNAMENT_STATUS_CHANGED"
	EventRegistrationUpdated     = "REGISTRATION_UPDATED"
)

// Notifier pushes live updates to clients subscribed to a room.
// Implementations must not block the caller.
type Notifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type LiveMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	RoomID  string      `json:"room_id,omitempty"`
}

func TournamentRoom(tournamentID uuid.UUID) string {
	return "tournament_" + tournamentID.String()
}

type nopNotifier struct{}

func (nopNotifier) BroadcastToRoom(string, interface{}) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func publish(n Notifier, tournamentID uuid.UUID, eventType string, payload interface{}) {
	room := TournamentRoom(tournamentID)
	n.BroadcastToRoom(room, LiveMessage{Type: eventType, Payload: payload, RoomID: room})
}
