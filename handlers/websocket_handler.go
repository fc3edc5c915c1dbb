package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-tournaments/live"
	"github.com/Dosada05/esports-tournaments/services"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub               *live.Hub
	tournamentService services.TournamentService
	upgrader          websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an
// empty list allows any origin.
func NewWebSocketHandler(hub *live.Hub, ts services.TournamentService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:               hub,
		tournamentService: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретного турнира.
// Клиент должен подключаться к /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Комнату открываем только для существующего турнира
	if _, err := h.tournamentService.GetTournamentByID(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой
		slog.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("tournament_id", tournamentID.String()),
			slog.Any("error", err),
		)
		return
	}

	if err := h.hub.Attach(conn, services.TournamentRoom(tournamentID)); err != nil {
		slog.WarnContext(r.Context(), "websocket attach failed", slog.Any("error", err))
	}
}
