package handlers

import (
	"net/http"

	"github.com/Dosada05/esports-tournaments/services"
)

type GameHandler struct {
	gameService       services.GameService
	tournamentService services.TournamentService
}

func NewGameHandler(gs services.GameService, ts services.TournamentService) *GameHandler {
	return &GameHandler{
		gameService:       gs,
		tournamentService: ts,
	}
}

// Create godoc
// @Summary Add a game to the catalogue
// @Tags games
// @Accept json
// @Produce json
// @Param input body services.CreateGameInput true "Game"
// @Success 201 {object} map[string]interface{} "game"
// @Failure 400 {object} map[string]string "validation error or game already exists"
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /games [post]
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var input services.CreateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.CreateGame(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List godoc
// @Summary List games
// @Tags games
// @Produce json
// @Success 200 {object} map[string]interface{} "games"
// @Router /games [get]
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.GetAllGames(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.GetGameByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateGameInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.gameService.UpdateGame(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete godoc
// @Summary Remove a game
// @Tags games
// @Produce json
// @Param gameID path string true "Game ID"
// @Success 200 {object} map[string]string "Game removed"
// @Failure 400 {object} map[string]string "tournaments still reference the game"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /games/{gameID} [delete]
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.gameService.DeleteGame(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "Game removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournaments отдаёт турниры игры; статусы пересчитываются при чтении.
func (h *GameHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListGameTournaments(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
