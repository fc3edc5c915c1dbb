package handlers

import (
	"net/http"

	"github.com/Dosada05/esports-tournaments/services"
)

type RegistrationHandler struct {
	registrationService services.RegistrationService
}

func NewRegistrationHandler(rs services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: rs,
	}
}

// Register godoc
// @Summary Register a team for a tournament
// @Tags registrations
// @Accept json
// @Produce json
// @Param input body services.CreateRegistrationInput true "Tournament and optional team name"
// @Success 201 {object} map[string]interface{} "registration"
// @Failure 400 {object} map[string]string "registration closed or already registered"
// @Failure 404 {object} map[string]string "tournament not found"
// @Security BearerAuth
// @Router /registrations [post]
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var input services.CreateRegistrationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.Register(r.Context(), actor, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	registrations, err := h.registrationService.ListMine(r.Context(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListByTournament(r.Context(), actor, tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatus godoc
// @Summary Approve, reject or reset a registration
// @Tags registrations
// @Accept json
// @Produce json
// @Param registrationID path string true "Registration ID"
// @Param input body services.UpdateRegistrationStatusInput true "pending | approved | rejected"
// @Success 200 {object} map[string]interface{} "registration"
// @Failure 400 {object} map[string]string "invalid status"
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /registrations/{registrationID} [put]
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateRegistrationStatusInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.UpdateStatus(r.Context(), actor, id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := getIDFromURL(r, "registrationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.registrationService.Cancel(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "Registration cancelled"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
