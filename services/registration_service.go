package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

type RegistrationService interface {
	Register(ctx context.Context, actor Actor, input CreateRegistrationInput) (*models.Registration, error)
	UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateRegistrationStatusInput) (*models.Registration, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID) error
	ListByTournament(ctx context.Context, actor Actor, tournamentID uuid.UUID) ([]models.Registration, error)
	ListMine(ctx context.Context, actor Actor) ([]models.Registration, error)
}

type CreateRegistrationInput struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	TeamName     string    `json:"team_name"`
}

func (i CreateRegistrationInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.TournamentID, validation.By(requiredUUID)),
		validation.Field(&i.TeamName, validation.Length(0, 150)),
	)
}

type UpdateRegistrationStatusInput struct {
	Status models.RegistrationStatus `json:"status"`
}

type registrationService struct {
	registrationRepo repositories.RegistrationRepository
	tournamentRepo   repositories.TournamentRepository
	gameRepo         repositories.GameRepository
	userRepo         repositories.UserRepository
	refresher        *statusRefresher
	notifier         Notifier
	logger           *slog.Logger
}

func NewRegistrationService(
	registrationRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	clock Clock,
	logger *slog.Logger,
) RegistrationService {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	notifier = notifierOrNop(notifier)
	return &registrationService{
		registrationRepo: registrationRepo,
		tournamentRepo:   tournamentRepo,
		gameRepo:         gameRepo,
		userRepo:         userRepo,
		refresher: &statusRefresher{
			tournamentRepo: tournamentRepo,
			clock:          clock,
			notifier:       notifier,
			logger:         logger,
		},
		notifier: notifier,
		logger:   logger,
	}
}

func (s *registrationService) Register(ctx context.Context, actor Actor, input CreateRegistrationInput) (*models.Registration, error) {
	input.TeamName = strings.TrimSpace(input.TeamName)
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	tournament, err := s.getTournament(ctx, input.TournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.RegistrationOpen {
		return nil, ErrRegistrationClosed
	}

	teamName := input.TeamName
	if teamName == "" {
		teamName = fmt.Sprintf("%s's Team", actor.Name)
	}

	registration := &models.Registration{
		ID:           uuid.New(),
		UserID:       actor.ID,
		TournamentID: tournament.ID,
		TeamName:     teamName,
		Status:       models.RegistrationPending,
	}

	// Уникальность (user, tournament) гарантирует ограничение в БД, без предварительной проверки.
	if err := s.registrationRepo.Create(ctx, registration); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationInvalidTournament):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrRegistrationInvalidUser):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("failed to create registration: %w", err)
		}
	}

	publish(s.notifier, tournament.ID, EventRegistrationUpdated, registration)
	return registration, nil
}

func (s *registrationService) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, input UpdateRegistrationStatusInput) (*models.Registration, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidRegistrationStatus
	}

	registration, err := s.getRegistration(ctx, id)
	if err != nil {
		return nil, err
	}

	tournament, err := s.getTournament(ctx, registration.TournamentID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(tournament) {
		return nil, ErrForbiddenOperation
	}

	if err := s.registrationRepo.UpdateStatus(ctx, id, input.Status); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to update registration %s: %w", id, err)
	}
	registration.Status = input.Status

	publish(s.notifier, tournament.ID, EventRegistrationUpdated, registration)
	return registration, nil
}

// Cancel is gated on the freshly derived tournament phase, not on
// registration_open. A registration whose tournament is gone can always be
// cancelled.
func (s *registrationService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) error {
	registration, err := s.getRegistration(ctx, id)
	if err != nil {
		return err
	}
	if registration.UserID != actor.ID && !actor.IsAdmin() {
		return ErrForbiddenOperation
	}

	tournament, err := s.getTournament(ctx, registration.TournamentID)
	switch {
	case errors.Is(err, ErrTournamentNotFound):
		s.logger.InfoContext(ctx, "cancelling registration of a missing tournament",
			slog.String("registration_id", id.String()),
			slog.String("tournament_id", registration.TournamentID.String()),
		)
	case err != nil:
		return err
	default:
		err := s.refresher.refresh(ctx, tournament)
		switch {
		case errors.Is(err, ErrTournamentNotFound):
		case err != nil:
			return err
		case tournament.Status != models.StatusUpcoming:
			return ErrCancellationNotAllowed
		}
	}

	if err := s.registrationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to delete registration %s: %w", id, err)
	}

	publish(s.notifier, registration.TournamentID, EventRegistrationUpdated, map[string]interface{}{
		"id":        registration.ID,
		"cancelled": true,
	})
	return nil
}

func (s *registrationService) ListByTournament(ctx context.Context, actor Actor, tournamentID uuid.UUID) ([]models.Registration, error) {
	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(tournament) {
		return nil, ErrForbiddenOperation
	}

	registrations, err := s.registrationRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of tournament %s: %w", tournamentID, err)
	}

	userIDs := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.userRepo.GetSummaries(ctx, uniqueIDs(userIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate registrant details", slog.Any("error", err))
	}
	for i := range registrations {
		if u, ok := users[registrations[i].UserID]; ok {
			registrations[i].User = &u
		}
	}
	return registrations, nil
}

// ListMine returns the caller's registrations with their tournaments, whose
// status is refreshed on the way out.
func (s *registrationService) ListMine(ctx context.Context, actor Actor) ([]models.Registration, error) {
	registrations, err := s.registrationRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %s: %w", actor.ID, err)
	}
	if len(registrations) == 0 {
		return []models.Registration{}, nil
	}

	tournamentIDs := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		tournamentIDs = append(tournamentIDs, r.TournamentID)
	}
	byID, err := s.tournamentRepo.GetByIDs(ctx, uniqueIDs(tournamentIDs...))
	if err != nil {
		return nil, fmt.Errorf("failed to load tournaments for registrations: %w", err)
	}

	tournaments := make([]models.Tournament, 0, len(byID))
	gameIDs := make([]uuid.UUID, 0, len(byID))
	for _, t := range byID {
		tournaments = append(tournaments, t)
		gameIDs = append(gameIDs, t.GameID)
	}
	tournaments, err = s.refresher.refreshAll(ctx, tournaments)
	if err != nil {
		return nil, err
	}

	games, err := s.gameRepo.GetSummaries(ctx, uniqueIDs(gameIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate game details", slog.Any("error", err))
	}

	summaries := make(map[uuid.UUID]*models.TournamentSummary, len(tournaments))
	for _, t := range tournaments {
		summaries[t.ID] = summarizeTournament(t, games)
	}
	for i := range registrations {
		registrations[i].Tournament = summaries[registrations[i].TournamentID]
	}
	return registrations, nil
}

func (s *registrationService) getRegistration(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	registration, err := s.registrationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration %s: %w", id, err)
	}
	return registration, nil
}

func (s *registrationService) getTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return tournament, nil
}
