package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrTournamentCreationFailed = errors.New("failed to create tournament")
	ErrTournamentUpdateFailed   = errors.New("failed to update tournament")
	ErrTournamentDeleteFailed   = errors.New("failed to delete tournament")
)

type TournamentService interface {
	CreateTournament(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListTournaments(ctx context.Context) ([]models.Tournament, error)
	ListOrganizerTournaments(ctx context.Context, actor Actor) ([]models.Tournament, error)
	ListGameTournaments(ctx context.Context, gameID uuid.UUID) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, actor Actor, id uuid.UUID) error
	GetStats(ctx context.Context, actor Actor) (*models.TournamentStats, error)
}

type CreateTournamentInput struct {
	Name      string    `json:"name"`
	GameID    uuid.UUID `json:"game_id"`
	Format    string    `json:"format"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Rules     string    `json:"rules"`
	ImageURL  string    `json:"image_url"`
}

func (i CreateTournamentInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(1, 150)),
		validation.Field(&i.GameID, validation.By(requiredUUID)),
		validation.Field(&i.Format, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.StartDate, validation.Required),
		validation.Field(&i.EndDate, validation.Required),
	)
}

// UpdateTournamentInput is a partial update: only keys present in the request
// body are applied. null counts as absent except for rules, where it clears.
type UpdateTournamentInput struct {
	Name             Optional[string]    `json:"name"`
	Format           Optional[string]    `json:"format"`
	StartDate        Optional[time.Time] `json:"start_date"`
	EndDate          Optional[time.Time] `json:"end_date"`
	Rules            Optional[string]    `json:"rules"`
	ImageURL         Optional[string]    `json:"image_url"`
	RegistrationOpen Optional[bool]      `json:"registration_open"`

	// Принимается для совместимости с клиентами и игнорируется: статус всегда вычисляется по датам.
	Status Optional[string] `json:"status"`
}

func (i UpdateTournamentInput) Validate() error {
	errs := validation.Errors{}
	if name, ok := i.Name.Get(); ok {
		errs["name"] = validation.Validate(strings.TrimSpace(name), validation.Required, validation.Length(1, 150))
	}
	if format, ok := i.Format.Get(); ok {
		errs["format"] = validation.Validate(strings.TrimSpace(format), validation.Required, validation.Length(1, 100))
	}
	if start, ok := i.StartDate.Get(); ok {
		errs["start_date"] = validation.Validate(start, validation.Required)
	}
	if end, ok := i.EndDate.Get(); ok {
		errs["end_date"] = validation.Validate(end, validation.Required)
	}
	return errs.Filter()
}

func requiredUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return errors.New("cannot be blank")
	}
	return nil
}

type tournamentService struct {
	tournamentRepo   repositories.TournamentRepository
	gameRepo         repositories.GameRepository
	userRepo         repositories.UserRepository
	registrationRepo repositories.RegistrationRepository
	matchRepo        repositories.MatchRepository
	refresher        *statusRefresher
	clock            Clock
	logger           *slog.Logger
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	gameRepo repositories.GameRepository,
	userRepo repositories.UserRepository,
	registrationRepo repositories.RegistrationRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	clock Clock,
	logger *slog.Logger,
) TournamentService {
	if clock == nil {
		clock = SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		tournamentRepo:   tournamentRepo,
		gameRepo:         gameRepo,
		userRepo:         userRepo,
		registrationRepo: registrationRepo,
		matchRepo:        matchRepo,
		refresher: &statusRefresher{
			tournamentRepo: tournamentRepo,
			clock:          clock,
			notifier:       notifierOrNop(notifier),
			logger:         logger,
		},
		clock:  clock,
		logger: logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, actor Actor, input CreateTournamentInput) (*models.Tournament, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Format = strings.TrimSpace(input.Format)
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	if _, err := s.gameRepo.GetByID(ctx, input.GameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to check game %s: %w", input.GameID, err)
	}

	start, end := input.StartDate.UTC(), input.EndDate.UTC()
	tournament := &models.Tournament{
		ID:               uuid.New(),
		Name:             input.Name,
		GameID:           input.GameID,
		OrganizerID:      actor.ID,
		Format:           input.Format,
		Dates:            models.DateRange{Start: start, End: end},
		Rules:            optionalText(input.Rules),
		ImageURL:         strings.TrimSpace(input.ImageURL),
		Status:           DeriveStatus(start, end, s.clock()),
		RegistrationOpen: true,
	}
	if tournament.ImageURL == "" {
		tournament.ImageURL = defaultImageURL("TOURNAMENT")
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentInvalidGame):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrTournamentInvalidOrganizer):
			return nil, ErrUserNotFound
		default:
			return nil, fmt.Errorf("%w: %w", ErrTournamentCreationFailed, err)
		}
	}

	s.populateOne(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.getRefreshed(ctx, id)
	if err != nil {
		return nil, err
	}
	s.populateOne(ctx, tournament)
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context) ([]models.Tournament, error) {
	return s.list(ctx, repositories.ListTournamentsFilter{Order: repositories.OrderByStartDate})
}

func (s *tournamentService) ListOrganizerTournaments(ctx context.Context, actor Actor) ([]models.Tournament, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}
	return s.list(ctx, repositories.ListTournamentsFilter{
		OrganizerID: &actor.ID,
		Order:       repositories.OrderByNewest,
	})
}

func (s *tournamentService) ListGameTournaments(ctx context.Context, gameID uuid.UUID) ([]models.Tournament, error) {
	if _, err := s.gameRepo.GetByID(ctx, gameID); err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return s.list(ctx, repositories.ListTournamentsFilter{
		GameID: &gameID,
		Order:  repositories.OrderByStartDate,
	})
}

func (s *tournamentService) list(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	if tournaments == nil {
		return []models.Tournament{}, nil
	}

	tournaments, err = s.refresher.refreshAll(ctx, tournaments)
	if err != nil {
		return nil, err
	}

	s.populate(ctx, tournaments)
	return tournaments, nil
}

func (s *tournamentService) UpdateTournament(ctx context.Context, actor Actor, id uuid.UUID, input UpdateTournamentInput) (*models.Tournament, error) {
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	tournament, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(tournament) {
		return nil, ErrForbiddenOperation
	}

	if name, ok := input.Name.Get(); ok {
		tournament.Name = strings.TrimSpace(name)
	}
	if format, ok := input.Format.Get(); ok {
		tournament.Format = strings.TrimSpace(format)
	}
	if start, ok := input.StartDate.Get(); ok {
		tournament.Dates.Start = start.UTC()
	}
	if end, ok := input.EndDate.Get(); ok {
		tournament.Dates.End = end.UTC()
	}
	if rules, ok := input.Rules.GetOrClear(); ok {
		tournament.Rules = optionalText(rules)
	}
	if imageURL, ok := input.ImageURL.Get(); ok {
		tournament.ImageURL = strings.TrimSpace(imageURL)
		if tournament.ImageURL == "" {
			tournament.ImageURL = defaultImageURL("TOURNAMENT")
		}
	}
	if open, ok := input.RegistrationOpen.Get(); ok {
		tournament.RegistrationOpen = open
	}

	if err := validateDateRange(tournament.Dates.Start, tournament.Dates.End); err != nil {
		return nil, err
	}

	previous := tournament.Status
	tournament.Status = DeriveStatus(tournament.Dates.Start, tournament.Dates.End, s.clock())

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("%w (id: %s): %w", ErrTournamentUpdateFailed, id, err)
	}

	if previous != tournament.Status {
		publish(s.refresher.notifier, tournament.ID, EventTournamentStatusChanged, map[string]interface{}{
			"tournament_id": tournament.ID,
			"status":        tournament.Status,
		})
	}

	s.populateOne(ctx, tournament)
	return tournament, nil
}

// DeleteTournament removes the tournament together with its registrations and
// matches. The steps are not atomic: a failure part way leaves the earlier
// deletions in place.
func (s *tournamentService) DeleteTournament(ctx context.Context, actor Actor, id uuid.UUID) error {
	tournament, err := s.getStored(ctx, id)
	if err != nil {
		return err
	}
	if !actor.owns(tournament) {
		return ErrForbiddenOperation
	}

	regCount, err := s.registrationRepo.DeleteByTournament(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: registrations of %s: %w", ErrTournamentDeleteFailed, id, err)
	}

	matchCount, err := s.matchRepo.DeleteByTournament(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "tournament cascade interrupted after registrations",
			slog.String("tournament_id", id.String()),
			slog.Int64("registrations_deleted", regCount),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: matches of %s: %w", ErrTournamentDeleteFailed, id, err)
	}

	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		s.logger.ErrorContext(ctx, "tournament cascade interrupted after matches",
			slog.String("tournament_id", id.String()),
			slog.Int64("registrations_deleted", regCount),
			slog.Int64("matches_deleted", matchCount),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w (id: %s): %w", ErrTournamentDeleteFailed, id, err)
	}

	s.logger.InfoContext(ctx, "tournament deleted",
		slog.String("tournament_id", id.String()),
		slog.Int64("registrations_deleted", regCount),
		slog.Int64("matches_deleted", matchCount),
	)
	return nil
}

// GetStats counts by stored status; it does not refresh anything.
func (s *tournamentService) GetStats(ctx context.Context, actor Actor) (*models.TournamentStats, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}

	var stats models.TournamentStats
	upcoming, ongoing, completed := models.StatusUpcoming, models.StatusOngoing, models.StatusCompleted

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalTournaments, err = s.tournamentRepo.Count(gCtx, nil)
		return err
	})
	g.Go(func() (err error) {
		stats.UpcomingTournaments, err = s.tournamentRepo.Count(gCtx, &upcoming)
		return err
	})
	g.Go(func() (err error) {
		stats.OngoingTournaments, err = s.tournamentRepo.Count(gCtx, &ongoing)
		return err
	})
	g.Go(func() (err error) {
		stats.CompletedTournaments, err = s.tournamentRepo.Count(gCtx, &completed)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalRegistrations, err = s.registrationRepo.Count(gCtx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalMatches, err = s.matchRepo.Count(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to collect tournament stats: %w", err)
	}
	return &stats, nil
}

func (s *tournamentService) getStored(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) getRefreshed(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.refresher.refresh(ctx, tournament); err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) populateOne(ctx context.Context, t *models.Tournament) {
	batch := []models.Tournament{*t}
	s.populate(ctx, batch)
	*t = batch[0]
}

// populate fills game and organizer summaries. Lookup failures are logged and
// leave the fields empty.
func (s *tournamentService) populate(ctx context.Context, tournaments []models.Tournament) {
	gameIDs := make([]uuid.UUID, 0, len(tournaments))
	organizerIDs := make([]uuid.UUID, 0, len(tournaments))
	for _, t := range tournaments {
		gameIDs = append(gameIDs, t.GameID)
		organizerIDs = append(organizerIDs, t.OrganizerID)
	}

	games, err := s.gameRepo.GetSummaries(ctx, uniqueIDs(gameIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate game details", slog.Any("error", err))
	}
	organizers, err := s.userRepo.GetSummaries(ctx, uniqueIDs(organizerIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate organizer details", slog.Any("error", err))
	}

	for i := range tournaments {
		if g, ok := games[tournaments[i].GameID]; ok {
			tournaments[i].Game = &g
		}
		if o, ok := organizers[tournaments[i].OrganizerID]; ok {
			o.Email = ""
			tournaments[i].Organizer = &o
		}
	}
}

func validateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return fmt.Errorf("%w: start date (%s), end date (%s)", ErrTournamentInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}
