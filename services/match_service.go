package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

// ErrMatchesListFailed - общая ошибка для листинга матчей
var ErrMatchesListFailed = errors.New("failed to list matches")

type MatchService interface {
	CreateMatch(ctx context.Context, actor Actor, input CreateMatchInput) (*models.MatchView, error)
	GetMatchByID(ctx context.Context, id uuid.UUID) (*models.MatchView, error)
	ListTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]models.MatchView, error)
	ListPlayerMatches(ctx context.Context, actor Actor) ([]models.MatchView, error)
	UpdateResults(ctx context.Context, actor Actor, id uuid.UUID, input UpdateMatchInput) (*models.MatchView, error)
	DeleteMatch(ctx context.Context, actor Actor, id uuid.UUID) error
}

type CreateMatchInput struct {
	TournamentID uuid.UUID `json:"tournament_id"`
	TeamAID      uuid.UUID `json:"team_a_id"`
	TeamBID      uuid.UUID `json:"team_b_id"`
	Date         time.Time `json:"date"`
}

func (i CreateMatchInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.TournamentID, validation.By(requiredUUID)),
		validation.Field(&i.TeamAID, validation.By(requiredUUID)),
		validation.Field(&i.TeamBID, validation.By(requiredUUID)),
		validation.Field(&i.Date, validation.Required),
	)
}

// UpdateMatchInput carries an explicit zero score as a non-nil pointer.
type UpdateMatchInput struct {
	ScoreA *int                `json:"score_a"`
	ScoreB *int                `json:"score_b"`
	Status *models.MatchStatus `json:"status"`
}

type matchService struct {
	matchRepo        repositories.MatchRepository
	tournamentRepo   repositories.TournamentRepository
	registrationRepo repositories.RegistrationRepository
	userRepo         repositories.UserRepository
	notifier         Notifier
	logger           *slog.Logger
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	registrationRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	logger *slog.Logger,
) MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		matchRepo:        matchRepo,
		tournamentRepo:   tournamentRepo,
		registrationRepo: registrationRepo,
		userRepo:         userRepo,
		notifier:         notifierOrNop(notifier),
		logger:           logger,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, actor Actor, input CreateMatchInput) (*models.MatchView, error) {
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	tournament, err := s.getTournament(ctx, input.TournamentID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(tournament) {
		return nil, ErrForbiddenOperation
	}
	if input.TeamAID == input.TeamBID {
		return nil, ErrSameTeams
	}

	teams, err := s.registrationRepo.GetByIDs(ctx, []uuid.UUID{input.TeamAID, input.TeamBID})
	if err != nil {
		return nil, fmt.Errorf("failed to load match teams: %w", err)
	}
	for _, id := range []uuid.UUID{input.TeamAID, input.TeamBID} {
		team, ok := teams[id]
		if !ok || team.TournamentID != tournament.ID || team.Status != models.RegistrationApproved {
			return nil, ErrTeamsNotApproved
		}
	}

	match := &models.Match{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		TeamA:        input.TeamAID,
		TeamB:        input.TeamBID,
		Date:         input.Date.UTC(),
		Status:       models.MatchScheduled,
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchInvalidTournament) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	view := s.buildViews(ctx, []models.Match{*match}, false)[0]
	publish(s.notifier, match.TournamentID, EventMatchCreated, view)
	return &view, nil
}

func (s *matchService) GetMatchByID(ctx context.Context, id uuid.UUID) (*models.MatchView, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	view := s.buildViews(ctx, []models.Match{*match}, true)[0]
	return &view, nil
}

func (s *matchService) ListTournamentMatches(ctx context.Context, tournamentID uuid.UUID) ([]models.MatchView, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: tournament %s: %w", ErrMatchesListFailed, tournamentID, err)
	}
	return s.buildViews(ctx, matches, false), nil
}

// ListPlayerMatches finds the caller's registrations first and then every
// match either of them plays in.
func (s *matchService) ListPlayerMatches(ctx context.Context, actor Actor) ([]models.MatchView, error) {
	registrations, err := s.registrationRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations of user %s: %w", actor.ID, err)
	}
	if len(registrations) == 0 {
		return []models.MatchView{}, nil
	}

	ids := make([]uuid.UUID, 0, len(registrations))
	for _, r := range registrations {
		ids = append(ids, r.ID)
	}

	matches, err := s.matchRepo.ListByTeams(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: player %s: %w", ErrMatchesListFailed, actor.ID, err)
	}
	return s.buildViews(ctx, matches, true), nil
}

func (s *matchService) UpdateResults(ctx context.Context, actor Actor, id uuid.UUID, input UpdateMatchInput) (*models.MatchView, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return nil, err
	}
	if !actor.owns(tournament) {
		return nil, ErrForbiddenOperation
	}

	if (input.ScoreA != nil && *input.ScoreA < 0) || (input.ScoreB != nil && *input.ScoreB < 0) {
		return nil, ErrNegativeScore
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, ErrInvalidMatchStatus
	}

	if input.ScoreA != nil {
		match.ScoreA = *input.ScoreA
	}
	if input.ScoreB != nil {
		match.ScoreB = *input.ScoreB
	}
	if input.Status != nil {
		match.Status = *input.Status
	}
	resolveWinner(match)

	if err := s.matchRepo.Update(ctx, match); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to update match %s: %w", id, err)
	}

	view := s.buildViews(ctx, []models.Match{*match}, false)[0]
	publish(s.notifier, match.TournamentID, EventMatchUpdated, view)
	return &view, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, actor Actor, id uuid.UUID) error {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return err
	}

	tournament, err := s.getTournament(ctx, match.TournamentID)
	if err != nil {
		return err
	}
	if !actor.owns(tournament) {
		return ErrForbiddenOperation
	}
	if match.Status != models.MatchScheduled {
		return ErrMatchNotDeletable
	}

	if err := s.matchRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}

	publish(s.notifier, match.TournamentID, EventMatchDeleted, map[string]interface{}{"id": match.ID})
	return nil
}

// resolveWinner sets the winner of a completed match from its scores; a draw
// clears it. A match that is not completed has no winner.
func resolveWinner(m *models.Match) {
	if m.Status != models.MatchCompleted {
		m.Winner = nil
		return
	}
	switch {
	case m.ScoreA > m.ScoreB:
		winner := m.TeamA
		m.Winner = &winner
	case m.ScoreB > m.ScoreA:
		winner := m.TeamB
		m.Winner = &winner
	default:
		m.Winner = nil
	}
}

// buildViews populates team, registrant and winner names. withTournament adds
// the tournament name. References to deleted registrations stay unpopulated.
func (s *matchService) buildViews(ctx context.Context, matches []models.Match, withTournament bool) []models.MatchView {
	views := make([]models.MatchView, len(matches))
	if len(matches) == 0 {
		return views
	}

	teamIDs := make([]uuid.UUID, 0, len(matches)*3)
	tournamentIDs := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		teamIDs = append(teamIDs, m.TeamA, m.TeamB)
		if m.Winner != nil {
			teamIDs = append(teamIDs, *m.Winner)
		}
		tournamentIDs = append(tournamentIDs, m.TournamentID)
	}

	teams, err := s.registrationRepo.GetByIDs(ctx, uniqueIDs(teamIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate match teams", slog.Any("error", err))
	}

	userIDs := make([]uuid.UUID, 0, len(teams))
	for _, t := range teams {
		userIDs = append(userIDs, t.UserID)
	}
	users, err := s.userRepo.GetSummaries(ctx, uniqueIDs(userIDs...))
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to populate team owners", slog.Any("error", err))
	}

	var tournaments map[uuid.UUID]models.Tournament
	if withTournament {
		tournaments, err = s.tournamentRepo.GetByIDs(ctx, uniqueIDs(tournamentIDs...))
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to populate match tournaments", slog.Any("error", err))
		}
	}

	teamInfo := func(id uuid.UUID, withUser bool) *models.MatchTeam {
		reg, ok := teams[id]
		if !ok {
			return nil
		}
		info := &models.MatchTeam{ID: reg.ID, TeamName: reg.TeamName}
		if u, ok := users[reg.UserID]; ok && withUser {
			info.User = &models.UserSummary{ID: u.ID, Name: u.Name}
		}
		return info
	}

	for i, m := range matches {
		views[i] = models.MatchView{
			Match:     m,
			TeamAInfo: teamInfo(m.TeamA, true),
			TeamBInfo: teamInfo(m.TeamB, true),
		}
		if m.Winner != nil {
			views[i].WinnerInfo = teamInfo(*m.Winner, false)
		}
		if t, ok := tournaments[m.TournamentID]; ok {
			views[i].Tournament = &models.TournamentRef{ID: t.ID, Name: t.Name}
		}
	}
	return views
}

func (s *matchService) getMatch(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return match, nil
}

func (s *matchService) getTournament(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return tournament, nil
}
