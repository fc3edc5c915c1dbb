package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchInvalidTournament = errors.New("invalid tournament reference for match")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error)
	ListByTeams(ctx context.Context, registrationIDs []uuid.UUID) ([]models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int, error)
}

type postgresMatchRepository struct {
	db *sqlx.DB
}

func NewPostgresMatchRepository(db *sqlx.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, team_a, team_b, score_a, score_b, date, winner, status, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (id, tournament_id, team_a, team_b, score_a, score_b, date, winner, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		m.ID, m.TournamentID, m.TeamA, m.TeamB, m.ScoreA, m.ScoreB, m.Date, m.Winner, m.Status,
	).Scan(&m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err, "matches_tournament_id_fkey") {
			return ErrMatchInvalidTournament
		}
		return err
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	var m models.Match
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY date ASC`

	matches := make([]models.Match, 0)
	if err := r.db.SelectContext(ctx, &matches, query, tournamentID); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByTeams(ctx context.Context, registrationIDs []uuid.UUID) ([]models.Match, error) {
	matches := make([]models.Match, 0)
	if len(registrationIDs) == 0 {
		return matches, nil
	}

	query := `SELECT ` + matchColumns + ` FROM matches WHERE team_a = ANY($1) OR team_b = ANY($1) ORDER BY date ASC`

	if err := r.db.SelectContext(ctx, &matches, query, uuidArray(registrationIDs)); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, m *models.Match) error {
	query := `UPDATE matches SET score_a = $1, score_b = $2, status = $3, winner = $4 WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, m.ScoreA, m.ScoreB, m.Status, m.Winner, m.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM matches WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	query := `DELETE FROM matches WHERE tournament_id = $1`

	result, err := r.db.ExecContext(ctx, query, tournamentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresMatchRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM matches`); err != nil {
		return 0, err
	}
	return count, nil
}
