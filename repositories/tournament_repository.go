package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTournamentNotFound         = errors.New("tournament not found")
	ErrTournamentInvalidGame      = errors.New("invalid game reference")
	ErrTournamentInvalidOrganizer = errors.New("invalid organizer reference")
	ErrTournamentInUse            = errors.New("tournament is in use (registrations/matches exist)")
)

type TournamentOrder int

const (
	// OrderByStartDate sorts by start date ascending.
	OrderByStartDate TournamentOrder = iota
	// OrderByNewest sorts by creation time descending.
	OrderByNewest
)

type ListTournamentsFilter struct {
	GameID      *uuid.UUID
	OrganizerID *uuid.UUID
	Status      *models.TournamentStatus
	Order       TournamentOrder
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TournamentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, status *models.TournamentStatus) (int, error)
}

type postgresTournamentRepository struct {
	db *sqlx.DB
}

func NewPostgresTournamentRepository(db *sqlx.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

// Даты собираются во вложенную структуру DateRange через алиасы "dates.*".
const tournamentColumns = `
	id, name, game_id, organizer_id, format,
	start_date AS "dates.start", end_date AS "dates.end",
	rules, image_url, status, registration_open, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, name, game_id, organizer_id, format,
			start_date, end_date, rules, image_url, status, registration_open
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		t.ID, t.Name, t.GameID, t.OrganizerID, t.Format,
		t.Dates.Start, t.Dates.End, t.Rules, t.ImageURL, t.Status, t.RegistrationOpen,
	).Scan(&t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	var t models.Tournament
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Tournament, error) {
	result := make(map[uuid.UUID]models.Tournament, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = ANY($1)`

	var tournaments []models.Tournament
	if err := r.db.SelectContext(ctx, &tournaments, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to load tournaments by ids: %w", err)
	}
	for _, t := range tournaments {
		result[t.ID] = t
	}
	return result, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.GameID != nil {
		query += fmt.Sprintf(" AND game_id = $%d", argID)
		args = append(args, *filter.GameID)
		argID++
	}
	if filter.OrganizerID != nil {
		query += fmt.Sprintf(" AND organizer_id = $%d", argID)
		args = append(args, *filter.OrganizerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
	}

	switch filter.Order {
	case OrderByNewest:
		query += " ORDER BY created_at DESC"
	default:
		query += " ORDER BY start_date ASC, created_at ASC"
	}

	tournaments := make([]models.Tournament, 0)
	if err := r.db.SelectContext(ctx, &tournaments, query, args...); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1, format = $2, start_date = $3, end_date = $4,
			rules = $5, image_url = $6, status = $7, registration_open = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Format, t.Dates.Start, t.Dates.End,
		t.Rules, t.ImageURL, t.Status, t.RegistrationOpen, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tournaments WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Count(ctx context.Context, status *models.TournamentStatus) (int, error) {
	var (
		count int
		err   error
	)
	if status == nil {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tournaments`)
	} else {
		err = r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tournaments WHERE status = $1`, *status)
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if isForeignKeyViolation(err, "tournaments_game_id_fkey") {
		return ErrTournamentInvalidGame
	}
	if isForeignKeyViolation(err, "tournaments_organizer_id_fkey") {
		return ErrTournamentInvalidOrganizer
	}
	// Остальные FK-нарушения приходят от registrations/matches при удалении турнира.
	if isForeignKeyViolation(err, "") {
		return ErrTournamentInUse
	}
	return err
}
