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
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationConflict          = errors.New("user already registered for this tournament")
	ErrRegistrationInvalidTournament = errors.New("invalid tournament reference")
	ErrRegistrationInvalidUser       = errors.New("invalid user reference")
)

type RegistrationRepository interface {
	Create(ctx context.Context, registration *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int, error)
}

type postgresRegistrationRepository struct {
	db *sqlx.DB
}

func NewPostgresRegistrationRepository(db *sqlx.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, user_id, tournament_id, team_name, status, created_at`

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (id, user_id, tournament_id, team_name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		reg.ID, reg.UserID, reg.TournamentID, reg.TeamName, reg.Status,
	).Scan(&reg.CreatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, "registrations_user_id_tournament_id_key"):
			return ErrRegistrationConflict
		case isForeignKeyViolation(err, "registrations_tournament_id_fkey"):
			return ErrRegistrationInvalidTournament
		case isForeignKeyViolation(err, "registrations_user_id_fkey"):
			return ErrRegistrationInvalidUser
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`

	var reg models.Registration
	if err := r.db.GetContext(ctx, &reg, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Registration, error) {
	result := make(map[uuid.UUID]models.Registration, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ANY($1)`

	var regs []models.Registration
	if err := r.db.SelectContext(ctx, &regs, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to load registrations by ids: %w", err)
	}
	for _, reg := range regs {
		result[reg.ID] = reg
	}
	return result, nil
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE tournament_id = $1 ORDER BY created_at DESC`

	regs := make([]models.Registration, 0)
	if err := r.db.SelectContext(ctx, &regs, query, tournamentID); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`

	regs := make([]models.Registration, 0)
	if err := r.db.SelectContext(ctx, &regs, query, userID); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RegistrationStatus) error {
	query := `UPDATE registrations SET status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM registrations WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

func (r *postgresRegistrationRepository) DeleteByTournament(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	query := `DELETE FROM registrations WHERE tournament_id = $1`

	result, err := r.db.ExecContext(ctx, query, tournamentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postgresRegistrationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM registrations`); err != nil {
		return 0, err
	}
	return count, nil
}
