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
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrUserEmailConflict
		}
		return err
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *postgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *models.User) error {
	query := `UPDATE users SET name = $1, password_hash = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.PasswordHash, user.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.UserSummary, error) {
	result := make(map[uuid.UUID]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name, email FROM users WHERE id = ANY($1)`

	var summaries []models.UserSummary
	if err := r.db.SelectContext(ctx, &summaries, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to load user summaries: %w", err)
	}
	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}
