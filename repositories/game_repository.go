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
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNameConflict = errors.New("game name conflict")
	ErrGameInUse        = errors.New("game cannot be deleted as it is in use") // Для ошибки FK при удалении
)

type GameRepository interface {
	Create(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	GetAll(ctx context.Context) ([]models.Game, error)
	Update(ctx context.Context, game *models.Game) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.GameSummary, error)
}

type postgresGameRepository struct {
	db *sqlx.DB
}

func NewPostgresGameRepository(db *sqlx.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, name, description, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.db.QueryRowxContext(ctx, query,
		game.ID, game.Name, game.Description, game.ImageURL,
	).Scan(&game.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "games_name_key") {
			return ErrGameNameConflict
		}
		return err
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	query := `SELECT id, name, description, image_url, created_at FROM games WHERE id = $1`

	var game models.Game
	if err := r.db.GetContext(ctx, &game, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

func (r *postgresGameRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	query := `SELECT id, name, description, image_url, created_at FROM games ORDER BY name ASC` // Сортировка по имени

	games := make([]models.Game, 0)
	if err := r.db.SelectContext(ctx, &games, query); err != nil {
		return nil, err
	}
	return games, nil
}

func (r *postgresGameRepository) Update(ctx context.Context, game *models.Game) error {
	query := `UPDATE games SET name = $1, description = $2, image_url = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, game.Name, game.Description, game.ImageURL, game.ID)
	if err != nil {
		if isUniqueViolation(err, "games_name_key") {
			return ErrGameNameConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM games WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		// tournaments.game_id ссылается на games с ON DELETE RESTRICT
		if isForeignKeyViolation(err, "tournaments_game_id_fkey") {
			return ErrGameInUse
		}
		return err
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) GetSummaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.GameSummary, error) {
	result := make(map[uuid.UUID]models.GameSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT id, name FROM games WHERE id = ANY($1)`

	var summaries []models.GameSummary
	if err := r.db.SelectContext(ctx, &summaries, query, uuidArray(ids)); err != nil {
		return nil, fmt.Errorf("failed to load game summaries: %w", err)
	}
	for _, s := range summaries {
		result[s.ID] = s
	}
	return result, nil
}
