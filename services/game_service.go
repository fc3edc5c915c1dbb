package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

var (
	ErrGameCreationFailed = errors.New("failed to create game")
	ErrGameUpdateFailed   = errors.New("failed to update game")
	ErrGameDeleteFailed   = errors.New("failed to delete game")
)

type GameService interface {
	CreateGame(ctx context.Context, actor Actor, input CreateGameInput) (*models.Game, error)
	GetGameByID(ctx context.Context, id uuid.UUID) (*models.Game, error)
	GetAllGames(ctx context.Context) ([]models.Game, error)
	UpdateGame(ctx context.Context, actor Actor, id uuid.UUID, input UpdateGameInput) (*models.Game, error)
	DeleteGame(ctx context.Context, actor Actor, id uuid.UUID) error
}

type CreateGameInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (i CreateGameInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&i.Description, validation.Length(0, 2000)),
	)
}

type UpdateGameInput struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
	ImageURL    Optional[string] `json:"image_url"`
}

func (i UpdateGameInput) Validate() error {
	errs := validation.Errors{}
	if name, ok := i.Name.Get(); ok {
		errs["name"] = validation.Validate(strings.TrimSpace(name), validation.Required, validation.Length(1, 100))
	}
	if description, ok := i.Description.GetOrClear(); ok {
		errs["description"] = validation.Validate(description, validation.Length(0, 2000))
	}
	return errs.Filter()
}

type gameService struct {
	gameRepo repositories.GameRepository
}

func NewGameService(gameRepo repositories.GameRepository) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

func (s *gameService) CreateGame(ctx context.Context, actor Actor, input CreateGameInput) (*models.Game, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}

	input.Name = strings.TrimSpace(input.Name)
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	game := &models.Game{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: optionalText(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if game.ImageURL == "" {
		game.ImageURL = defaultImageURL("GAME")
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, repositories.ErrGameNameConflict) {
			return nil, ErrGameNameConflict
		}
		return nil, fmt.Errorf("%w: %w", ErrGameCreationFailed, err)
	}

	return game, nil
}

func (s *gameService) GetGameByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game by id %s: %w", id, err)
	}
	return game, nil
}

func (s *gameService) GetAllGames(ctx context.Context) ([]models.Game, error) {
	games, err := s.gameRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all games: %w", err)
	}
	if games == nil {
		return []models.Game{}, nil
	}
	return games, nil
}

func (s *gameService) UpdateGame(ctx context.Context, actor Actor, id uuid.UUID, input UpdateGameInput) (*models.Game, error) {
	if !actor.CanOrganize() {
		return nil, ErrForbiddenOperation
	}
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}

	game, err := s.GetGameByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name, ok := input.Name.Get(); ok {
		game.Name = strings.TrimSpace(name)
	}
	if description, ok := input.Description.GetOrClear(); ok {
		game.Description = optionalText(description)
	}
	if imageURL, ok := input.ImageURL.Get(); ok {
		game.ImageURL = strings.TrimSpace(imageURL)
		if game.ImageURL == "" {
			game.ImageURL = defaultImageURL("GAME")
		}
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrGameNameConflict):
			return nil, ErrGameNameConflict
		default:
			return nil, fmt.Errorf("%w (id: %s): %w", ErrGameUpdateFailed, id, err)
		}
	}

	return game, nil
}

func (s *gameService) DeleteGame(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return ErrForbiddenOperation
	}

	err := s.gameRepo.Delete(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrGameNotFound):
			return ErrGameNotFound
		case errors.Is(err, repositories.ErrGameInUse):
			return ErrGameInUse
		default:
			return fmt.Errorf("%w (id: %s): %w", ErrGameDeleteFailed, id, err)
		}
	}
	return nil
}
