package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	"github.com/Dosada05/esports-tournaments/utils"
	validation "github.com/go-ozzo/ozzo-validation"
)

type UserService interface {
	GetProfile(ctx context.Context, actor Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor Actor, input UpdateProfileInput) (*models.User, error)
	ListUsers(ctx context.Context, actor Actor) ([]models.User, error)
}

type UpdateProfileInput struct {
	Name     Optional[string] `json:"name"`
	Password Optional[string] `json:"password"`
}

func (i UpdateProfileInput) Validate() error {
	errs := validation.Errors{}
	if i.Name.Set {
		errs["name"] = validation.Validate(strings.TrimSpace(i.Name.Value), validation.Required, validation.Length(2, 100))
	}
	if i.Password.Set {
		errs["password"] = validation.Validate(i.Password.Value, validation.Required)
	}
	return errs.Filter()
}

type userService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{
		userRepo: userRepo,
	}
}

func (s *userService) GetProfile(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", actor.ID, err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor Actor, input UpdateProfileInput) (*models.User, error) {
	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}
	if input.Password.Set && len(input.Password.Value) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	user, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	if name, ok := input.Name.Get(); ok {
		user.Name = strings.TrimSpace(name)
	}
	if password, ok := input.Password.Get(); ok {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user %s: %w", actor.ID, err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor Actor) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
