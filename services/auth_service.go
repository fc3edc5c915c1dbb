package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	"github.com/Dosada05/esports-tournaments/utils"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const minPasswordLength = 6

// Имена JWT claims
const (
	ClaimUserID = "user_id"
	ClaimRole   = "role"
	ClaimName   = "name"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
}

type RegisterInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

func (i RegisterInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&i.Email, validation.Required, is.Email),
		validation.Field(&i.Password, validation.Required),
		validation.Field(&i.Role, validation.In(models.RolePlayer, models.RoleOrganizer, models.RoleAdmin)),
	)
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (i LoginInput) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Email, validation.Required),
		validation.Field(&i.Password, validation.Required),
	)
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    Clock
}

func NewTokenIssuer(secret string, ttl time.Duration, clock Clock) *TokenIssuer {
	if clock == nil {
		clock = SystemClock
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: clock}
}

func (ti *TokenIssuer) Issue(user *models.User) (string, error) {
	now := ti.now()
	claims := jwt.MapClaims{
		ClaimUserID: user.ID.String(),
		ClaimRole:   string(user.Role),
		ClaimName:   user.Name,
		"exp":       now.Add(ti.ttl).Unix(),
		"iat":       now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the caller identity.
// Expiry is checked against the issuer's clock, not the parser's.
func (ti *TokenIssuer) Parse(tokenString string) (Actor, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if !claims.VerifyExpiresAt(ti.now().Unix(), true) {
		return Actor{}, fmt.Errorf("%w: token is expired", ErrAuthenticationFailed)
	}

	rawID, _ := claims[ClaimUserID].(string)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: invalid '%s' claim", ErrAuthenticationFailed, ClaimUserID)
	}

	rawRole, _ := claims[ClaimRole].(string)
	role := models.UserRole(rawRole)
	if !role.Valid() {
		return Actor{}, fmt.Errorf("%w: invalid role value in claim: %q", ErrAuthenticationFailed, rawRole)
	}

	name, _ := claims[ClaimName].(string)

	return Actor{ID: id, Role: role, Name: name}, nil
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   *TokenIssuer
}

func NewAuthService(userRepo repositories.UserRepository, tokens *TokenIssuer) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := input.Validate(); err != nil {
		return nil, validationError(err)
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	if role == "" {
		role = models.RolePlayer
	}
	if role == models.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	if err := input.Validate(); err != nil {
		return nil, "", validationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
