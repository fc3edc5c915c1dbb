package services

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/utils"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture() (AuthService, UserService, *TokenIssuer, *testClock) {
	utils.BcryptCost = bcrypt.MinCost
	clock := &testClock{now: t0}
	tokens := NewTokenIssuer("test-secret", time.Hour, clock.Now)
	repo := fakeUserRepo{newMemStore()}
	return NewAuthService(repo, tokens), NewUserService(repo), tokens, clock
}

func TestAuth_Register(t *testing.T) {
	auth, _, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Ivan", Email: " Ivan@Example.com ", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Equal(t, "ivan@example.com", user.Email)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	testCases := []struct {
		name    string
		input   RegisterInput
		wantErr error
	}{
		{"duplicate email", RegisterInput{Name: "Ivan", Email: "IVAN@example.com", Password: "hunter22"}, ErrUserEmailConflict},
		{"short password", RegisterInput{Name: "Ivan", Email: "short@example.com", Password: "12345"}, ErrPasswordTooShort},
		{"admin self-registration", RegisterInput{Name: "Root", Email: "root@example.com", Password: "hunter22", Role: models.RoleAdmin}, ErrRoleNotAllowed},
		{"unknown role", RegisterInput{Name: "Odd", Email: "odd@example.com", Password: "hunter22", Role: "judge"}, ErrValidationFailed},
		{"bad email", RegisterInput{Name: "Ivan", Email: "not-an-email", Password: "hunter22"}, ErrValidationFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	organizer, err := auth.Register(ctx, RegisterInput{Name: "Olga", Email: "olga@example.com", Password: "hunter22", Role: models.RoleOrganizer})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrganizer, organizer.Role)
}

func TestAuth_LoginAndTokenRoundTrip(t *testing.T) {
	auth, _, tokens, clock := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Olga", Email: "olga@example.com", Password: "hunter22", Role: models.RoleOrganizer})
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, LoginInput{Email: "olga@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	loggedIn, token, err := auth.Login(ctx, LoginInput{Email: "OLGA@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	actor, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: user.ID, Role: models.RoleOrganizer, Name: "Olga"}, actor)

	_, err = NewTokenIssuer("other-secret", time.Hour, clock.Now).Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = tokens.Parse("garbage")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAuth_ExpiredToken(t *testing.T) {
	_, _, tokens, clock := newAuthFixture()

	token, err := tokens.Issue(&models.User{ID: uuid.New(), Name: "Old", Role: models.RolePlayer})
	require.NoError(t, err)

	clock.Set(t0.Add(59 * time.Minute))
	_, err = tokens.Parse(token)
	require.NoError(t, err)

	clock.Set(t0.Add(2 * time.Hour))
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	// a token without exp is never accepted
	unsigned := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimUserID: uuid.New().String(),
		ClaimRole:   string(models.RolePlayer),
	})
	noExpiry, err := unsigned.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = tokens.Parse(noExpiry)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestUsers_ProfileAndListing(t *testing.T) {
	auth, users, _, _ := newAuthFixture()
	ctx := context.Background()

	user, err := auth.Register(ctx, RegisterInput{Name: "Pavel", Email: "pavel@example.com", Password: "hunter22"})
	require.NoError(t, err)
	actor := Actor{ID: user.ID, Role: user.Role, Name: user.Name}

	profile, err := users.GetProfile(ctx, actor)
	require.NoError(t, err)
	assert.Equal(t, "pavel@example.com", profile.Email)

	var rename UpdateProfileInput
	rename.Name = SetTo("Pasha")
	rename.Password = SetTo("123")
	_, err = users.UpdateProfile(ctx, actor, rename)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	rename.Password = SetTo("new-password")
	updated, err := users.UpdateProfile(ctx, actor, rename)
	require.NoError(t, err)
	assert.Equal(t, "Pasha", updated.Name)

	_, _, err = auth.Login(ctx, LoginInput{Email: "pavel@example.com", Password: "new-password"})
	require.NoError(t, err)

	_, err = users.ListUsers(ctx, actor)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	all, err := users.ListUsers(ctx, Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
