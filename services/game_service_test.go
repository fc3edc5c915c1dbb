package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameCatalogue_Create(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	game, err := env.games.CreateGame(ctx, env.organizer, CreateGameInput{Name: "  Dota 2 ", Description: "  "})
	require.NoError(t, err)
	assert.Equal(t, "Dota 2", game.Name)
	assert.Nil(t, game.Description)
	assert.True(t, strings.HasPrefix(game.ImageURL, "IMAGE_GAME_"), game.ImageURL)

	_, err = env.games.CreateGame(ctx, env.admin, CreateGameInput{Name: "Dota 2"})
	assert.ErrorIs(t, err, ErrGameNameConflict)

	_, err = env.games.CreateGame(ctx, env.player, CreateGameInput{Name: "Chess"})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = env.games.CreateGame(ctx, env.organizer, CreateGameInput{Name: "   "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	all, err := env.games.GetAllGames(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Dota 2", all[0].Name)
	assert.Equal(t, "Valorant", all[1].Name)
}

func TestGameCatalogue_Update(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	other, err := env.games.CreateGame(ctx, env.organizer, CreateGameInput{Name: "Counter-Strike 2", ImageURL: "cs.png"})
	require.NoError(t, err)

	var input UpdateGameInput
	input.Description = SetTo("Tactical shooter")
	updated, err := env.games.UpdateGame(ctx, env.organizer, other.ID, input)
	require.NoError(t, err)
	assert.Equal(t, "Counter-Strike 2", updated.Name)
	assert.Equal(t, "cs.png", updated.ImageURL)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "Tactical shooter", *updated.Description)

	var rename UpdateGameInput
	rename.Name = SetTo("Valorant")
	_, err = env.games.UpdateGame(ctx, env.organizer, other.ID, rename)
	assert.ErrorIs(t, err, ErrGameNameConflict)

	_, err = env.games.UpdateGame(ctx, env.organizer, uuid.New(), UpdateGameInput{})
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = env.games.UpdateGame(ctx, env.player, other.ID, UpdateGameInput{})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestGameCatalogue_Delete(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.seedTournament(t0.Add(time.Hour), t0.Add(2*time.Hour), models.StatusUpcoming)

	assert.ErrorIs(t, env.games.DeleteGame(ctx, env.organizer, env.game.ID), ErrForbiddenOperation)
	assert.ErrorIs(t, env.games.DeleteGame(ctx, env.admin, env.game.ID), ErrGameInUse)
	assert.ErrorIs(t, env.games.DeleteGame(ctx, env.admin, uuid.New()), ErrGameNotFound)

	unused, err := env.games.CreateGame(ctx, env.admin, CreateGameInput{Name: "Tetris"})
	require.NoError(t, err)
	require.NoError(t, env.games.DeleteGame(ctx, env.admin, unused.ID))

	_, err = env.games.GetGameByID(ctx, unused.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
}
