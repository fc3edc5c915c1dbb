package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/esports-tournaments/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createInput(env *testEnv, start, end time.Time) CreateTournamentInput {
	return CreateTournamentInput{
		Name:      "Spring Major",
		GameID:    env.game.ID,
		Format:    "double elimination",
		StartDate: start,
		EndDate:   end,
		Rules:     "BO3",
	}
}

func TestTournamentLifecycle_ClockDrivenPhases(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.tournaments.CreateTournament(ctx, env.organizer,
		createInput(env, t0.Add(7*24*time.Hour), t0.Add(9*24*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, created.Status)
	assert.True(t, created.RegistrationOpen)
	assert.Equal(t, env.organizer.ID, created.OrganizerID)
	require.NotNil(t, created.Game)
	assert.Equal(t, "Valorant", created.Game.Name)
	require.NotNil(t, created.Organizer)
	assert.Equal(t, "Olga", created.Organizer.Name)
	assert.Empty(t, created.Organizer.Email)
	assert.Regexp(t, `^IMAGE_TOURNAMENT_[1-5]$`, created.ImageURL)

	env.clock.Set(t0.Add(8 * 24 * time.Hour))
	got, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, got.Status)
	assert.Equal(t, models.StatusOngoing, env.store.tournament(created.ID).Status)

	env.clock.Set(t0.Add(10 * 24 * time.Hour))
	list, err := env.tournaments.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.StatusCompleted, list[0].Status)
	assert.Equal(t, models.StatusCompleted, env.store.tournament(created.ID).Status)

	assert.Contains(t, env.notifier.types(), EventTournamentStatusChanged)
}

func TestTournamentLifecycle_CreateRules(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	t.Run("player cannot create", func(t *testing.T) {
		_, err := env.tournaments.CreateTournament(ctx, env.player, createInput(env, t0, t0.Add(time.Hour)))
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("unknown game", func(t *testing.T) {
		input := createInput(env, t0, t0.Add(time.Hour))
		input.GameID = uuid.New()
		_, err := env.tournaments.CreateTournament(ctx, env.organizer, input)
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("end before start", func(t *testing.T) {
		_, err := env.tournaments.CreateTournament(ctx, env.organizer, createInput(env, t0.Add(time.Hour), t0))
		assert.ErrorIs(t, err, ErrTournamentInvalidDateRange)
	})

	t.Run("missing name", func(t *testing.T) {
		input := createInput(env, t0, t0.Add(time.Hour))
		input.Name = "   "
		_, err := env.tournaments.CreateTournament(ctx, env.organizer, input)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("past dates are accepted and completed", func(t *testing.T) {
		created, err := env.tournaments.CreateTournament(ctx, env.admin, createInput(env, t0.Add(-72*time.Hour), t0.Add(-48*time.Hour)))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, created.Status)
	})
}

func decodeUpdate(t *testing.T, body string) UpdateTournamentInput {
	t.Helper()
	var input UpdateTournamentInput
	require.NoError(t, json.Unmarshal([]byte(body), &input))
	return input
}

func TestTournamentLifecycle_PartialUpdate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	created, err := env.tournaments.CreateTournament(ctx, env.organizer,
		createInput(env, t0.Add(7*24*time.Hour), t0.Add(9*24*time.Hour)))
	require.NoError(t, err)
	require.NotNil(t, created.Rules)

	t.Run("explicit empty rules clears them", func(t *testing.T) {
		updated, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"rules":""}`))
		require.NoError(t, err)
		assert.Nil(t, updated.Rules)
		assert.Equal(t, "Spring Major", updated.Name)
		assert.Equal(t, "double elimination", updated.Format)
	})

	t.Run("null leaves non-nullable fields unchanged", func(t *testing.T) {
		before := env.store.tournament(created.ID)
		require.True(t, before.RegistrationOpen)

		updated, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID,
			decodeUpdate(t, `{"registration_open":null,"image_url":null,"name":null}`))
		require.NoError(t, err)
		assert.True(t, updated.RegistrationOpen)
		assert.Equal(t, before.ImageURL, updated.ImageURL)
		assert.Equal(t, before.Name, updated.Name)
	})

	t.Run("null rules clears them", func(t *testing.T) {
		_, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"rules":"BO5"}`))
		require.NoError(t, err)

		updated, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"rules":null}`))
		require.NoError(t, err)
		assert.Nil(t, updated.Rules)
	})

	t.Run("explicit empty name is rejected", func(t *testing.T) {
		_, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"name":""}`))
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("caller supplied status is ignored", func(t *testing.T) {
		updated, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"status":"completed"}`))
		require.NoError(t, err)
		assert.Equal(t, models.StatusUpcoming, updated.Status)
	})

	t.Run("moving the dates re-derives status", func(t *testing.T) {
		body := `{"start_date":"2024-12-31T00:00:00Z","end_date":"2025-01-02T00:00:00Z","registration_open":false}`
		updated, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, body))
		require.NoError(t, err)
		assert.Equal(t, models.StatusOngoing, updated.Status)
		assert.False(t, updated.RegistrationOpen)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		_, err := env.tournaments.UpdateTournament(ctx, env.organizer, created.ID, decodeUpdate(t, `{"end_date":"2020-01-01T00:00:00Z"}`))
		assert.ErrorIs(t, err, ErrTournamentInvalidDateRange)
	})

	t.Run("other organizer is forbidden", func(t *testing.T) {
		stranger := env.addUser("Stranger", models.RoleOrganizer)
		_, err := env.tournaments.UpdateTournament(ctx, stranger, created.ID, decodeUpdate(t, `{"name":"Mine"}`))
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("admin may update any tournament", func(t *testing.T) {
		updated, err := env.tournaments.UpdateTournament(ctx, env.admin, created.ID, decodeUpdate(t, `{"name":"Renamed"}`))
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
	})

	t.Run("missing tournament", func(t *testing.T) {
		_, err := env.tournaments.UpdateTournament(ctx, env.admin, uuid.New(), decodeUpdate(t, `{}`))
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})
}

func TestTournamentLifecycle_DeleteCascades(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tournament := env.seedTournament(t0.Add(24*time.Hour), t0.Add(48*time.Hour), models.StatusUpcoming)
	other := env.seedTournament(t0.Add(24*time.Hour), t0.Add(48*time.Hour), models.StatusUpcoming)
	regA := env.seedRegistration(env.player, tournament.ID, models.RegistrationApproved)
	regB := env.seedRegistration(env.admin, tournament.ID, models.RegistrationApproved)
	kept := env.seedRegistration(env.player, other.ID, models.RegistrationPending)

	match, err := env.matches.CreateMatch(ctx, env.organizer, CreateMatchInput{
		TournamentID: tournament.ID, TeamAID: regA.ID, TeamBID: regB.ID, Date: t0.Add(30 * time.Hour),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.tournaments.DeleteTournament(ctx, env.player, tournament.ID), ErrForbiddenOperation)

	require.NoError(t, env.tournaments.DeleteTournament(ctx, env.organizer, tournament.ID))

	_, err = env.tournaments.GetTournamentByID(ctx, tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	_, err = env.matches.GetMatchByID(ctx, match.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	assert.ErrorIs(t, env.registrations.Cancel(ctx, env.player, regA.ID), ErrRegistrationNotFound)

	mine, err := env.registrations.ListMine(ctx, env.player)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, kept.ID, mine[0].ID)
}

func TestTournamentLifecycle_DeleteLeavesPartialStateOnFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	tournament := env.seedTournament(t0.Add(24*time.Hour), t0.Add(48*time.Hour), models.StatusUpcoming)
	env.seedRegistration(env.player, tournament.ID, models.RegistrationPending)
	env.store.failMatchCascade = errors.New("connection reset")

	err := env.tournaments.DeleteTournament(ctx, env.organizer, tournament.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTournamentDeleteFailed)

	// registrations are already gone, the tournament is still there
	_, err = env.tournaments.GetTournamentByID(ctx, tournament.ID)
	assert.NoError(t, err)
	count, _ := fakeRegistrationRepo{env.store}.Count(ctx)
	assert.Zero(t, count)
}

func TestTournamentLifecycle_Lists(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	later := env.seedTournament(t0.Add(10*24*time.Hour), t0.Add(11*24*time.Hour), models.StatusUpcoming)
	sooner := env.seedTournament(t0.Add(-time.Hour), t0.Add(time.Hour), models.StatusUpcoming)

	all, err := env.tournaments.ListTournaments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sooner.ID, all[0].ID)
	assert.Equal(t, models.StatusOngoing, all[0].Status)
	assert.Equal(t, later.ID, all[1].ID)

	byGame, err := env.tournaments.ListGameTournaments(ctx, env.game.ID)
	require.NoError(t, err)
	assert.Len(t, byGame, 2)

	_, err = env.tournaments.ListGameTournaments(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrGameNotFound)

	mine, err := env.tournaments.ListOrganizerTournaments(ctx, env.organizer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = env.tournaments.ListOrganizerTournaments(ctx, env.player)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestTournamentLifecycle_Stats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// stored statuses are counted as-is, without derivation
	upcoming := env.seedTournament(t0.Add(24*time.Hour), t0.Add(48*time.Hour), models.StatusUpcoming)
	env.seedTournament(t0.Add(-48*time.Hour), t0.Add(-24*time.Hour), models.StatusOngoing)
	env.seedTournament(t0.Add(-48*time.Hour), t0.Add(-24*time.Hour), models.StatusCompleted)
	env.seedRegistration(env.player, upcoming.ID, models.RegistrationPending)

	_, err := env.tournaments.GetStats(ctx, env.organizer)
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	stats, err := env.tournaments.GetStats(ctx, env.admin)
	require.NoError(t, err)
	assert.Equal(t, models.TournamentStats{
		TotalTournaments:     3,
		UpcomingTournaments:  1,
		OngoingTournaments:   1,
		CompletedTournaments: 1,
		TotalRegistrations:   1,
		TotalMatches:         0,
	}, *stats)
	assert.Zero(t, env.store.statusWriteCount())
}
