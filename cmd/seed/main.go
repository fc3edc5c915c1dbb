// Command seed bootstraps an admin account, the sample games and one
// upcoming championship per newly created game. Running it twice is harmless.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dosada05/esports-tournaments/db"
	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/repositories"
	"github.com/Dosada05/esports-tournaments/services"
	"github.com/Dosada05/esports-tournaments/utils"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const adminEmail = "admin@esports.com"

var sampleGames = []services.CreateGameInput{
	{
		Name:        "League of Legends",
		Description: "A popular multiplayer online battle arena (MOBA) game developed by Riot Games.",
		ImageURL:    "https://static.wikia.nocookie.net/leagueoflegends/images/8/86/League_of_legends_logo_transparent.png",
	},
	{
		Name:        "Counter-Strike 2",
		Description: "A first-person shooter game developed by Valve Corporation.",
		ImageURL:    "https://cdn.cloudflare.steamstatic.com/steam/apps/730/header.jpg",
	},
	{
		Name:        "Valorant",
		Description: "A free-to-play first-person tactical shooter developed by Riot Games.",
	},
	{
		Name:        "Dota 2",
		Description: "A multiplayer online battle arena (MOBA) game developed by Valve Corporation.",
		ImageURL:    "https://cdn.cloudflare.steamstatic.com/steam/apps/570/header.jpg",
	},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if err := run(context.Background(), logger); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database seeding completed")
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}

	conn, err := db.Connect(dsn, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := db.Migrate(conn.DB); err != nil {
		return err
	}

	userRepo := repositories.NewPostgresUserRepository(conn)
	gameRepo := repositories.NewPostgresGameRepository(conn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(conn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(conn)
	matchRepo := repositories.NewPostgresMatchRepository(conn)

	admin, err := ensureAdmin(ctx, userRepo, logger)
	if err != nil {
		return err
	}
	actor := services.Actor{ID: admin.ID, Role: admin.Role, Name: admin.Name}

	gameService := services.NewGameService(gameRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, gameRepo, userRepo, registrationRepo, matchRepo, nil, services.SystemClock, logger)

	start := time.Now().UTC().AddDate(0, 0, 7).Truncate(time.Hour)
	for _, input := range sampleGames {
		game, err := gameService.CreateGame(ctx, actor, input)
		if errors.Is(err, services.ErrGameNameConflict) {
			logger.Info("game already exists", slog.String("game", input.Name))
			continue
		}
		if err != nil {
			return fmt.Errorf("create game %q: %w", input.Name, err)
		}

		tournament, err := tournamentService.CreateTournament(ctx, actor, services.CreateTournamentInput{
			Name:      game.Name + " Championship 2025",
			GameID:    game.ID,
			Format:    "Single Elimination",
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 2),
			Rules:     fmt.Sprintf("# %s Tournament Rules\n\n1. All matches are best of 3\n2. Finals are best of 5\n3. Standard competitive settings apply", game.Name),
		})
		if err != nil {
			return fmt.Errorf("create tournament for %q: %w", game.Name, err)
		}
		logger.Info("seeded game", slog.String("game", game.Name), slog.String("tournament_id", tournament.ID.String()))
	}
	return nil
}

// ensureAdmin creates the admin account directly: the public registration
// flow refuses the admin role.
func ensureAdmin(ctx context.Context, userRepo repositories.UserRepository, logger *slog.Logger) (*models.User, error) {
	existing, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		ID:           uuid.New(),
		Name:         "Admin User",
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin user created", slog.String("email", adminEmail))
	return admin, nil
}
