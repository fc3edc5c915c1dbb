package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/esports-tournaments/config"
	"github.com/Dosada05/esports-tournaments/db"
	"github.com/Dosada05/esports-tournaments/handlers"
	"github.com/Dosada05/esports-tournaments/live"
	"github.com/Dosada05/esports-tournaments/repositories"
	api "github.com/Dosada05/esports-tournaments/routes"
	"github.com/Dosada05/esports-tournaments/services"
	"github.com/go-chi/chi/v5"
)

// @title Esports Tournaments API
// @version 1.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.RunMigrations {
		if err := db.Migrate(dbConn.DB); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)

	// Инициализация сервисов
	tokens := services.NewTokenIssuer(cfg.JWTSecretKey, cfg.JWTTTL, services.SystemClock)
	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo)
	gameService := services.NewGameService(gameRepo)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		gameRepo,
		userRepo,
		registrationRepo,
		matchRepo,
		wsHub,
		services.SystemClock,
		logger,
	)
	registrationService := services.NewRegistrationService(
		registrationRepo,
		tournamentRepo,
		gameRepo,
		userRepo,
		wsHub,
		services.SystemClock,
		logger,
	)
	matchService := services.NewMatchService(
		matchRepo,
		tournamentRepo,
		registrationRepo,
		userRepo,
		wsHub,
		logger,
	)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		User:         handlers.NewUserHandler(userService),
		Game:         handlers.NewGameHandler(gameService, tournamentService),
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Match:        handlers.NewMatchHandler(matchService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins),
		Health:       handlers.NewHealthHandler(dbConn),
	}, tokens, cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
