package routes

import (
	"net/http"

	_ "github.com/Dosada05/esports-tournaments/docs"
	"github.com/Dosada05/esports-tournaments/handlers"
	"github.com/Dosada05/esports-tournaments/middleware"
	"github.com/Dosada05/esports-tournaments/models"
	"github.com/Dosada05/esports-tournaments/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	User         *handlers.UserHandler
	Game         *handlers.GameHandler
	Tournament   *handlers.TournamentHandler
	Registration *handlers.RegistrationHandler
	Match        *handlers.MatchHandler
	WebSocket    *handlers.WebSocketHandler
	Health       *handlers.HealthHandler
}

func SetupRoutes(router chi.Router, h Handlers, tokens *services.TokenIssuer, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(tokens)
	organizers := middleware.Authorize(models.RoleOrganizer, models.RoleAdmin)
	admins := middleware.Authorize(models.RoleAdmin)

	router.Get("/healthz", h.Health.Healthz)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", h.User.GetProfile)
				r.Put("/profile", h.User.UpdateProfile)
				r.With(admins).Get("/", h.User.ListUsers)
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", h.Game.List)
			r.Get("/{gameID}", h.Game.GetByID)
			r.Get("/{gameID}/tournaments", h.Game.ListTournaments)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.With(organizers).Post("/", h.Game.Create)
				r.With(organizers).Put("/{gameID}", h.Game.Update)
				r.With(admins).Delete("/{gameID}", h.Game.Delete)
			})
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.Tournament.ListHandler)
			r.Get("/{tournamentID}", h.Tournament.GetByIDHandler)

			// Защищенные маршруты; владелец турнира проверяется в сервисе
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(organizers)
				r.Post("/", h.Tournament.CreateHandler)
				r.Put("/{tournamentID}", h.Tournament.UpdateHandler)
				r.Delete("/{tournamentID}", h.Tournament.DeleteHandler)
				r.Get("/organizer/mytournaments", h.Tournament.MyTournamentsHandler)
				r.With(admins).Get("/admin/stats", h.Tournament.StatsHandler)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Registration.Register)
			r.Get("/myregistrations", h.Registration.ListMine)
			r.With(organizers).Get("/tournament/{tournamentID}", h.Registration.ListByTournament)
			r.With(organizers).Put("/{registrationID}", h.Registration.UpdateStatus)
			r.Delete("/{registrationID}", h.Registration.Cancel)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/tournament/{tournamentID}", h.Match.ListByTournament)
			r.Get("/{matchID}", h.Match.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/player/mymatches", h.Match.ListMine)
				r.With(organizers).Post("/", h.Match.Create)
				r.With(organizers).Put("/{matchID}", h.Match.UpdateResults)
				r.With(organizers).Delete("/{matchID}", h.Match.Delete)
			})
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"the requested resource could not be found"}` + "\n"))
	})
}
