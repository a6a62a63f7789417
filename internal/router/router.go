package router

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/csl-racing/api/internal/apperr"
	"github.com/csl-racing/api/internal/auth"
	"github.com/csl-racing/api/internal/content"
	"github.com/csl-racing/api/internal/handlers"
	"github.com/csl-racing/api/internal/leagues"
	"github.com/csl-racing/api/internal/ledger"
	"github.com/csl-racing/api/internal/live"
	"github.com/csl-racing/api/internal/middleware"
	"github.com/csl-racing/api/internal/users"
)

// Deps is everything the router wires into handlers
type Deps struct {
	Tokens         *auth.TokenManager
	Revoker        auth.Revoker
	Users          *users.Service
	Leagues        *leagues.Service
	Ledger         *ledger.Service
	Content        *content.Service
	Hub            *live.Hub
	Health         *handlers.HealthHandler
	AllowedOrigins []string
	SecureCookie   bool
}

// New builds the API handler: routes, then recovery, logging and CORS
func New(d Deps) http.Handler {
	mux := http.NewServeMux()
	guard := middleware.NewGuard(d.Tokens, d.Revoker, d.Users)
	admin := guard.RequireAdmin

	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Revoker, d.SecureCookie)
	userHandler := handlers.NewUserHandler(d.Users)
	leagueHandler := handlers.NewLeagueHandler(d.Leagues)
	boardHandler := handlers.NewLeaderboardHandler(d.Ledger)
	contentHandler := handlers.NewContentHandler(d.Content)

	// Health check
	mux.HandleFunc("GET /health", d.Health.Health)

	// Auth routes
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/me", guard.RequireAuth(authHandler.Me))
	mux.HandleFunc("PUT /auth/me", guard.RequireAuth(authHandler.UpdateMe))

	// Leagues
	mux.HandleFunc("GET /leagues", leagueHandler.List)
	mux.HandleFunc("GET /leagues/{id}", leagueHandler.Get)
	mux.HandleFunc("POST /leagues", admin(leagueHandler.Create))
	mux.HandleFunc("PUT /leagues/{id}", admin(leagueHandler.Update))
	mux.HandleFunc("DELETE /leagues/{id}", admin(leagueHandler.Delete))

	// Points ledger
	mux.HandleFunc("GET /leagues/{id}/points", boardHandler.GetStandings)
	mux.HandleFunc("GET /leagues/{id}/live", d.Hub.ServeWS)
	mux.HandleFunc("GET /leagues/{id}/history", admin(boardHandler.GetHistory))
	mux.HandleFunc("POST /leagues/{id}/points/{driverId}", admin(boardHandler.AddPoints))
	mux.HandleFunc("DELETE /leagues/{id}/points/{driverId}", admin(boardHandler.RemovePoints))
	mux.HandleFunc("POST /leagues/{id}/reset", admin(boardHandler.ResetLeague))
	mux.HandleFunc("POST /leagues/{id}/undo", admin(boardHandler.Undo))

	// Roster
	mux.HandleFunc("GET /leagues/{id}/drivers", boardHandler.ListDrivers)
	mux.HandleFunc("POST /leagues/{id}/drivers", admin(boardHandler.AddDriver))
	mux.HandleFunc("DELETE /leagues/{id}/drivers/{driverId}", admin(boardHandler.RemoveDriver))

	// Users
	mux.HandleFunc("GET /drivers", userHandler.ListDrivers)
	mux.HandleFunc("GET /admin/users", admin(userHandler.List))
	mux.HandleFunc("PUT /admin/users/{id}/role", admin(userHandler.UpdateRole))
	mux.HandleFunc("PUT /admin/users/{id}/driver", admin(userHandler.SetDriver))
	mux.HandleFunc("DELETE /admin/users/{id}", admin(userHandler.Delete))

	// Achievements
	mux.HandleFunc("GET /achievements", contentHandler.ListAchievements)
	mux.HandleFunc("GET /achievements/{id}", contentHandler.GetAchievement)
	mux.HandleFunc("POST /achievements", admin(contentHandler.CreateAchievement))
	mux.HandleFunc("PUT /achievements/{id}", admin(contentHandler.UpdateAchievement))
	mux.HandleFunc("DELETE /achievements/{id}", admin(contentHandler.DeleteAchievement))

	// Events
	mux.HandleFunc("GET /events", contentHandler.ListEvents)
	mux.HandleFunc("GET /events/{id}", contentHandler.GetEvent)
	mux.HandleFunc("POST /events", admin(contentHandler.CreateEvent))
	mux.HandleFunc("PUT /events/{id}", admin(contentHandler.UpdateEvent))
	mux.HandleFunc("DELETE /events/{id}", admin(contentHandler.DeleteEvent))

	// Gallery
	mux.HandleFunc("GET /gallery/categories", contentHandler.ListCategories)
	mux.HandleFunc("POST /gallery/categories", admin(contentHandler.CreateCategory))
	mux.HandleFunc("PUT /gallery/categories/{id}", admin(contentHandler.UpdateCategory))
	mux.HandleFunc("DELETE /gallery/categories/{id}", admin(contentHandler.DeleteCategory))
	mux.HandleFunc("GET /gallery", contentHandler.ListImages)
	mux.HandleFunc("GET /gallery/{id}", contentHandler.GetImage)
	mux.HandleFunc("POST /gallery", admin(contentHandler.CreateImage))
	mux.HandleFunc("PUT /gallery/{id}", admin(contentHandler.UpdateImage))
	mux.HandleFunc("DELETE /gallery/{id}", admin(contentHandler.DeleteImage))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, apperr.NotFound("Route not found"))
	})

	c := cors.New(cors.Options{
		AllowedOrigins: d.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	return c.Handler(middleware.WithLogging(middleware.Recover(mux)))
}
