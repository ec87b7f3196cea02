package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mhutchin/wordrush/internal/api/handler"
	"github.com/mhutchin/wordrush/internal/api/middleware"
	"github.com/mhutchin/wordrush/internal/api/response"
	"github.com/mhutchin/wordrush/internal/services/dictionary"
	"github.com/mhutchin/wordrush/internal/services/player"
	"github.com/mhutchin/wordrush/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	PlayerService *player.Service
	Dictionary    dictionary.ServiceInterface
	Hub           *ws.Hub
}

// NewRouter creates a new router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.PlayerService)
	wordsHandler := handler.NewWordsHandler(cfg.Dictionary)

	authMiddleware := middleware.Auth(cfg.PlayerService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Identity routes (no auth required for signup/login)
	api.HandleFunc("/auth/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", playerHandler.Login).Methods(http.MethodPost)

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware)
	authProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)

	// Word validation
	api.HandleFunc("/words/validate/{word}/{category}", wordsHandler.Validate).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler(cfg.Hub)).Methods(http.MethodGet)

	// Realtime gateway. Kept outside the API subrouter so the upgrade
	// path stays free of middleware that buffers the response.
	r.HandleFunc("/ws", cfg.Hub.ServeWS)

	return r
}

func healthHandler(hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:      "ok",
			Connections: hub.ConnectionCount(),
		})
	}
}
