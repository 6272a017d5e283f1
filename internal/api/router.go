package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/rpsgame/internal/api/handler"
	apimiddleware "github.com/mcoot/rpsgame/internal/api/middleware"
	"github.com/mcoot/rpsgame/internal/middleware"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Scores        handler.ScoreReader
	Stats         handler.Stats
	WebSocket     http.Handler // nil disables /ws
	AllowedOrigin string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(apimiddleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	scoreHandler := handler.NewScoreHandler(cfg.Scores, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Stats)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/scores/{username}", scoreHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Legacy path polled by the browser client
	r.HandleFunc("/api/score/username/{username}", scoreHandler.Get).Methods(http.MethodGet)

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	return middleware.CORS(cfg.AllowedOrigin)(r)
}
