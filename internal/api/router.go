package api

import (
	"net/http"

	"github.com/pulsefeed/pulsefeed/internal/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, handler *Handler, authHandler *AuthHandler, authConfig auth.Config, metricsHandler http.Handler) {
	authMiddleware := auth.Middleware(authConfig)

	// Authentication routes (register/login public, me behind auth)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.Handle("/api/auth/me", authMiddleware(http.HandlerFunc(authHandler.Me)))

	// Ingestion (collectors authenticate like any other client)
	mux.Handle("/api/ingest-scrape", authMiddleware(http.HandlerFunc(handler.IngestScrapeHandler)))

	// Event routes (public for reading, regenerate requires auth)
	mux.HandleFunc("/api/v1/posts/timeline", handler.TimelineHandler)
	mux.HandleFunc("/api/v1/posts/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			authMiddleware(http.HandlerFunc(handler.EventHandler)).ServeHTTP(w, r)
			return
		}
		handler.EventHandler(w, r)
	})

	// Operational endpoints
	mux.HandleFunc("/healthz", handler.HealthHandler)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
}
