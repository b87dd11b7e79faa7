package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ledgerlink/internal/shared/config"
	"ledgerlink/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	// Connection status and sync
	mux.HandleFunc("GET /api/connections/{id}/status", deps.ConnectionHandler.HandleConnectionStatus)
	mux.HandleFunc("POST /api/connections/{id}/sync", deps.ConnectionHandler.HandleTriggerSync)
	mux.HandleFunc("DELETE /api/connections/{id}", deps.ConnectionHandler.HandleDeleteConnection)

	// Device registration (push notifications)
	if deps.NotificationHandler != nil {
		mux.HandleFunc("POST /api/notifications/register-device", deps.NotificationHandler.HandleRegisterDevice)
	}

	// Apply global middleware
	handler := middleware.Logging(middleware.Tracing(mux))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
