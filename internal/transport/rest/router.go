package rest

import (
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"velvethour/internal/service"
	"velvethour/internal/transport/rest/handler"
	"velvethour/internal/transport/rest/middleware"
	"velvethour/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	SessionService  *service.SessionService
	FeedbackService *service.FeedbackService
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	eventHandler := handler.NewEventHandler(c.SessionService, c.AuthService)
	matchHandler := handler.NewMatchHandler(c.SessionService, c.FeedbackService)
	adminHandler := handler.NewAdminHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/events/{eventId}/join", eventHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket route (token in query param)
	v1.HandleFunc("/ws/events/{eventId}", wsHandler.EventWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Participant routes
	participantRoutes := v1.NewRoute().Subrouter()
	participantRoutes.Use(authMW.RequireParticipant)

	participantRoutes.HandleFunc("/events/{eventId}/status", eventHandler.Status).Methods("GET", "OPTIONS")
	participantRoutes.HandleFunc("/events/{eventId}/attendance", eventHandler.Attendance).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/matches/{matchId}/confirm", matchHandler.Confirm).Methods("POST", "OPTIONS")
	participantRoutes.HandleFunc("/matches/{matchId}/feedback", matchHandler.Feedback).Methods("POST", "OPTIONS")

	// Admin routes
	adminRoutes := v1.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/events/{eventId}/session/start", adminHandler.StartSession).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/rounds/start", adminHandler.StartRound).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/rounds/validate", adminHandler.ValidateRound).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/rounds/close", adminHandler.CloseRound).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/session/end", adminHandler.EndSession).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/session/reset", adminHandler.ResetSession).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/config", adminHandler.UpdateConfig).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/attendance", adminHandler.Attendance).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/events/{eventId}/connections/clear", adminHandler.ClearConnections).Methods("POST", "OPTIONS")

	return corsHandler().Handler(r)
}

func corsHandler() *cors.Cors {
	origins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Options{
		AllowedOrigins: strings.Split(origins, ","),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}
