package events

import (
	"github.com/gorilla/mux"

	"github.com/amora-app/amora-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/events").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/{id}", handler.GetEvent).Methods("GET")
	api.HandleFunc("/{id}/questions", handler.GetQuestions).Methods("GET")
	api.HandleFunc("/{id}/join", handler.JoinEvent).Methods("POST")
	api.HandleFunc("/{id}/responses", handler.SubmitResponse).Methods("POST")
	api.HandleFunc("/{id}/complete", handler.CompleteParticipation).Methods("POST")
	api.HandleFunc("/{id}/matches", handler.GetMyEventMatches).Methods("GET")
	api.HandleFunc("/{id}/process", handler.ProcessEvent).Methods("POST")

	eventMatches := router.PathPrefix("/api/v1/event-matches").Subrouter()
	eventMatches.Use(authMiddleware.Authenticate)

	eventMatches.HandleFunc("/{matchID}/accept", handler.AcceptEventMatch).Methods("POST")
	eventMatches.HandleFunc("/{matchID}/decline", handler.DeclineEventMatch).Methods("POST")
}
