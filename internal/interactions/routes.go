package interactions

import (
	"github.com/gorilla/mux"

	"github.com/amora-app/amora-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/interactions").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("", handler.RecordInteraction).Methods("POST")
	api.HandleFunc("/limits", handler.GetDailyLimits).Methods("GET")
}
