package scoring

import (
	"github.com/gorilla/mux"

	"github.com/amora-app/amora-backend/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/compatibility").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/{id}", handler.GetCompatibility).Methods("GET")
}
