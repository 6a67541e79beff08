package profiles

import (
	"github.com/go-chi/chi/v5"

	"github.com/amora-app/amora-backend/internal/auth"
)

func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware *auth.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Get("/trait-profiles/{id}", handler.GetTraitProfile)
		r.Post("/trait-profiles/rescore", handler.RescoreProfile)
	})
}
