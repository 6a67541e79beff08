package profiles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amora-app/amora-backend/internal/common/utils"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetTraitProfile returns the active trait profile for a user.
func (h *Handler) GetTraitProfile(w http.ResponseWriter, r *http.Request) {
	userIDStr := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := h.repo.GetActiveProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrMissingProfile) {
			utils.RespondWithError(w, http.StatusNotFound, "No active trait profile")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load trait profile")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, profile)
}

// RescoreProfile replaces the caller's active profile with a newly scored one.
func (h *Handler) RescoreProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var profile TraitProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	profile.UserID = userID

	if err := profile.Validate(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.ReplaceProfile(r.Context(), &profile); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to replace trait profile")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, profile)
}
