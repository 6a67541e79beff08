package scoring

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/amora-app/amora-backend/internal/common/utils"
	"github.com/amora-app/amora-backend/internal/profiles"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetCompatibility scores the authenticated user against the target user and
// returns the full breakdown.
func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	targetID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}
	if targetID == userID {
		utils.RespondWithError(w, http.StatusBadRequest, "Cannot score a user against themselves")
		return
	}

	result, err := h.service.ScoreUsers(r.Context(), userID, targetID)
	if err != nil {
		if errors.Is(err, profiles.ErrMissingProfile) {
			utils.RespondWithError(w, http.StatusNotFound, "One of the users has no active trait profile")
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to compute compatibility")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
