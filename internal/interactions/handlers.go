package interactions

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amora-app/amora-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RecordInteractionDTO struct {
	TargetID int64  `json:"target_id" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=like pass super_like block report"`
}

func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto RecordInteractionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RecordInteraction(r.Context(), userID, dto.TargetID, Kind(dto.Kind))
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfInteraction), errors.Is(err, ErrInvalidKind):
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateInteraction):
			utils.RespondWithError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrQuotaExceeded):
			utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, ErrUserNotFound):
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
		default:
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to record interaction")
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) GetDailyLimits(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	limits, err := h.service.GetDailyLimits(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get daily limits")
		return
	}

	remaining := map[Kind]int{}
	for kind := range limits.Limits {
		remaining[kind] = limits.Remaining(kind)
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tier":      limits.Tier,
		"limits":    limits.Limits,
		"used":      limits.Used,
		"remaining": remaining,
		"resets_at": limits.ResetsAt,
	})
}
