package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/amora-app/amora-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type SubmitResponseDTO struct {
	QuestionID     int64  `json:"question_id" validate:"required"`
	Value          string `json:"value" validate:"required"`
	ResponseTimeMS int    `json:"response_time_ms" validate:"gte=0"`
}

func eventIDFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	event, err := h.service.GetEvent(r.Context(), eventID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get event")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, event)
}

func (h *Handler) GetQuestions(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	questions, err := h.service.GetQuestions(r.Context(), eventID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get event questions")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, questions)
}

func (h *Handler) JoinEvent(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	participation, err := h.service.JoinEvent(r.Context(), eventID, userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to join event")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, participation)
}

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	var dto SubmitResponseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := &EventResponse{
		QuestionID:     dto.QuestionID,
		ResponseValue:  dto.Value,
		ResponseTimeMS: dto.ResponseTimeMS,
	}
	if err := h.service.SubmitResponse(r.Context(), eventID, userID, response); err != nil {
		h.respondServiceError(w, err, "Failed to submit response")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, response)
}

func (h *Handler) CompleteParticipation(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	if err := h.service.CompleteParticipation(r.Context(), eventID, userID); err != nil {
		h.respondServiceError(w, err, "Failed to complete participation")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": string(ParticipationCompleted)})
}

func (h *Handler) GetMyEventMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	eventMatches, err := h.service.GetUserEventMatches(r.Context(), eventID, userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to get event matches")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, eventMatches)
}

// ProcessEvent triggers the batch matchmaker for one event. Normally the
// scheduler does this; the endpoint exists for operational reruns.
func (h *Handler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDFromRequest(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid event ID")
		return
	}

	eventMatches, err := h.service.ProcessEventMatches(r.Context(), eventID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to process event matches")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"event_id":      eventID,
		"match_count":   len(eventMatches),
		"event_matches": eventMatches,
	})
}

func (h *Handler) AcceptEventMatch(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.AcceptEventMatch)
}

func (h *Handler) DeclineEventMatch(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.DeclineEventMatch)
}

func (h *Handler) decide(
	w http.ResponseWriter,
	r *http.Request,
	decision func(ctx context.Context, matchID, userID int64) (*EventMatch, error),
) {
	userID := r.Context().Value("userID").(int64)

	matchID, err := strconv.ParseInt(mux.Vars(r)["matchID"], 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	match, err := decision(r.Context(), matchID, userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to update event match")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"event_match": match,
		"state":       match.State(),
	})
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrEventMatchNotFound),
		errors.Is(err, ErrParticipationNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotYourMatch):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, ErrAlreadyDeclined),
		errors.Is(err, ErrMatchFinalized),
		errors.Is(err, ErrParticipationClosed):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrEventNotOpen),
		errors.Is(err, ErrNotParticipant),
		errors.Is(err, ErrUnknownQuestion):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
