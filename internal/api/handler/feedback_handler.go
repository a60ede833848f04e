package handler

import (
	"net/http"

	"taskboard/internal/app/service"
	"taskboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
	devMode         bool
}

func NewFeedbackHandler(feedbackService *service.FeedbackService, devMode bool) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService, devMode: devMode}
}

func (h *FeedbackHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.submit)
}

func (h *FeedbackHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req service.FeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondInvalidPayload(w, err)
		return
	}
	if _, err := h.feedbackService.Submit(r.Context(), req); err != nil {
		common.RespondWithDomainError(w, err, h.devMode)
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, common.SuccessResponse{
		Success: true,
		Message: "Feedback received. Thank you!",
	})
}
