package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"polls-service/internal/domain/question"
	"polls-service/internal/domain/vote"
	"polls-service/internal/platform/apperr"
)

type createQuestionRequest struct {
	Text    string   `json:"text"`
	PubDate *string  `json:"pub_date"`
	EndDate *string  `json:"end_date"`
	Choices []string `json:"choices"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errorResponse(w, apperr.BadRequest("invalid_input", "invalid limit", err))
			return
		}
		limit = n
	}

	summaries, err := h.questionSvc.ListPublished(r.Context(), limit)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *Handler) handleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid question id", err))
		return
	}

	q, choices, err := h.questionSvc.GetOpen(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}

	var previous *vote.Vote
	if userID := userIDFromCtx(r); userID != 0 {
		previous, err = h.voteSvc.Previous(r.Context(), userID, id)
		if err != nil {
			errorResponse(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"question":      q,
		"choices":       choices,
		"previous_vote": previous,
	})
}

func (h *Handler) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	pubDate, err := parseTimePtr(req.PubDate)
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "pub_date must be RFC3339", err))
		return
	}
	endDate, err := parseTimePtr(req.EndDate)
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "end_date must be RFC3339", err))
		return
	}

	q := &question.Question{
		Text:    req.Text,
		EndDate: endDate,
	}
	if pubDate != nil {
		q.PubDate = *pubDate
	}

	choices := make([]question.Choice, 0, len(req.Choices))
	for _, text := range req.Choices {
		choices = append(choices, question.Choice{Text: text})
	}

	id, err := h.questionSvc.Create(r.Context(), q, choices)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid question id", err))
		return
	}

	if err := h.questionSvc.Delete(r.Context(), id); err != nil {
		errorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
