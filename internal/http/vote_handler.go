package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"polls-service/internal/domain/vote"
	"polls-service/internal/platform/apperr"
	"polls-service/internal/worker"
)

type voteRequest struct {
	Choice int64 `json:"choice"`
}

type resultsResponse struct {
	QuestionID int64         `json:"question_id"`
	Text       string        `json:"text"`
	TotalVotes int64         `json:"total_votes"`
	Choices    []vote.Result `json:"choices"`
}

// @Summary     Cast or revise a vote
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Param       id       path      int64        true  "Question ID"
// @Param       request  body      voteRequest  true  "Vote payload"
// @Success     200      {object}  map[string]any     "confirmation with results location"
// @Failure     400      {object}  map[string]string  "invalid body or no choice selected"
// @Failure     401      {object}  map[string]string  "unauthorized"
// @Failure     403      {object}  map[string]string  "voting closed"
// @Failure     404      {object}  map[string]string  "question not found"
// @Failure     500      {object}  map[string]string  "server error"
// @Router      /polls/{id}/vote [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid question id", err))
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	userID := userIDFromCtx(r)

	receipt, err := h.voteSvc.Cast(r.Context(), questionID, req.Choice, userID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	select {
	case h.ballotCh <- worker.BallotEvent{
		QuestionID: questionID,
		ChoiceID:   receipt.Vote.ChoiceID,
		UserID:     userID,
		Revote:     receipt.Revote,
	}:
	default:
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": receipt.Message,
		"vote":    receipt.Vote,
		"revote":  receipt.Revote,
		"results": fmt.Sprintf("/polls/%d/results", questionID),
	})
}

// @Summary     Question results
// @Tags        polls
// @Produce     json
// @Param       id   path     int64  true  "Question ID"
// @Success     200  {object} resultsResponse
// @Failure     400  {object}  map[string]string  "invalid question id"
// @Failure     404  {object}  map[string]string  "question not found"
// @Failure     500  {object}  map[string]string  "server error"
// @Router      /polls/{id}/results [get]
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	questionID, err := parseIDParam(r, "id")
	if err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid question id", err))
		return
	}

	q, results, total, err := h.voteSvc.Results(r.Context(), questionID)
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultsResponse{
		QuestionID: q.ID,
		Text:       q.Text,
		TotalVotes: total,
		Choices:    results,
	})
}
