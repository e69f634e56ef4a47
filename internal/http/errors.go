package api

import (
	"database/sql"
	"errors"
	"net/http"

	"polls-service/internal/domain/question"
	"polls-service/internal/domain/user"
	"polls-service/internal/domain/vote"
	"polls-service/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("not_found", "resource not found", err)
	case errors.Is(err, question.ErrNotFound):
		return apperr.NotFound("not_found", "question not found", err)
	case errors.Is(err, question.ErrInvalidInput):
		return apperr.BadRequest("invalid_input", err.Error(), err)
	case errors.Is(err, question.ErrVotingClosed), errors.Is(err, vote.ErrVotingClosed):
		return apperr.Forbidden("voting_closed", "voting is not allowed for this poll", err)
	case errors.Is(err, vote.ErrNoSelection):
		return apperr.BadRequest("no_selection", "you didn't select a choice", err)
	case errors.Is(err, vote.ErrNoVote):
		return apperr.NotFound("not_found", "no vote recorded", err)
	case errors.Is(err, user.ErrInvalidCredentials):
		return apperr.Unauthorized("invalid_credentials", "invalid credentials", err)
	case errors.Is(err, user.ErrUsernameTaken):
		return apperr.BadRequest("username_taken", "username already taken", err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}
