package api

import (
	"net/http"

	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	"online-polls/internal/platform/apperr"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.Internal() {
		slogLogger.Error("request failed", "code", appErr.Code, "error", appErr.Err)
	}
	writeJSON(w, appErr.StatusCode(), errorBody{Error: appErr.Code, Message: appErr.Message})
}

// errorRules turn domain errors into client responses. Rules without a
// message keep the validation detail of the error.
var errorRules = []apperr.Rule{
	{Target: user.ErrInvalidCredentials, New: apperr.Unauthorized, Code: "invalid_credentials", Message: "invalid credentials"},
	{Target: user.ErrInactiveUser, New: apperr.Unauthorized, Code: "inactive_user", Message: "user is inactive"},
	{Target: user.ErrEmailTaken, New: apperr.BadRequest, Code: "email_taken", Message: "email already taken"},
	{Target: user.ErrInvalidInput, New: apperr.BadRequest, Code: "invalid_input"},
	{Target: user.ErrUserNotFound, New: apperr.NotFound, Code: "user_not_found", Message: "user not found"},

	{Target: poll.ErrPollNotFound, New: apperr.NotFound, Code: "poll_not_found", Message: "poll not found"},
	{Target: poll.ErrInvalidPoll, New: apperr.BadRequest, Code: "invalid_poll"},
	{Target: poll.ErrInvalidDates, New: apperr.BadRequest, Code: "invalid_dates", Message: "expirationDate must be after startDate"},
	{Target: poll.ErrInvalidQuery, New: apperr.BadRequest, Code: "invalid_query"},
	{Target: poll.ErrNotStarted, New: apperr.Forbidden, Code: "poll_not_started", Message: "poll has not started yet"},
	{Target: poll.ErrExpired, New: apperr.Forbidden, Code: "poll_expired", Message: "poll has expired"},
	{Target: poll.ErrSuspended, New: apperr.Forbidden, Code: "poll_suspended", Message: "poll is no longer active"},
	{Target: poll.ErrAlreadyReported, New: apperr.Forbidden, Code: "already_reported", Message: "you already reported this poll"},

	{Target: vote.ErrAlreadyVoted, New: apperr.Conflict, Code: "already_voted", Message: "user already voted in this poll"},
	{Target: vote.ErrInvalidChoiceSet, New: apperr.BadRequest, Code: "invalid_choice_set"},
	{Target: vote.ErrNoVotesYet, New: apperr.NotFound, Code: "no_votes_yet", Message: "no votes have been cast for this poll"},
	{Target: vote.ErrResultsForbidden, New: apperr.Forbidden, Code: "results_forbidden", Message: "vote in this poll to see its results"},
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}
	return apperr.Translate(err, errorRules)
}
