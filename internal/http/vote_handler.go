package api

import (
	"net/http"

	"online-polls/internal/domain/vote"
	"online-polls/internal/metrics"
	"online-polls/internal/worker"
)

type voteRequest struct {
	ChoiceIDs []int64 `json:"choiceIds"`
	// ChosenChoiceIDs is accepted for older clients.
	ChosenChoiceIDs []int64 `json:"chosenChoiceIds,omitempty"`
}

func (req voteRequest) choices() []int64 {
	if len(req.ChoiceIDs) > 0 {
		return req.ChoiceIDs
	}
	return req.ChosenChoiceIDs
}

// @Summary     Vote in a poll
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64        true  "Poll ID"
// @Param       request  body      voteRequest  true  "Chosen choice ids"
// @Success     200      {object}  poll.Poll
// @Failure     400      {object}  errorBody  "invalid body or choice set"
// @Failure     401      {object}  errorBody  "unauthorized"
// @Failure     403      {object}  errorBody  "poll not open for voting"
// @Failure     404      {object}  errorBody  "not found"
// @Failure     409      {object}  errorBody  "already voted"
// @Failure     429      {object}  errorBody  "rate limited"
// @Failure     500      {object}  errorBody  "server error"
// @Router      /api/v1/polls/{id}/vote [post]
func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	pollID, err := pathID(r, "poll")
	if err != nil {
		errorResponse(w, err)
		return
	}

	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	userID := userIDFromCtx(r)

	p, v, err := h.voteSvc.Cast(r.Context(), pollID, userID, req.choices())
	if err != nil {
		metrics.IncVote(mapError(err).Code)
		errorResponse(w, err)
		return
	}
	metrics.IncVote("recorded")

	if h.events != nil {
		h.events.Offer(worker.VoteEvent{PollID: v.PollID, VoterID: v.VoterID, ChoiceIDs: v.ChoiceIDs, At: v.CreatedAt})
	}

	writeJSON(w, http.StatusOK, p)
}

// @Summary     Poll insights
// @Description Admins and voters who took part see per-choice counts ranked by percentage.
// @Tags        votes
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Poll ID"
// @Success     200  {object}  vote.Insights
// @Failure     400  {object}  errorBody  "invalid poll id"
// @Failure     401  {object}  errorBody  "unauthorized"
// @Failure     403  {object}  errorBody  "not allowed to see results"
// @Failure     404  {object}  errorBody  "not found or no votes yet"
// @Failure     500  {object}  errorBody  "server error"
// @Router      /api/v1/polls/{id}/results [get]
func (h *Handler) handlePollResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := pathID(r, "poll")
	if err != nil {
		errorResponse(w, err)
		return
	}

	res, err := h.voteSvc.Insights(r.Context(), pollID, vote.Requester{
		ID:   userIDFromCtx(r),
		Role: roleFromCtx(r),
	})
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
