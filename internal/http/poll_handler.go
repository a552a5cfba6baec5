package api

import (
	"net/http"
	"time"

	"online-polls/internal/domain/poll"
)

type createPollRequest struct {
	Title          string     `json:"title"`
	Question       string     `json:"question"`
	Choices        []string   `json:"choices"`
	PollType       poll.Type  `json:"pollType"`
	StartDate      *time.Time `json:"startDate"`
	ExpirationDate *time.Time `json:"expirationDate"`
}

type reportResponse struct {
	PollID         int64     `json:"pollId"`
	ReportCount    int       `json:"reportCount"`
	IsActive       bool      `json:"isActive"`
	ExpirationDate time.Time `json:"expirationDate"`
}

// @Summary     Create poll
// @Tags        polls
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createPollRequest  true  "Poll"
// @Success     201      {object}  poll.Poll
// @Failure     400      {object}  errorBody  "invalid poll"
// @Failure     401      {object}  errorBody  "unauthorized"
// @Failure     403      {object}  errorBody  "forbidden"
// @Failure     500      {object}  errorBody  "server error"
// @Router      /api/v1/polls [post]
func (h *Handler) handleCreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	p, err := h.pollSvc.Create(r.Context(), poll.CreateInput{
		Title:          req.Title,
		Question:       req.Question,
		Choices:        req.Choices,
		PollType:       req.PollType,
		StartDate:      req.StartDate,
		ExpirationDate: req.ExpirationDate,
		CreatedBy:      userIDFromCtx(r),
	})
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// @Summary     List polls
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       search     query     string  false  "Case-insensitive title match"
// @Param       status     query     string  false  "active, upcoming or expired"
// @Param       sortBy     query     string  false  "createdAt, startDate, expirationDate, title or reportCount"
// @Param       sortOrder  query     string  false  "asc or desc"
// @Success     200        {array}   poll.Poll
// @Failure     400        {object}  errorBody  "invalid query"
// @Failure     401        {object}  errorBody  "unauthorized"
// @Failure     500        {object}  errorBody  "server error"
// @Router      /api/v1/polls [get]
func (h *Handler) handleListPolls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	polls, err := h.pollSvc.Search(r.Context(), poll.SearchQuery{
		Text:      q.Get("search"),
		Status:    poll.Status(q.Get("status")),
		SortBy:    poll.SortField(q.Get("sortBy")),
		SortOrder: poll.SortOrder(q.Get("sortOrder")),
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	if polls == nil {
		polls = []poll.Poll{}
	}
	writeJSON(w, http.StatusOK, polls)
}

// @Summary     Get poll
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Poll ID"
// @Success     200  {object}  poll.Poll
// @Failure     400  {object}  errorBody  "invalid poll id"
// @Failure     404  {object}  errorBody  "not found"
// @Router      /api/v1/polls/{id} [get]
func (h *Handler) handleGetPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "poll")
	if err != nil {
		errorResponse(w, err)
		return
	}

	p, err := h.pollSvc.Get(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// @Summary     Delete poll
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Poll ID"
// @Success     200  {object}  map[string]string
// @Failure     400  {object}  errorBody  "invalid poll id"
// @Failure     403  {object}  errorBody  "forbidden"
// @Failure     404  {object}  errorBody  "not found"
// @Router      /api/v1/polls/{id} [delete]
func (h *Handler) handleDeletePoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "poll")
	if err != nil {
		errorResponse(w, err)
		return
	}

	if err := h.pollSvc.Delete(r.Context(), id); err != nil {
		errorResponse(w, err)
		return
	}
	h.voteSvc.Invalidate(id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "poll deleted"})
}

// @Summary     Report poll
// @Description Each voter may report a poll once. Enough reports close the poll.
// @Tags        polls
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "Poll ID"
// @Success     200  {object}  reportResponse
// @Failure     400  {object}  errorBody  "invalid poll id"
// @Failure     403  {object}  errorBody  "already reported or forbidden"
// @Failure     404  {object}  errorBody  "not found"
// @Router      /api/v1/polls/{id}/report [post]
func (h *Handler) handleReportPoll(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "poll")
	if err != nil {
		errorResponse(w, err)
		return
	}

	p, err := h.pollSvc.Report(r.Context(), id, userIDFromCtx(r))
	if err != nil {
		errorResponse(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		PollID:         p.ID,
		ReportCount:    p.ReportCount,
		IsActive:       p.IsActive,
		ExpirationDate: p.ExpirationDate,
	})
}
