package api

import (
	"net/http"

	"online-polls/internal/domain/user"
)

type updateRoleRequest struct {
	Role string `json:"role"`
}

// @Summary     List users
// @Tags        users
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   user.User
// @Failure     403  {object}  errorBody  "forbidden"
// @Failure     500  {object}  errorBody  "server error"
// @Router      /api/v1/users [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context())
	if err != nil {
		errorResponse(w, err)
		return
	}
	if users == nil {
		users = []user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// @Summary     Change a user's role
// @Tags        users
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      int64              true  "User ID"
// @Param       request  body      updateRoleRequest  true  "admin or voter"
// @Success     200      {object}  user.User
// @Failure     400      {object}  errorBody  "invalid id, body or role"
// @Failure     404      {object}  errorBody  "not found"
// @Failure     500      {object}  errorBody  "server error"
// @Router      /api/v1/users/{id}/role [patch]
func (h *Handler) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		errorResponse(w, err)
		return
	}
	var req updateRoleRequest
	if err := decodeBody(r, &req); err != nil {
		errorResponse(w, err)
		return
	}

	h.applyToUser(w, r, id, func() error {
		return h.userSvc.UpdateRole(r.Context(), id, req.Role)
	})
}

// @Summary     Deactivate user
// @Description The account keeps its votes but can no longer log in or call the API.
// @Tags        users
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      int64  true  "User ID"
// @Success     200  {object}  user.User
// @Failure     400  {object}  errorBody  "invalid id"
// @Failure     404  {object}  errorBody  "not found"
// @Failure     500  {object}  errorBody  "server error"
// @Router      /api/v1/users/{id}/deactivate [patch]
func (h *Handler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "user")
	if err != nil {
		errorResponse(w, err)
		return
	}

	h.applyToUser(w, r, id, func() error {
		return h.userSvc.Deactivate(r.Context(), id)
	})
}

// applyToUser runs change and answers with the account as stored afterwards.
func (h *Handler) applyToUser(w http.ResponseWriter, r *http.Request, id int64, change func() error) {
	if err := change(); err != nil {
		errorResponse(w, err)
		return
	}
	u, err := h.userSvc.GetByID(r.Context(), id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
