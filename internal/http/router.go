package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "online-polls/docs"
	"online-polls/internal/domain/poll"
	"online-polls/internal/domain/user"
	"online-polls/internal/domain/vote"
	"online-polls/internal/platform/apperr"
	jwtpkg "online-polls/internal/platform/jwt"
	"online-polls/internal/ratelimit"
	"online-polls/internal/worker"
)

// VoteEvents receives recorded votes. Offer must not block.
type VoteEvents interface {
	Offer(ev worker.VoteEvent) bool
}

type Deps struct {
	Users   *user.Service
	Polls   *poll.Service
	Votes   *vote.Service
	JWT     *jwtpkg.Manager
	Limiter *ratelimit.Limiter
	Events  VoteEvents
	// Ready reports whether the backing store is reachable.
	Ready func(ctx context.Context) error
}

type Handler struct {
	userSvc *user.Service
	pollSvc *poll.Service
	voteSvc *vote.Service
	jwtMgr  *jwtpkg.Manager
	events  VoteEvents
	ready   func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{
		userSvc: d.Users,
		pollSvc: d.Polls,
		voteSvc: d.Votes,
		jwtMgr:  d.JWT,
		events:  d.Events,
		ready:   d.Ready,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	var accounts AccountLookup
	if d.Users != nil {
		accounts = d.Users
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.JWT, accounts))

			r.Get("/polls", h.handleListPolls)
			r.Get("/polls/{id}", h.handleGetPoll)
			r.Get("/polls/{id}/results", h.handlePollResults)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleVoter))
				r.With(RateLimitVotes(d.Limiter)).Post("/polls/{id}/vote", h.handleVote)
				r.Post("/polls/{id}/report", h.handleReportPoll)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireRole(user.RoleAdmin))
				r.Post("/polls", h.handleCreatePoll)
				r.Delete("/polls/{id}", h.handleDeletePoll)
				r.Get("/users", h.handleListUsers)
				r.Patch("/users/{id}/role", h.handleUpdateUserRole)
				r.Patch("/users/{id}/deactivate", h.handleDeactivateUser)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready == nil {
		errorResponse(w, apperr.Unavailable("db_unavailable", "database not configured", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.ready(ctx); err != nil {
		errorResponse(w, apperr.Unavailable("db_unavailable", "database not ready", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
