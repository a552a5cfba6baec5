package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"online-polls/internal/domain/user"
	"online-polls/internal/metrics"
	"online-polls/internal/platform/apperr"
	jwtpkg "online-polls/internal/platform/jwt"
	"online-polls/internal/ratelimit"
)

// principal is the authenticated caller attached to the request context.
type principal struct {
	id   int64
	role string
}

type principalKey struct{}

var slogLogger = slog.Default()

func SetLogger(l *slog.Logger) {
	if l != nil {
		slogLogger = l
	}
}

// AccountLookup lets the auth middleware refuse tokens of deactivated accounts.
type AccountLookup interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// AuthMiddleware verifies the bearer token. When accounts is set the role is
// taken from the stored account, so role changes apply without a new token.
func AuthMiddleware(jm *jwtpkg.Manager, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				errorResponse(w, err)
				return
			}
			ident, err := jm.Parse(raw)
			if err != nil {
				errorResponse(w, apperr.Unauthorized("invalid_token", "invalid token", err))
				return
			}

			who := principal{id: ident.UserID, role: ident.Role}
			if accounts != nil {
				if who.role, err = currentRole(r.Context(), accounts, ident.UserID); err != nil {
					errorResponse(w, err)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, who)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperr.Unauthorized("missing_token", "missing authorization header", nil)
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("invalid_token", "invalid authorization header", nil)
	}
	return strings.TrimSpace(token), nil
}

// currentRole returns the stored role of an active account.
func currentRole(ctx context.Context, accounts AccountLookup, id int64) (string, error) {
	u, err := accounts.GetByID(ctx, id)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return "", apperr.Unauthorized("inactive_user", "account is not active", err)
	case err != nil:
		return "", err
	case !u.IsActive:
		return "", apperr.Unauthorized("inactive_user", "account is not active", nil)
	}
	return u.Role, nil
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, roleFromCtx(r)) {
				errorResponse(w, apperr.Forbidden("forbidden", "insufficient permissions", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerFromCtx(r *http.Request) principal {
	who, _ := r.Context().Value(principalKey{}).(principal)
	return who
}

func userIDFromCtx(r *http.Request) int64 { return callerFromCtx(r).id }

func roleFromCtx(r *http.Request) string { return callerFromCtx(r).role }

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimitVotes admits vote attempts per client address. A nil limiter disables it.
func RateLimitVotes(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			ok, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				slogLogger.Warn("rate limiter unavailable, admitting request", "ip", ip, "error", err)
			}
			if !ok {
				metrics.IncRateLimited()
				metrics.IncVote("rate_limited")
				w.Header().Set("Retry-After", strconvSeconds(limiter.Window()))
				errorResponse(w, apperr.TooManyRequests("rate_limited", "too many vote attempts, try again later", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(rw, r)

		status := rw.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		metrics.IncRequest(r.Method, route, status)

		slogLogger.Info("request",
			"method", r.Method,
			"path", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// clientIP relies on chimw.RealIP having rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func strconvSeconds(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}
