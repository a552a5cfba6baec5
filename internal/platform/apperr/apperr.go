package apperr

import (
	"errors"
	"net/http"
)

// AppError is what handlers render. Code and Message reach the client; Err is
// only logged.
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	case e.Err != nil:
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Internal reports whether the error is a server fault whose cause must be logged.
func (e *AppError) Internal() bool {
	return e.StatusCode() >= http.StatusInternalServerError
}

type Constructor func(code, msg string, err error) *AppError

func withStatus(status int) Constructor {
	return func(code, msg string, err error) *AppError {
		return &AppError{Status: status, Code: code, Message: msg, Err: err}
	}
}

var (
	BadRequest      = withStatus(http.StatusBadRequest)
	Unauthorized    = withStatus(http.StatusUnauthorized)
	Forbidden       = withStatus(http.StatusForbidden)
	NotFound        = withStatus(http.StatusNotFound)
	Conflict        = withStatus(http.StatusConflict)
	TooManyRequests = withStatus(http.StatusTooManyRequests)
	Internal        = withStatus(http.StatusInternalServerError)
	Unavailable     = withStatus(http.StatusServiceUnavailable)
)

// Rule maps a sentinel error to a response. An empty Message passes the
// error text through, for validation errors whose detail helps the client.
type Rule struct {
	Target  error
	New     Constructor
	Code    string
	Message string
}

// Translate returns err as an AppError. Existing AppErrors win, then the
// first matching rule; anything else is hidden behind a 500.
func Translate(err error, rules []Rule) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, r := range rules {
		if !errors.Is(err, r.Target) {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = err.Error()
		}
		return r.New(r.Code, msg, err)
	}
	return Internal("internal_error", "internal server error", err)
}
