package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"online-polls/internal/platform/apperr"
)

// maxBodyBytes caps request bodies; votes and polls are small.
const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequest("invalid_input", "invalid body", err)
	}
	return nil
}

// pathID reads the numeric {id} route parameter. what names the resource in
// the error message.
func pathID(r *http.Request, what string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequest("invalid_input", "invalid "+what+" id", err)
	}
	return id, nil
}
