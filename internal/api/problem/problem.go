// Package problem writes RFC 7807 problem+json responses and maps the domain
// error taxonomy onto HTTP status codes.
package problem

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

const contentType = "application/problem+json"

type Details struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func Write(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Details{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// FromError maps a domain error to its HTTP shape. Unrecognized errors become
// opaque 500s; their detail goes to the log, not the client.
func FromError(w http.ResponseWriter, log zerolog.Logger, err error) {
	var ve moderation.ValidationError
	switch {
	case errors.Is(err, moderation.ErrNotFound):
		Write(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, moderation.ErrPermissionDenied):
		Write(w, http.StatusForbidden, "Permission Denied", err.Error())
	case errors.Is(err, moderation.ErrInvalidTransition):
		Write(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, moderation.ErrConflict):
		Write(w, http.StatusConflict, "Conflict", err.Error())
	case errors.As(err, &ve):
		Write(w, http.StatusUnprocessableEntity, "Validation Failed", ve.Error())
	case errors.Is(err, store.ErrUnavailable):
		log.Error().Err(err).Msg("store unavailable")
		Write(w, http.StatusServiceUnavailable, "Store Unavailable", "temporary backend failure, try again")
	default:
		log.Error().Err(err).Msg("unhandled error")
		Write(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}
