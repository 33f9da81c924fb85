package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/zzuhann/stellar/internal/api/middleware"
	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

func (s *Server) actor(w http.ResponseWriter, r *http.Request) (moderation.Actor, bool) {
	actor, ok := middleware.ActorFrom(r.Context())
	if !ok {
		problem.Write(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
	}
	return actor, ok
}

// decode reads the JSON body into dst, rejecting unknown fields so that a
// typo'd or illegal field fails loudly instead of being silently dropped.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		problem.Write(w, http.StatusBadRequest, "Malformed Request", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parsePage(r *http.Request) listing.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return listing.Page{Page: page, Limit: limit}
}

func queryTrim(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func parseFloat(r *http.Request, key string) (float64, bool) {
	raw := queryTrim(r, key)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
