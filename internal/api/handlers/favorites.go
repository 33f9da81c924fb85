package handlers

import (
	"net/http"
	"strings"

	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/domain/favorites"
	"github.com/zzuhann/stellar/internal/domain/listing"
)

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	f := favorites.Filters{
		Time:        favorites.TimeFilter(queryTrim(r, "status")),
		PerformerID: queryTrim(r, "performerId"),
		SortBy:      favorites.SortBy(queryTrim(r, "sortBy")),
		SortOrder:   listing.SortOrder(queryTrim(r, "sortOrder")),
		Page:        parsePage(r),
	}
	result, err := s.Favorites.ListFavorites(r.Context(), actor.UserID, f)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var body struct {
		EventID string `json:"eventId"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.EventID) == "" {
		problem.Write(w, http.StatusUnprocessableEntity, "Validation Failed", "eventId is required")
		return
	}
	fav, err := s.Favorites.Add(r.Context(), actor.UserID, body.EventID)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := s.Favorites.Remove(r.Context(), actor.UserID, r.PathValue("eventId")); err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkFavorites(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var body struct {
		EventIDs []string `json:"eventIds"`
	}
	if !decode(w, r, &body) {
		return
	}
	ids := make([]string, 0, len(body.EventIDs))
	for _, id := range body.EventIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	result, err := s.Favorites.CheckBatch(r.Context(), actor.UserID, ids)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]map[string]bool{"favorited": result})
}
