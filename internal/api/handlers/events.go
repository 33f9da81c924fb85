package handlers

import (
	"net/http"
	"strconv"

	"github.com/zzuhann/stellar/internal/api/middleware"
	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	f := events.Filters{
		Search:      queryTrim(r, "search"),
		CreatedBy:   queryTrim(r, "createdBy"),
		PerformerID: queryTrim(r, "performerId"),
		Region:      queryTrim(r, "region"),
		SortBy:      events.SortBy(queryTrim(r, "sortBy")),
		SortOrder:   listing.SortOrder(queryTrim(r, "sortOrder")),
		Page:        parsePage(r),
	}
	// artistId is the historical alias for performerId.
	if f.PerformerID == "" {
		f.PerformerID = queryTrim(r, "artistId")
	}
	if status := queryTrim(r, "status"); status != "" {
		actor, _ := middleware.ActorFrom(r.Context())
		ownQueue := f.CreatedBy != "" && f.CreatedBy == actor.UserID
		if status != string(moderation.StatusApproved) && !actor.IsAdmin() && !ownQueue {
			problem.Write(w, http.StatusForbidden, "Permission Denied", "status filter restricted to administrators")
			return
		}
		f.Status = moderation.Status(status)
	}

	result, err := s.Events.List(r.Context(), f)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) mapEvents(w http.ResponseWriter, r *http.Request) {
	q := events.MapQuery{Refine: events.Refine(queryTrim(r, "status"))}

	minLat, ok1 := parseFloat(r, "minLat")
	maxLat, ok2 := parseFloat(r, "maxLat")
	minLng, ok3 := parseFloat(r, "minLng")
	maxLng, ok4 := parseFloat(r, "maxLng")
	if ok1 && ok2 && ok3 && ok4 {
		q.Bounds = &events.Bounds{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	} else if lat, ok := parseFloat(r, "centerLat"); ok {
		if lng, ok := parseFloat(r, "centerLng"); ok {
			if zoom, err := strconv.Atoi(queryTrim(r, "zoom")); err == nil {
				q.Center = &events.LatLng{Lat: lat, Lng: lng}
				q.Zoom = &zoom
			}
		}
	}

	result, err := s.Events.MapData(r.Context(), q)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var params events.CreateParams
	if !decode(w, r, &params) {
		return
	}
	e, err := s.Events.Create(r.Context(), actor, params)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.Events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var params events.UpdateParams
	if !decode(w, r, &params) {
		return
	}
	e, err := s.Events.Update(r.Context(), actor, r.PathValue("id"), params)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := s.Events.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
