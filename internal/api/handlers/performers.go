package handlers

import (
	"net/http"

	"github.com/zzuhann/stellar/internal/api/middleware"
	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/domain/performers"
)

func (s *Server) listPerformers(w http.ResponseWriter, r *http.Request) {
	f := performers.Filters{
		Search:       queryTrim(r, "search"),
		CreatedBy:    queryTrim(r, "createdBy"),
		BirthdayWeek: queryTrim(r, "birthdayWeek") == "true",
		SortBy:       performers.SortBy(queryTrim(r, "sortBy")),
		SortOrder:    listing.SortOrder(queryTrim(r, "sortOrder")),
		Page:         parsePage(r),
	}
	if status := queryTrim(r, "status"); status != "" {
		// Non-public statuses are visible to admins, or to a creator viewing
		// their own submissions.
		actor, _ := middleware.ActorFrom(r.Context())
		ownQueue := f.CreatedBy != "" && f.CreatedBy == actor.UserID
		if status != string(moderation.StatusApproved) && !actor.IsAdmin() && !ownQueue {
			problem.Write(w, http.StatusForbidden, "Permission Denied", "status filter restricted to administrators")
			return
		}
		f.Status = moderation.Status(status)
	}

	result, err := s.Performers.List(r.Context(), f)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) createPerformer(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var params performers.CreateParams
	if !decode(w, r, &params) {
		return
	}
	p, err := s.Performers.Create(r.Context(), actor, params)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) getPerformer(w http.ResponseWriter, r *http.Request) {
	p, err := s.Performers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePerformer(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	var params performers.UpdateParams
	if !decode(w, r, &params) {
		return
	}
	p, err := s.Performers.Update(r.Context(), actor, r.PathValue("id"), params)
	if err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePerformer(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.actor(w, r)
	if !ok {
		return
	}
	if err := s.Performers.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		problem.FromError(w, s.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
