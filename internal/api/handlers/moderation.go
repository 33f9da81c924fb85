package handlers

import (
	"net/http"

	"github.com/zzuhann/stellar/internal/api/problem"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

type reviewRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type batchReviewRequest struct {
	Items []batchReviewItem `json:"items"`
}

type batchReviewItem struct {
	ID      string         `json:"id"`
	Status  string         `json:"status"`
	Reason  string         `json:"reason,omitempty"`
	Updates map[string]any `json:"updates,omitempty"`
}

func (s *Server) review(kind moderation.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := s.actor(w, r)
		if !ok {
			return
		}
		var req reviewRequest
		if !decode(w, r, &req) {
			return
		}
		target, err := moderation.ParseStatus(req.Status)
		if err != nil {
			problem.Write(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
			return
		}
		if err := s.Engine.Review(r.Context(), actor, kind, r.PathValue("id"), moderation.Decision{
			Target: target,
			Reason: req.Reason,
		}); err != nil {
			problem.FromError(w, s.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) resubmit(kind moderation.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := s.actor(w, r)
		if !ok {
			return
		}
		if err := s.Engine.Resubmit(r.Context(), actor, kind, r.PathValue("id")); err != nil {
			problem.FromError(w, s.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) batchReview(kind moderation.Kind) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := s.actor(w, r)
		if !ok {
			return
		}
		var req batchReviewRequest
		if !decode(w, r, &req) {
			return
		}
		items := make([]moderation.BatchItem, 0, len(req.Items))
		for _, item := range req.Items {
			target, err := moderation.ParseStatus(item.Status)
			if err != nil {
				problem.Write(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
				return
			}
			items = append(items, moderation.BatchItem{
				ID:      item.ID,
				Target:  target,
				Reason:  item.Reason,
				Updates: item.Updates,
			})
		}
		if err := s.Engine.BatchReview(r.Context(), actor, kind, items); err != nil {
			problem.FromError(w, s.Log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
