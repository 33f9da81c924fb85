// Package handlers is the thin HTTP surface over the moderation and query
// core: request decoding, actor extraction, and error-to-status mapping.
// Business rules all live below it.
package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/api/middleware"
	"github.com/zzuhann/stellar/internal/auth"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/favorites"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/domain/performers"
	"github.com/zzuhann/stellar/internal/metrics"
)

type Server struct {
	Performers *performers.Service
	Events     *events.Service
	Favorites  *favorites.Service
	Engine     *moderation.Engine
	JWT        *auth.JWTManager
	Log        zerolog.Logger
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	authed := middleware.RequireAuth(s.JWT)
	public := middleware.OptionalAuth(s.JWT)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("GET /api/v1/performers", public(http.HandlerFunc(s.listPerformers)))
	mux.Handle("POST /api/v1/performers", authed(http.HandlerFunc(s.createPerformer)))
	mux.Handle("GET /api/v1/performers/{id}", public(http.HandlerFunc(s.getPerformer)))
	mux.Handle("PATCH /api/v1/performers/{id}", authed(http.HandlerFunc(s.updatePerformer)))
	mux.Handle("DELETE /api/v1/performers/{id}", authed(http.HandlerFunc(s.deletePerformer)))
	mux.Handle("PUT /api/v1/performers/{id}/review", authed(s.review(moderation.KindPerformers)))
	mux.Handle("PUT /api/v1/performers/{id}/resubmit", authed(s.resubmit(moderation.KindPerformers)))
	mux.Handle("POST /api/v1/performers/batch-review", authed(s.batchReview(moderation.KindPerformers)))

	mux.Handle("GET /api/v1/events", public(http.HandlerFunc(s.listEvents)))
	mux.Handle("GET /api/v1/events/map", public(http.HandlerFunc(s.mapEvents)))
	mux.Handle("POST /api/v1/events", authed(http.HandlerFunc(s.createEvent)))
	mux.Handle("GET /api/v1/events/{id}", public(http.HandlerFunc(s.getEvent)))
	mux.Handle("PATCH /api/v1/events/{id}", authed(http.HandlerFunc(s.updateEvent)))
	mux.Handle("DELETE /api/v1/events/{id}", authed(http.HandlerFunc(s.deleteEvent)))
	mux.Handle("PUT /api/v1/events/{id}/review", authed(s.review(moderation.KindEvents)))
	mux.Handle("PUT /api/v1/events/{id}/resubmit", authed(s.resubmit(moderation.KindEvents)))
	mux.Handle("POST /api/v1/events/batch-review", authed(s.batchReview(moderation.KindEvents)))

	mux.Handle("GET /api/v1/users/me/favorites", authed(http.HandlerFunc(s.listFavorites)))
	mux.Handle("POST /api/v1/users/me/favorites", authed(http.HandlerFunc(s.addFavorite)))
	mux.Handle("DELETE /api/v1/users/me/favorites/{eventId}", authed(http.HandlerFunc(s.removeFavorite)))
	mux.Handle("POST /api/v1/users/me/favorites/check", authed(http.HandlerFunc(s.checkFavorites)))

	return middleware.RequestLogging(s.Log)(mux)
}
