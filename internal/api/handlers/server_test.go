package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zzuhann/stellar/internal/auth"
	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/crossref"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/favorites"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/domain/performers"
	"github.com/zzuhann/stellar/internal/store/memory"
)

type testAPI struct {
	server *httptest.Server
	jwt    *auth.JWTManager
	store  *memory.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := memory.New()
	c := cache.New()
	log := zerolog.Nop()

	performerRepo := performers.NewRepository(st)
	eventRepo := events.NewRepository(st)
	maintainer := crossref.NewMaintainer(st, log)

	performerSvc := performers.NewService(performerRepo, eventRepo, c, log)
	eventSvc := events.NewService(eventRepo, performerSvc, maintainer, c, log)
	favoriteSvc := favorites.NewService(st, eventRepo, c, log)

	engine := moderation.NewEngine(st, c, log)
	engine.OnStatusChange(moderation.KindEvents, crossref.Hook(maintainer))

	jwtManager := auth.NewJWTManager("test-secret", "stellar-test")
	srv := &Server{
		Performers: performerSvc,
		Events:     eventSvc,
		Favorites:  favoriteSvc,
		Engine:     engine,
		JWT:        jwtManager,
		Log:        log,
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testAPI{server: ts, jwt: jwtManager, store: st}
}

func (a *testAPI) token(t *testing.T, userID string, role moderation.Role) string {
	t.Helper()
	token, err := a.jwt.Generate(userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreatePerformerRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/api/v1/performers", "", map[string]any{"name": "Karina"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
}

func TestPerformerModerationFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.token(t, "user-1", moderation.RoleUser)
	adminToken := api.token(t, "admin-1", moderation.RoleAdmin)

	resp := api.do(t, http.MethodPost, "/api/v1/performers", userToken, map[string]any{"name": "Karina"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[map[string]any](t, resp)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	// The wire format is camelCase throughout; Go-cased keys must not leak.
	require.Equal(t, "pending", created["status"])
	require.Contains(t, created, "createdAt")
	require.NotContains(t, created, "ID")
	require.NotContains(t, created, "CreatedAt")

	// Non-admin review is forbidden.
	resp = api.do(t, http.MethodPut, "/api/v1/performers/"+id+"/review", userToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodPut, "/api/v1/performers/"+id+"/review", adminToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Now public.
	resp = api.do(t, http.MethodGet, "/api/v1/performers/"+id, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetMissingEventIsProblemJSON(t *testing.T) {
	api := newTestAPI(t)
	resp := api.do(t, http.MethodGet, "/api/v1/events/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	require.Equal(t, "Not Found", body["title"])
	require.Equal(t, float64(http.StatusNotFound), body["status"])
}

func TestRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.token(t, "user-1", moderation.RoleUser)

	resp := api.do(t, http.MethodPost, "/api/v1/performers", userToken, map[string]any{
		"name":  "Karina",
		"admin": true,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListPerformersHidesPendingFromPublic(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.token(t, "user-1", moderation.RoleUser)
	adminToken := api.token(t, "admin-1", moderation.RoleAdmin)

	for i := 0; i < 2; i++ {
		resp := api.do(t, http.MethodPost, "/api/v1/performers", userToken, map[string]any{
			"name": fmt.Sprintf("Performer %d", i),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// Anonymous pending listing is forbidden.
	resp := api.do(t, http.MethodGet, "/api/v1/performers?status=pending", "", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admins see the review queue.
	resp = api.do(t, http.MethodGet, "/api/v1/performers?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Public default listing is approved-only, currently empty.
	resp = api.do(t, http.MethodGet, "/api/v1/performers", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFavoritesOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	userToken := api.token(t, "user-1", moderation.RoleUser)
	adminToken := api.token(t, "admin-1", moderation.RoleAdmin)

	// An approved performer, then an approved event to favorite.
	resp := api.do(t, http.MethodPost, "/api/v1/performers", userToken, map[string]any{"name": "Karina"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	performer := decodeBody[map[string]any](t, resp)
	performerID, _ := performer["id"].(string)

	resp = api.do(t, http.MethodPut, "/api/v1/performers/"+performerID+"/review", adminToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	start := time.Now().Add(24 * time.Hour)
	resp = api.do(t, http.MethodPost, "/api/v1/events", userToken, map[string]any{
		"performerIds": []string{performerID},
		"title":        "Birthday cafe",
		"location": map[string]any{
			"name":        "Cafe Luna",
			"address":     "Taipei",
			"coordinates": map[string]any{"lat": 25.03, "lng": 121.53},
		},
		"datetime": map[string]any{"start": start, "end": start.Add(6 * time.Hour)},
		"socials":  map[string]string{"instagram": "@cafeluna"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	event := decodeBody[map[string]any](t, resp)
	eventID, _ := event["id"].(string)

	resp = api.do(t, http.MethodPut, "/api/v1/events/"+eventID+"/review", adminToken, map[string]any{"status": "approved"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/v1/users/me/favorites", userToken, map[string]any{"eventId": eventID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = api.do(t, http.MethodPost, "/api/v1/users/me/favorites/check", userToken, map[string]any{"eventIds": []string{eventID, "other"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	check := decodeBody[map[string]map[string]bool](t, resp)
	require.True(t, check["favorited"][eventID])
	require.False(t, check["favorited"]["other"])

	resp = api.do(t, http.MethodDelete, "/api/v1/users/me/favorites/"+eventID, userToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}
