package favorites

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store/memory"
)

const userID = "user-1"

type fixture struct {
	store  *memory.Store
	events events.Repository
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	repo := events.NewRepository(st)
	return &fixture{
		store:  st,
		events: repo,
		svc:    NewService(st, repo, cache.New(), zerolog.Nop()),
	}
}

func (f *fixture) seedEvent(t *testing.T, id string, status moderation.Status, start, end time.Time) {
	t.Helper()
	now := time.Now()
	e := &events.SupportEvent{
		ID:     id,
		Title:  "Event " + id,
		Status: status,
		Location: events.Location{
			Name: "Cafe", Address: "Taipei",
			Coordinates: &events.Coordinates{Lat: 25, Lng: 121.5},
		},
		Datetime:  events.Schedule{Start: start, End: end},
		CreatedBy: "creator-1",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.events.Create(context.Background(), e))
}

func (f *fixture) seedApproved(t *testing.T, id string) {
	t.Helper()
	start := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, id, moderation.StatusApproved, start, start.Add(4*time.Hour))
}

func TestAddIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.seedApproved(t, "e1")

	first, err := f.svc.Add(context.Background(), userID, "e1")
	require.NoError(t, err)

	second, err := f.svc.Add(context.Background(), userID, "e1")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 1, f.store.Len(Collection))
}

func TestAddRejectsUnapprovedOrMissing(t *testing.T) {
	f := newFixture(t)
	start := time.Now().Add(24 * time.Hour)
	f.seedEvent(t, "e-pending", moderation.StatusPending, start, start.Add(time.Hour))

	_, err := f.svc.Add(context.Background(), userID, "e-pending")
	require.ErrorIs(t, err, moderation.ErrNotFound)

	_, err = f.svc.Add(context.Background(), userID, "e-ghost")
	require.ErrorIs(t, err, moderation.ErrNotFound)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	f.seedApproved(t, "e1")

	_, err := f.svc.Add(context.Background(), userID, "e1")
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(context.Background(), userID, "e1"))
	require.Zero(t, f.store.Len(Collection))

	require.ErrorIs(t, f.svc.Remove(context.Background(), userID, "e1"), moderation.ErrNotFound)
}

func TestIsFavoritedCachesPair(t *testing.T) {
	f := newFixture(t)
	f.seedApproved(t, "e1")

	ok, err := f.svc.IsFavorited(context.Background(), userID, "e1")
	require.NoError(t, err)
	require.False(t, ok)

	// Add invalidates the cached negative answer.
	_, err = f.svc.Add(context.Background(), userID, "e1")
	require.NoError(t, err)

	ok, err = f.svc.IsFavorited(context.Background(), userID, "e1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, f.svc.Remove(context.Background(), userID, "e1"))
	ok, err = f.svc.IsFavorited(context.Background(), userID, "e1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCheckBatchBeyondChunkSize(t *testing.T) {
	f := newFixture(t)

	var saved []string
	for i := 0; i < ChunkSize*2+5; i++ {
		id := fmt.Sprintf("e%02d", i)
		f.seedApproved(t, id)
		if i%2 == 0 {
			_, err := f.svc.Add(context.Background(), userID, id)
			require.NoError(t, err)
			saved = append(saved, id)
		}
	}

	var all []string
	for i := 0; i < ChunkSize*2+5; i++ {
		all = append(all, fmt.Sprintf("e%02d", i))
	}
	all = append(all, "e-ghost")

	result, err := f.svc.CheckBatch(context.Background(), userID, all)
	require.NoError(t, err)
	require.Len(t, result, len(saved))
	for _, id := range saved {
		require.True(t, result[id], id)
	}
	require.False(t, result["e-ghost"])
}

func TestCheckBatchEmpty(t *testing.T) {
	f := newFixture(t)
	result, err := f.svc.CheckBatch(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestChunk(t *testing.T) {
	require.Nil(t, chunk(nil))

	ids := make([]string, ChunkSize+3)
	for i := range ids {
		ids[i] = fmt.Sprintf("id%d", i)
	}
	groups := chunk(ids)
	require.Len(t, groups, 2)
	require.Len(t, groups[0], ChunkSize)
	require.Len(t, groups[1], 3)
}

func TestListFavoritesDefaultsToNotEnded(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.seedEvent(t, "e-future", moderation.StatusApproved, now.Add(24*time.Hour), now.Add(30*time.Hour))
	f.seedEvent(t, "e-ended", moderation.StatusApproved, now.Add(-30*time.Hour), now.Add(-24*time.Hour))

	for _, id := range []string{"e-future", "e-ended"} {
		_, err := f.svc.Add(context.Background(), userID, id)
		require.NoError(t, err)
	}

	result, err := f.svc.ListFavorites(context.Background(), userID, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "e-future", result.Items[0].Event.ID)

	all, err := f.svc.ListFavorites(context.Background(), userID, Filters{Time: TimeAll})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)

	ended, err := f.svc.ListFavorites(context.Background(), userID, Filters{Time: TimeEnded})
	require.NoError(t, err)
	require.Len(t, ended.Items, 1)
	require.Equal(t, "e-ended", ended.Items[0].Event.ID)
}

func TestListFavoritesDropsDeletedEvents(t *testing.T) {
	f := newFixture(t)
	f.seedApproved(t, "e1")
	f.seedApproved(t, "e2")
	for _, id := range []string{"e1", "e2"} {
		_, err := f.svc.Add(context.Background(), userID, id)
		require.NoError(t, err)
	}

	require.NoError(t, f.events.Delete(context.Background(), "e2"))

	result, err := f.svc.ListFavorites(context.Background(), userID, Filters{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "e1", result.Items[0].Event.ID)
}

func TestListFavoritesSortByEventStart(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	f.seedEvent(t, "e1", moderation.StatusApproved, now.Add(72*time.Hour), now.Add(76*time.Hour))
	f.seedEvent(t, "e2", moderation.StatusApproved, now.Add(24*time.Hour), now.Add(28*time.Hour))
	f.seedEvent(t, "e3", moderation.StatusApproved, now.Add(48*time.Hour), now.Add(52*time.Hour))
	for _, id := range []string{"e1", "e2", "e3"} {
		_, err := f.svc.Add(context.Background(), userID, id)
		require.NoError(t, err)
	}

	result, err := f.svc.ListFavorites(context.Background(), userID, Filters{
		SortBy: SortByEventStart, SortOrder: listing.Asc,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e3", "e1"}, []string{
		result.Items[0].Event.ID, result.Items[1].Event.ID, result.Items[2].Event.ID,
	})
}

func TestListFavoritesPerformerFilter(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	start := now.Add(24 * time.Hour)

	e1 := &events.SupportEvent{
		ID: "e1", Title: "With Karina", Status: moderation.StatusApproved,
		Performers: []events.PerformerRef{{ID: "p1", Name: "Karina"}},
		Location:   events.Location{Name: "Cafe", Address: "Taipei", Coordinates: &events.Coordinates{Lat: 25, Lng: 121}},
		Datetime:   events.Schedule{Start: start, End: start.Add(time.Hour)},
		CreatedBy:  "creator-1", CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.events.Create(context.Background(), e1))
	f.seedApproved(t, "e2")
	for _, id := range []string{"e1", "e2"} {
		_, err := f.svc.Add(context.Background(), userID, id)
		require.NoError(t, err)
	}

	result, err := f.svc.ListFavorites(context.Background(), userID, Filters{PerformerID: "p1"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "e1", result.Items[0].Event.ID)
}
