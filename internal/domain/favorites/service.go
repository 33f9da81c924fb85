package favorites

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/events"
	"github.com/zzuhann/stellar/internal/domain/ids"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

const pairTTL = 6 * time.Hour

// TimeFilter narrows a favorites list by where the event sits relative to now.
type TimeFilter string

const (
	TimeNotEnded TimeFilter = "notEnded"
	TimeActive   TimeFilter = "active"
	TimeUpcoming TimeFilter = "upcoming"
	TimeEnded    TimeFilter = "ended"
	TimeAll      TimeFilter = "all"
)

type SortBy string

const (
	SortByFavoritedAt SortBy = "favoritedAt"
	SortByEventStart  SortBy = "eventStart"
)

type Filters struct {
	Time        TimeFilter
	PerformerID string
	SortBy      SortBy
	SortOrder   listing.SortOrder
	Page        listing.Page
}

// Entry joins a favorite row with its event.
type Entry struct {
	Favorite Favorite            `json:"favorite"`
	Event    events.SupportEvent `json:"event"`
}

type ListResult struct {
	Items      []Entry      `json:"items"`
	Pagination listing.Meta `json:"pagination"`
}

type Service struct {
	store store.Client
	repo  events.Repository
	cache *cache.Cache
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(st store.Client, eventRepo events.Repository, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		repo:  eventRepo,
		cache: c,
		log:   log,
		now:   time.Now,
	}
}

// Add saves an event for the user. Adding twice is a no-op returning the
// existing row, which keeps the (userId, eventId) pair unique.
func (s *Service) Add(ctx context.Context, userID, eventID string) (*Favorite, error) {
	event, err := s.repo.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != moderation.StatusApproved {
		// Unapproved events are invisible to the public; don't leak them.
		return nil, moderation.ErrNotFound
	}

	if existing, err := s.find(ctx, userID, eventID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	f := &Favorite{
		ID:        ids.NewUUID(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: s.now(),
	}
	if err := s.store.Add(ctx, Collection, f.ID, toDocument(f)); err != nil {
		return nil, err
	}
	s.cache.Delete(cache.PairKey(Collection, userID, eventID))
	return f, nil
}

// Remove deletes the user's favorite for an event.
func (s *Service) Remove(ctx context.Context, userID, eventID string) error {
	existing, err := s.find(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if existing == nil {
		return moderation.ErrNotFound
	}
	if err := s.store.Delete(ctx, Collection, existing.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	s.cache.Delete(cache.PairKey(Collection, userID, eventID))
	return nil
}

// IsFavorited reports whether the user saved the event. Pair results are
// stable, so they cache with a long TTL and are invalidated on add/remove.
func (s *Service) IsFavorited(ctx context.Context, userID, eventID string) (bool, error) {
	key := cache.PairKey(Collection, userID, eventID)
	if v, ok := s.cache.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}

	existing, err := s.find(ctx, userID, eventID)
	if err != nil {
		return false, err
	}
	favorited := existing != nil
	s.cache.Set(key, favorited, pairTTL)
	return favorited, nil
}

// CheckBatch returns the subset of eventIDs the user has saved. The store's
// membership operator takes at most ChunkSize arguments, so the ids are
// chunked, queried concurrently, and unioned.
func (s *Service) CheckBatch(ctx context.Context, userID string, eventIDs []string) (map[string]bool, error) {
	result := make(map[string]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range chunk(eventIDs) {
		group := group
		g.Go(func() error {
			docs, err := s.store.Query(gctx, Collection, []store.Filter{
				{Field: "userId", Op: "==", Value: userID},
				{Field: "eventId", Op: "in", Value: group},
			}, store.QueryOptions{})
			if err != nil {
				return err
			}
			mu.Lock()
			for _, doc := range docs {
				result[doc.String("eventId")] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListFavorites loads every favorite of the user, batch-fetches the referenced
// events, joins in memory, then filters, sorts and paginates. Favorites whose
// event has since been deleted are silently dropped.
func (s *Service) ListFavorites(ctx context.Context, userID string, f Filters) (ListResult, error) {
	if f.Time == "" {
		f.Time = TimeNotEnded
	}
	switch f.Time {
	case TimeNotEnded, TimeActive, TimeUpcoming, TimeEnded, TimeAll:
	default:
		return ListResult{}, moderation.ValidationError{Field: "status", Message: "unsupported time filter"}
	}
	if f.SortBy == "" {
		f.SortBy = SortByFavoritedAt
	}
	if f.SortBy != SortByFavoritedAt && f.SortBy != SortByEventStart {
		return ListResult{}, moderation.ValidationError{Field: "sortBy", Message: "unsupported sort field"}
	}
	if f.SortOrder == "" {
		f.SortOrder = listing.Desc
	}
	if !f.SortOrder.Valid() {
		return ListResult{}, moderation.ValidationError{Field: "sortOrder", Message: "must be asc or desc"}
	}

	docs, err := s.store.Query(ctx, Collection, []store.Filter{
		{Field: "userId", Op: "==", Value: userID},
	}, store.QueryOptions{})
	if err != nil {
		return ListResult{}, err
	}

	favs := make([]Favorite, 0, len(docs))
	eventIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		fav := fromDocument(doc)
		favs = append(favs, fav)
		eventIDs = append(eventIDs, fav.EventID)
	}

	eventsByID := make(map[string]events.SupportEvent, len(eventIDs))
	for _, group := range chunk(eventIDs) {
		fetched, err := s.repo.GetMany(ctx, group)
		if err != nil {
			return ListResult{}, err
		}
		for _, e := range fetched {
			eventsByID[e.ID] = e
		}
	}

	now := s.now()
	entries := make([]Entry, 0, len(favs))
	for _, fav := range favs {
		event, ok := eventsByID[fav.EventID]
		if !ok {
			// Event deleted since it was favorited.
			continue
		}
		if !matchesTime(&event, f.Time, now) {
			continue
		}
		if f.PerformerID != "" && !referencesPerformer(&event, f.PerformerID) {
			continue
		}
		entries = append(entries, Entry{Favorite: fav, Event: event})
	}

	sortEntries(entries, f.SortBy, f.SortOrder)

	lo, hi, meta := listing.Slice(len(entries), f.Page)
	return ListResult{Items: entries[lo:hi], Pagination: meta}, nil
}

func (s *Service) find(ctx context.Context, userID, eventID string) (*Favorite, error) {
	docs, err := s.store.Query(ctx, Collection, []store.Filter{
		{Field: "userId", Op: "==", Value: userID},
		{Field: "eventId", Op: "==", Value: eventID},
	}, store.QueryOptions{Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("lookup favorite: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	f := fromDocument(docs[0])
	return &f, nil
}

func matchesTime(e *events.SupportEvent, filter TimeFilter, now time.Time) bool {
	switch filter {
	case TimeNotEnded:
		return !e.Ended(now)
	case TimeActive:
		return e.Started(now) && !e.Ended(now)
	case TimeUpcoming:
		return !e.Started(now)
	case TimeEnded:
		return e.Ended(now)
	}
	return true
}

func referencesPerformer(e *events.SupportEvent, performerID string) bool {
	for _, ref := range e.Performers {
		if ref.ID == performerID {
			return true
		}
	}
	return false
}

func sortEntries(entries []Entry, by SortBy, order listing.SortOrder) {
	asc := order == listing.Asc
	sort.SliceStable(entries, func(i, j int) bool {
		var a, b time.Time
		if by == SortByEventStart {
			a, b = entries[i].Event.Datetime.Start, entries[j].Event.Datetime.Start
		} else {
			a, b = entries[i].Favorite.CreatedAt, entries[j].Favorite.CreatedAt
		}
		if a.Equal(b) {
			return false
		}
		if asc {
			return a.Before(b)
		}
		return b.Before(a)
	})
}
