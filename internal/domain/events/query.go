package events

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/metrics"
)

type SortBy string

const (
	SortByTitle     SortBy = "title"
	SortByCreatedAt SortBy = "createdAt"
	SortByStartTime SortBy = "startTime"
)

// Filters drive the event list pipeline.
type Filters struct {
	Search      string
	Status      moderation.Status
	CreatedBy   string
	PerformerID string
	Region      string
	SortBy      SortBy
	SortOrder   listing.SortOrder
	Page        listing.Page
}

type ListResult struct {
	Items      []SupportEvent `json:"items"`
	Pagination listing.Meta   `json:"pagination"`
}

// List runs the filter/sort/paginate pipeline. The store answers the cheap
// status/createdBy subset; free-text search, region, and performer membership
// are applied in memory because the store cannot combine them, then the page
// is sliced out of the sorted set.
func (s *Service) List(ctx context.Context, f Filters) (ListResult, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(string(moderation.KindEvents)).Observe(time.Since(start).Seconds())
	}()

	if f.Status == "" {
		f.Status = moderation.StatusApproved
	}
	if !f.Status.Valid() || f.Status == moderation.StatusExists {
		return ListResult{}, moderation.ValidationError{Field: "status", Message: "unknown status"}
	}
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	switch f.SortBy {
	case SortByTitle, SortByCreatedAt, SortByStartTime:
	default:
		return ListResult{}, moderation.ValidationError{Field: "sortBy", Message: "unsupported sort field"}
	}
	if f.SortOrder == "" {
		f.SortOrder = listing.Desc
	}
	if !f.SortOrder.Valid() {
		return ListResult{}, moderation.ValidationError{Field: "sortOrder", Message: "must be asc or desc"}
	}
	f.Page = f.Page.Normalize()

	key := cache.QueryKey(string(moderation.KindEvents), f.cacheKey())
	if v, ok := s.cache.Get(key); ok {
		if cached, ok := v.(ListResult); ok {
			return cached, nil
		}
	}

	all, err := s.repo.List(ctx, ListQuery{Status: f.Status, CreatedBy: f.CreatedBy})
	if err != nil {
		return ListResult{}, err
	}

	filtered := make([]SupportEvent, 0, len(all))
	for _, e := range all {
		if f.Search != "" && !matchesSearch(e, f.Search) {
			continue
		}
		if f.Region != "" && !containsFold(e.Location.Address, f.Region) {
			continue
		}
		if f.PerformerID != "" && !referencesPerformer(e, f.PerformerID) {
			continue
		}
		filtered = append(filtered, e)
	}

	sortEvents(filtered, f.SortBy, f.SortOrder)

	lo, hi, meta := listing.Slice(len(filtered), f.Page)
	result := ListResult{Items: filtered[lo:hi], Pagination: meta}

	ttl := adminQueryTTL
	if f.Status == moderation.StatusApproved {
		ttl = publicQueryTTL
	}
	s.cache.Set(key, result, ttl)
	return result, nil
}

// matchesSearch is a case-insensitive substring match over the title,
// description, location fields and the performer snapshot names, OR across
// fields.
func matchesSearch(e SupportEvent, search string) bool {
	if containsFold(e.Title, search) ||
		containsFold(e.Description, search) ||
		containsFold(e.Location.Name, search) ||
		containsFold(e.Location.Address, search) {
		return true
	}
	for _, ref := range e.Performers {
		if containsFold(ref.Name, search) {
			return true
		}
	}
	return false
}

func referencesPerformer(e SupportEvent, performerID string) bool {
	for _, ref := range e.Performers {
		if ref.ID == performerID {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	if haystack == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// sortEvents orders the filtered set. Equal sort keys keep their input order;
// the title sort is already lexicographic on the display name, and time sorts
// stay stable.
func sortEvents(items []SupportEvent, by SortBy, order listing.SortOrder) {
	asc := order == listing.Asc
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch by {
		case SortByTitle:
			if items[i].Title == items[j].Title {
				return false
			}
			less = items[i].Title < items[j].Title
		case SortByStartTime:
			if items[i].Datetime.Start.Equal(items[j].Datetime.Start) {
				return false
			}
			less = items[i].Datetime.Start.Before(items[j].Datetime.Start)
		default:
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				return false
			}
			less = items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		if asc {
			return less
		}
		return !less
	})
}

func (f Filters) cacheKey() string {
	return fmt.Sprintf("s=%s|st=%s|cb=%s|pid=%s|r=%s|sort=%s:%s|p=%d|l=%d",
		strings.ToLower(f.Search), f.Status, f.CreatedBy, f.PerformerID,
		strings.ToLower(f.Region), f.SortBy, f.SortOrder, f.Page.Page, f.Page.Limit)
}
