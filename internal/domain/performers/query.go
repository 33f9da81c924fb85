package performers

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
	SortByName      SortBy = "name"
	SortByCreatedAt SortBy = "createdAt"
)

// Filters drive the performer list pipeline. Zero values mean "not set";
// Status defaults to approved for public callers.
type Filters struct {
	Search       string
	Status       moderation.Status
	CreatedBy    string
	BirthdayWeek bool
	SortBy       SortBy
	SortOrder    listing.SortOrder
	Page         listing.Page
}

type ListResult struct {
	Items      []Performer  `json:"items"`
	Pagination listing.Meta `json:"pagination"`
}

// List runs the filter/sort/paginate pipeline. The store only answers the
// cheap status/createdBy subset; search, the birthday-week window and sorting
// happen in memory, then the page is sliced out. Results are cached under the
// serialized filters.
func (s *Service) List(ctx context.Context, f Filters) (ListResult, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(string(moderation.KindPerformers)).Observe(time.Since(start).Seconds())
	}()

	if f.Status == "" {
		f.Status = moderation.StatusApproved
	}
	if !f.Status.Valid() {
		return ListResult{}, moderation.ValidationError{Field: "status", Message: "unknown status"}
	}
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if f.SortBy != SortByName && f.SortBy != SortByCreatedAt {
		return ListResult{}, moderation.ValidationError{Field: "sortBy", Message: "unsupported sort field"}
	}
	if f.SortOrder == "" {
		f.SortOrder = listing.Desc
	}
	if !f.SortOrder.Valid() {
		return ListResult{}, moderation.ValidationError{Field: "sortOrder", Message: "must be asc or desc"}
	}
	f.Page = f.Page.Normalize()

	key := cache.QueryKey(string(moderation.KindPerformers), f.cacheKey())
	if v, ok := s.cache.Get(key); ok {
		if cached, ok := v.(ListResult); ok {
			return cached, nil
		}
	}

	all, err := s.repo.List(ctx, ListQuery{Status: f.Status, CreatedBy: f.CreatedBy})
	if err != nil {
		return ListResult{}, err
	}

	now := s.now()
	filtered := make([]Performer, 0, len(all))
	for _, p := range all {
		if f.Search != "" && !matchesSearch(p, f.Search) {
			continue
		}
		if f.BirthdayWeek && !matchesBirthdayWeek(p.Birthday, now) {
			continue
		}
		filtered = append(filtered, p)
	}

	sortPerformers(filtered, f.SortBy, f.SortOrder)

	lo, hi, meta := listing.Slice(len(filtered), f.Page)
	result := ListResult{Items: filtered[lo:hi], Pagination: meta}

	ttl := adminQueryTTL
	if f.Status == moderation.StatusApproved {
		ttl = publicQueryTTL
	}
	s.cache.Set(key, result, ttl)
	return result, nil
}

// matchesSearch is a case-insensitive substring match over every name field
// and the group affiliations.
func matchesSearch(p Performer, search string) bool {
	needle := strings.ToLower(search)
	for _, hay := range []string{p.Name, p.LocalizedName, p.RealName} {
		if hay != "" && strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	for _, group := range p.Groups {
		if strings.Contains(strings.ToLower(group), needle) {
			return true
		}
	}
	return false
}

// matchesBirthdayWeek reports whether the performer's month/day falls inside
// the 7 days starting at now's date, in now's year. Windows crossing Dec 31
// wrap into January.
func matchesBirthdayWeek(b *Birthday, now time.Time) bool {
	if b == nil {
		return false
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < 7; i++ {
		if int(day.Month()) == b.Month && day.Day() == b.Day {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

func sortPerformers(items []Performer, by SortBy, order listing.SortOrder) {
	asc := order == listing.Asc
	sort.SliceStable(items, func(i, j int) bool {
		var less bool
		switch by {
		case SortByName:
			if items[i].Name == items[j].Name {
				return false
			}
			less = items[i].Name < items[j].Name
		default:
			if items[i].CreatedAt.Equal(items[j].CreatedAt) {
				// Stable on input order for time ties.
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
	return fmt.Sprintf("s=%s|st=%s|cb=%s|bw=%t|sort=%s:%s|p=%d|l=%d",
		strings.ToLower(f.Search), f.Status, f.CreatedBy, f.BirthdayWeek,
		f.SortBy, f.SortOrder, f.Page.Page, f.Page.Limit)
}
