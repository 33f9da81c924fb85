package performers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/listing"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store/memory"
)

func newQueryService(t *testing.T) (*Service, Repository) {
	t.Helper()
	repo := NewRepository(memory.New())
	return NewService(repo, stubRefs{}, cache.New(), zerolog.Nop()), repo
}

func seed(t *testing.T, repo Repository, p Performer) {
	t.Helper()
	if p.Status == "" {
		p.Status = moderation.StatusApproved
	}
	if p.CreatedBy == "" {
		p.CreatedBy = creator.UserID
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	require.NoError(t, repo.Create(context.Background(), &p))
}

func TestListDefaultsToApproved(t *testing.T) {
	svc, repo := newQueryService(t)
	seed(t, repo, Performer{ID: "p1", Name: "A"})
	seed(t, repo, Performer{ID: "p2", Name: "B", Status: moderation.StatusPending})
	seed(t, repo, Performer{ID: "p3", Name: "C", Status: moderation.StatusRejected})

	result, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "p1", result.Items[0].ID)
	require.Equal(t, 1, result.Pagination.Total)
}

func TestListSearchCoversNamesAndGroups(t *testing.T) {
	svc, repo := newQueryService(t)
	seed(t, repo, Performer{ID: "p1", Name: "Karina", Groups: []string{"aespa"}})
	seed(t, repo, Performer{ID: "p2", Name: "Winter", LocalizedName: "윈터", Groups: []string{"aespa"}})
	seed(t, repo, Performer{ID: "p3", Name: "Wonyoung", Groups: []string{"IVE"}})

	result, err := svc.List(context.Background(), Filters{Search: "AESPA"})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	result, err = svc.List(context.Background(), Filters{Search: "윈터"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, "p2", result.Items[0].ID)

	result, err = svc.List(context.Background(), Filters{Search: "nobody"})
	require.NoError(t, err)
	require.Empty(t, result.Items)
	require.Equal(t, 0, result.Pagination.Total)
}

func TestListBirthdayWeek(t *testing.T) {
	svc, repo := newQueryService(t)
	svc.now = func() time.Time {
		return time.Date(2026, time.December, 29, 10, 0, 0, 0, time.UTC)
	}
	seed(t, repo, Performer{ID: "p1", Name: "A", Birthday: &Birthday{Month: 12, Day: 30}})
	seed(t, repo, Performer{ID: "p2", Name: "B", Birthday: &Birthday{Month: 1, Day: 3}}) // window wraps into January
	seed(t, repo, Performer{ID: "p3", Name: "C", Birthday: &Birthday{Month: 1, Day: 15}})
	seed(t, repo, Performer{ID: "p4", Name: "D"}) // no birthday on record

	result, err := svc.List(context.Background(), Filters{BirthdayWeek: true, SortBy: SortByName, SortOrder: listing.Asc})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	require.Equal(t, "p1", result.Items[0].ID)
	require.Equal(t, "p2", result.Items[1].ID)
}

func TestListSortByNameAsc(t *testing.T) {
	svc, repo := newQueryService(t)
	seed(t, repo, Performer{ID: "p1", Name: "Chaewon"})
	seed(t, repo, Performer{ID: "p2", Name: "Antonia"})
	seed(t, repo, Performer{ID: "p3", Name: "Bora"})

	result, err := svc.List(context.Background(), Filters{SortBy: SortByName, SortOrder: listing.Asc})
	require.NoError(t, err)
	require.Equal(t, []string{"Antonia", "Bora", "Chaewon"}, []string{
		result.Items[0].Name, result.Items[1].Name, result.Items[2].Name,
	})
}

func TestListSortByCreatedAtDesc(t *testing.T) {
	svc, repo := newQueryService(t)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seed(t, repo, Performer{ID: "p1", Name: "A", CreatedAt: base})
	seed(t, repo, Performer{ID: "p2", Name: "B", CreatedAt: base.Add(2 * time.Hour)})
	seed(t, repo, Performer{ID: "p3", Name: "C", CreatedAt: base.Add(time.Hour)})

	result, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.Equal(t, []string{"p2", "p3", "p1"}, []string{
		result.Items[0].ID, result.Items[1].ID, result.Items[2].ID,
	})
}

func TestListPagination(t *testing.T) {
	svc, repo := newQueryService(t)
	for i := 0; i < 5; i++ {
		seed(t, repo, Performer{
			ID:        fmt.Sprintf("p%d", i),
			Name:      fmt.Sprintf("Performer %d", i),
			CreatedAt: time.Date(2026, 8, 1, i, 0, 0, 0, time.UTC),
		})
	}

	page1, err := svc.List(context.Background(), Filters{Page: listing.Page{Page: 1, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page1.Items, 2)
	require.Equal(t, 5, page1.Pagination.Total)
	require.Equal(t, 3, page1.Pagination.TotalPages)

	page3, err := svc.List(context.Background(), Filters{Page: listing.Page{Page: 3, Limit: 2}})
	require.NoError(t, err)
	require.Len(t, page3.Items, 1)

	beyond, err := svc.List(context.Background(), Filters{Page: listing.Page{Page: 9, Limit: 2}})
	require.NoError(t, err)
	require.Empty(t, beyond.Items)
	require.Equal(t, 5, beyond.Pagination.Total)
}

func TestListInvalidFilters(t *testing.T) {
	svc, _ := newQueryService(t)

	_, err := svc.List(context.Background(), Filters{Status: "banana"})
	require.True(t, moderation.IsValidation(err))

	_, err = svc.List(context.Background(), Filters{SortBy: "height"})
	require.True(t, moderation.IsValidation(err))

	_, err = svc.List(context.Background(), Filters{SortOrder: "sideways"})
	require.True(t, moderation.IsValidation(err))
}

func TestListCachesResults(t *testing.T) {
	svc, repo := newQueryService(t)
	seed(t, repo, Performer{ID: "p1", Name: "A"})

	first, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, first.Items, 1)

	// A write that bypasses the service is invisible until invalidation.
	seed(t, repo, Performer{ID: "p2", Name: "B"})
	second, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
}
