package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zzuhann/stellar/internal/store"
)

func TestGetMissing(t *testing.T) {
	s := New()

	_, err := s.Get(context.Background(), "performers", "nope")

	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Add(ctx, "performers", "p1", map[string]any{"name": "Yuna", "status": "pending"}))
	require.ErrorIs(t, s.Add(ctx, "performers", "p1", nil), store.ErrExists)

	doc, err := s.Get(ctx, "performers", "p1")
	require.NoError(t, err)
	require.Equal(t, "Yuna", doc.String("name"))

	require.NoError(t, s.Update(ctx, "performers", "p1", map[string]any{"status": "approved"}))
	doc, err = s.Get(ctx, "performers", "p1")
	require.NoError(t, err)
	require.Equal(t, "approved", doc.String("status"))
	require.Equal(t, "Yuna", doc.String("name"), "update patches, not replaces")

	require.NoError(t, s.Delete(ctx, "performers", "p1"))
	_, err = s.Get(ctx, "performers", "p1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateNilFieldRemoves(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Add(ctx, "performers", "p1", map[string]any{"rejectedReason": "dup"}))

	require.NoError(t, s.Update(ctx, "performers", "p1", map[string]any{"rejectedReason": nil}))

	doc, err := s.Get(ctx, "performers", "p1")
	require.NoError(t, err)
	_, present := doc.Data["rejectedReason"]
	require.False(t, present)
}

func TestQueryEqualityAndIn(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Add(ctx, "events", "e1", map[string]any{"status": "approved"}))
	require.NoError(t, s.Add(ctx, "events", "e2", map[string]any{"status": "pending"}))
	require.NoError(t, s.Add(ctx, "events", "e3", map[string]any{"status": "approved"}))

	docs, err := s.Query(ctx, "events", []store.Filter{{Field: "status", Op: "==", Value: "approved"}}, store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	docs, err = s.Query(ctx, "events", []store.Filter{
		{Field: store.DocumentID, Op: "in", Value: []string{"e2", "e3", "e9"}},
	}, store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "e2", docs[0].ID)
	require.Equal(t, "e3", docs[1].ID)
}

func TestQueryNestedFieldAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	t1 := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)
	require.NoError(t, s.Add(ctx, "events", "e1", map[string]any{"datetime": map[string]any{"start": t2}}))
	require.NoError(t, s.Add(ctx, "events", "e2", map[string]any{"datetime": map[string]any{"start": t1}}))

	docs, err := s.Query(ctx, "events", nil, store.QueryOptions{
		OrderBy: []store.OrderBy{{Field: "datetime.start"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"e2", "e1"}, []string{docs[0].ID, docs[1].ID})

	docs, err = s.Query(ctx, "events", []store.Filter{
		{Field: "datetime.start", Op: ">=", Value: t1.Add(time.Hour)},
	}, store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "e1", docs[0].ID)
}

func TestBatchWriteAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Add(ctx, "events", "e1", map[string]any{"status": "pending"}))

	err := s.BatchWrite(ctx, []store.WriteOp{
		{Kind: store.WriteUpdate, Collection: "events", ID: "e1", Data: map[string]any{"status": "approved"}},
		{Kind: store.WriteUpdate, Collection: "events", ID: "missing", Data: map[string]any{"status": "approved"}},
	})

	require.ErrorIs(t, err, store.ErrNotFound)
	doc, getErr := s.Get(ctx, "events", "e1")
	require.NoError(t, getErr)
	require.Equal(t, "pending", doc.String("status"), "failed batch must not partially apply")
}

func TestBatchWriteAppliesAll(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Add(ctx, "events", "e1", map[string]any{"status": "pending"}))

	err := s.BatchWrite(ctx, []store.WriteOp{
		{Kind: store.WriteUpdate, Collection: "events", ID: "e1", Data: map[string]any{"status": "approved"}},
		{Kind: store.WriteSet, Collection: "events", ID: "e2", Data: map[string]any{"status": "pending"}},
		{Kind: store.WriteDelete, Collection: "events", ID: "e1"},
	})

	require.NoError(t, err)
	_, getErr := s.Get(ctx, "events", "e1")
	require.ErrorIs(t, getErr, store.ErrNotFound)
	require.Equal(t, 1, s.Len("events"))
}

func TestDocumentsAreIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	data := map[string]any{"activeEventIds": []string{"e1"}}
	require.NoError(t, s.Add(ctx, "performers", "p1", data))

	doc, err := s.Get(ctx, "performers", "p1")
	require.NoError(t, err)
	ids := doc.Strings("activeEventIds")
	ids[0] = "mutated"

	again, err := s.Get(ctx, "performers", "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"e1"}, again.Strings("activeEventIds"))
}
