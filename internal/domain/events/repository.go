package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

// ListQuery is the indexable subset pushed down to the store; the rest of the
// query pipeline filters in memory because the store cannot combine free-text
// search with array-membership predicates.
type ListQuery struct {
	Status    moderation.Status
	CreatedBy string
}

type Repository interface {
	Get(ctx context.Context, id string) (*SupportEvent, error)
	GetMany(ctx context.Context, ids []string) ([]SupportEvent, error)
	Create(ctx context.Context, e *SupportEvent) error
	Update(ctx context.Context, id string, params UpdateParams, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]SupportEvent, error)
	ReferencingPerformer(ctx context.Context, performerID string) (int, error)
}

type storeRepository struct {
	store store.Client
}

func NewRepository(st store.Client) Repository {
	return &storeRepository{store: st}
}

func (r *storeRepository) Get(ctx context.Context, id string) (*SupportEvent, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, moderation.ErrNotFound
		}
		return nil, err
	}
	e := FromDocument(doc)
	return &e, nil
}

// GetMany fetches events by id using the store's bounded membership operator.
// Missing ids are simply absent from the result.
func (r *storeRepository) GetMany(ctx context.Context, ids []string) ([]SupportEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := r.store.Query(ctx, Collection, []store.Filter{
		{Field: store.DocumentID, Op: "in", Value: ids},
	}, store.QueryOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]SupportEvent, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromDocument(doc))
	}
	return out, nil
}

func (r *storeRepository) Create(ctx context.Context, e *SupportEvent) error {
	if err := r.store.Add(ctx, Collection, e.ID, toDocument(e)); err != nil {
		if errors.Is(err, store.ErrExists) {
			return fmt.Errorf("event %s: %w", e.ID, moderation.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *storeRepository) Update(ctx context.Context, id string, params UpdateParams, updatedAt time.Time) error {
	patch := map[string]any{"updatedAt": updatedAt}
	if params.Title != nil {
		patch["title"] = *params.Title
	}
	if params.Description != nil {
		if *params.Description == "" {
			patch["description"] = nil
		} else {
			patch["description"] = *params.Description
		}
	}
	if params.Location != nil {
		patch["location"] = locationToDoc(*params.Location)
	}
	if params.Datetime != nil {
		patch["datetime"] = map[string]any{"start": params.Datetime.Start, "end": params.Datetime.End}
	}
	if params.Socials != nil {
		socials := make(map[string]any, len(params.Socials))
		for k, v := range params.Socials {
			socials[k] = v
		}
		patch["socials"] = socials
	}
	if params.MediaRefs != nil {
		patch["mediaRefs"] = params.MediaRefs
	}
	if err := r.store.Update(ctx, Collection, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return moderation.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *storeRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, Collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return moderation.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *storeRepository) List(ctx context.Context, q ListQuery) ([]SupportEvent, error) {
	var filters []store.Filter
	if q.Status != "" {
		filters = append(filters, store.Filter{Field: "status", Op: "==", Value: string(q.Status)})
	}
	if q.CreatedBy != "" {
		filters = append(filters, store.Filter{Field: "createdBy", Op: "==", Value: q.CreatedBy})
	}
	docs, err := r.store.Query(ctx, Collection, filters, store.QueryOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]SupportEvent, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromDocument(doc))
	}
	return out, nil
}

// ReferencingPerformer counts events whose performer list contains the id.
// The membership test runs in memory; the store cannot index into the
// embedded snapshots.
func (r *storeRepository) ReferencingPerformer(ctx context.Context, performerID string) (int, error) {
	docs, err := r.store.Query(ctx, Collection, nil, store.QueryOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	for _, doc := range docs {
		for _, ref := range doc.Maps("performers") {
			if id, _ := ref["id"].(string); id == performerID {
				count++
				break
			}
		}
	}
	return count, nil
}
