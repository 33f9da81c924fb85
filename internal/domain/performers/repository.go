package performers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

// ListQuery is the cheap, indexable subset of list filters pushed down to the
// store. Everything else is applied in memory by the query pipeline.
type ListQuery struct {
	Status    moderation.Status
	CreatedBy string
}

type Repository interface {
	Get(ctx context.Context, id string) (*Performer, error)
	Create(ctx context.Context, p *Performer) error
	Update(ctx context.Context, id string, params UpdateParams, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q ListQuery) ([]Performer, error)
}

type storeRepository struct {
	store store.Client
}

func NewRepository(st store.Client) Repository {
	return &storeRepository{store: st}
}

func (r *storeRepository) Get(ctx context.Context, id string) (*Performer, error) {
	doc, err := r.store.Get(ctx, Collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, moderation.ErrNotFound
		}
		return nil, err
	}
	p := FromDocument(doc)
	return &p, nil
}

func (r *storeRepository) Create(ctx context.Context, p *Performer) error {
	if err := r.store.Add(ctx, Collection, p.ID, toDocument(p)); err != nil {
		if errors.Is(err, store.ErrExists) {
			return fmt.Errorf("performer %s: %w", p.ID, moderation.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *storeRepository) Update(ctx context.Context, id string, params UpdateParams, updatedAt time.Time) error {
	patch := map[string]any{"updatedAt": updatedAt}
	if params.Name != nil {
		patch["name"] = *params.Name
	}
	if params.LocalizedName != nil {
		patch["localizedName"] = emptyToNil(*params.LocalizedName)
	}
	if params.RealName != nil {
		patch["realName"] = emptyToNil(*params.RealName)
	}
	if params.Groups != nil {
		patch["groups"] = params.Groups
	}
	if params.Birthday != nil {
		patch["birthday"] = map[string]any{"month": params.Birthday.Month, "day": params.Birthday.Day}
	}
	if params.ImageRef != nil {
		patch["imageRef"] = emptyToNil(*params.ImageRef)
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

func (r *storeRepository) List(ctx context.Context, q ListQuery) ([]Performer, error) {
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
	out := make([]Performer, 0, len(docs))
	for _, doc := range docs {
		out = append(out, FromDocument(doc))
	}
	return out, nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
