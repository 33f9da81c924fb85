// Package firestore adapts store.Client onto Cloud Firestore, the remote
// document store of record. Only the narrow operation set the core depends on
// is exposed; richer Firestore features stay out of reach on purpose.
package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/zzuhann/stellar/internal/store"
)

type Store struct {
	client *fs.Client
}

func New(ctx context.Context, projectID string) (*Store, error) {
	client, err := fs.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return store.Document{}, mapError(err)
	}
	return store.Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *Store) Add(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, data)
	return mapError(err)
}

func (s *Store) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	updates := make([]fs.Update, 0, len(patch))
	for field, value := range patch {
		if value == nil {
			updates = append(updates, fs.Update{Path: field, Value: fs.Delete})
			continue
		}
		updates = append(updates, fs.Update{Path: field, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	return mapError(err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	// Firestore deletes are idempotent; surface NotFound ourselves so the
	// contract matches the memory store.
	ref := s.client.Collection(collection).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		return mapError(err)
	}
	_, err := ref.Delete(ctx)
	return mapError(err)
}

func (s *Store) Query(ctx context.Context, collection string, filters []store.Filter, opts store.QueryOptions) ([]store.Document, error) {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		field := f.Field
		if field == store.DocumentID {
			// __name__ comparisons only accept document references; raw
			// id strings are rejected by the backend.
			q = q.WherePath(fs.FieldPath{fs.DocumentID}, f.Op, s.docRefs(collection, f.Value))
			continue
		}
		q = q.Where(field, f.Op, f.Value)
	}
	for _, ob := range opts.OrderBy {
		dir := fs.Asc
		if ob.Desc {
			dir = fs.Desc
		}
		q = q.OrderBy(ob.Field, dir)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var docs []store.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapError(err)
		}
		docs = append(docs, store.Document{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

// docRefs converts id filter values into document references within the
// collection. Non-id values pass through untouched.
func (s *Store) docRefs(collection string, value any) any {
	col := s.client.Collection(collection)
	switch v := value.(type) {
	case string:
		return col.Doc(v)
	case []string:
		refs := make([]*fs.DocumentRef, len(v))
		for i, id := range v {
			refs[i] = col.Doc(id)
		}
		return refs
	default:
		return value
	}
}

func (s *Store) BatchWrite(ctx context.Context, ops []store.WriteOp) error {
	batch := s.client.Batch()
	for _, op := range ops {
		ref := s.client.Collection(op.Collection).Doc(op.ID)
		switch op.Kind {
		case store.WriteSet:
			batch.Set(ref, op.Data)
		case store.WriteUpdate:
			updates := make([]fs.Update, 0, len(op.Data))
			for field, value := range op.Data {
				if value == nil {
					updates = append(updates, fs.Update{Path: field, Value: fs.Delete})
					continue
				}
				updates = append(updates, fs.Update{Path: field, Value: value})
			}
			batch.Update(ref, updates)
		case store.WriteDelete:
			batch.Delete(ref)
		}
	}
	_, err := batch.Commit(ctx)
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.AlreadyExists:
		return store.ErrExists
	}
	return err
}

var _ store.Client = (*Store)(nil)
