// Package store defines the narrow interface the rest of the system uses to
// talk to the remote document store, plus the gateway that wraps every call
// with a timeout and bounded retry.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrExists indicates an Add targeted an id that is already taken.
	ErrExists = errors.New("document already exists")

	// ErrUnavailable indicates the store could not be reached within the
	// gateway's timeout and retry budget.
	ErrUnavailable = errors.New("store unavailable")
)

// DocumentID is the pseudo-field used to filter on document ids, for
// membership queries against ids rather than stored fields.
const DocumentID = "__name__"

// Document is a raw store record: an id plus loosely typed field data.
// Domain repositories convert Documents to and from typed models.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is a single query predicate. Op is one of "==", "in", ">=", "<=".
// The store's native query engine only handles these cheap indexed forms;
// anything richer is applied in memory by the query pipeline.
type Filter struct {
	Field string
	Op    string
	Value any
}

// OrderBy names a field to sort on at the store.
type OrderBy struct {
	Field string
	Desc  bool
}

// QueryOptions carries optional ordering and limit for a Query call.
type QueryOptions struct {
	OrderBy []OrderBy
	Limit   int
}

// WriteKind discriminates batch write operations.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
)

// WriteOp is one operation inside an atomic BatchWrite.
type WriteOp struct {
	Kind       WriteKind
	Collection string
	ID         string
	Data       map[string]any
}

// Client is the document-store contract. Implementations: the Firestore
// adapter for production and the in-memory store for tests and local dev.
// BatchWrite is atomic: either every op applies or none do.
type Client interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Add(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, patch map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters []Filter, opts QueryOptions) ([]Document, error)
	BatchWrite(ctx context.Context, ops []WriteOp) error
}
