package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/store"
)

// StatusChangeHook runs after an item's effective approval changes. The events
// hook feeds the cross-reference maintainer; hooks must not fail the
// triggering operation.
type StatusChangeHook func(ctx context.Context, doc store.Document, approved bool)

// Decision is a single review outcome.
type Decision struct {
	Target Status
	Reason string
}

// BatchItem is one entry of a batch review. Updates carries optional extra
// field patches applied in the same atomic write.
type BatchItem struct {
	ID      string
	Target  Status
	Reason  string
	Updates map[string]any
}

// Engine drives the shared moderation state machine over the document store.
// Workflows are not transactional across steps: the status write commits
// first, then cross-references and cache entries converge. A crash in between
// leaves the store correct and the projections transiently stale.
type Engine struct {
	store store.Client
	cache *cache.Cache
	hooks map[Kind]StatusChangeHook
	log   zerolog.Logger
	now   func() time.Time
}

func NewEngine(st store.Client, c *cache.Cache, log zerolog.Logger) *Engine {
	return &Engine{
		store: st,
		cache: c,
		hooks: make(map[Kind]StatusChangeHook),
		log:   log,
		now:   time.Now,
	}
}

// OnStatusChange registers the hook invoked when an item of kind moves to or
// from approved.
func (e *Engine) OnStatusChange(kind Kind, hook StatusChangeHook) {
	e.hooks[kind] = hook
}

// Review applies an administrator decision to a pending item.
func (e *Engine) Review(ctx context.Context, actor Actor, kind Kind, id string, d Decision) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("review requires administrator: %w", ErrPermissionDenied)
	}
	if !d.Target.Valid() {
		return ValidationError{Field: "status", Message: "unknown status"}
	}

	doc, err := e.store.Get(ctx, kind.Collection(), id)
	if err != nil {
		return mapStoreError(err)
	}
	from := Status(doc.String("status"))
	if !CanReview(kind, from, d.Target) {
		return fmt.Errorf("%s %s: %s -> %s: %w", kind, id, from, d.Target, ErrInvalidTransition)
	}

	patch := map[string]any{
		"status":    string(d.Target),
		"updatedAt": e.now(),
	}
	if d.Target == StatusRejected {
		patch["rejectedReason"] = d.Reason
	} else {
		patch["rejectedReason"] = nil
	}
	if err := e.store.Update(ctx, kind.Collection(), id, patch); err != nil {
		return mapStoreError(err)
	}

	e.log.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Str("from", string(from)).
		Str("to", string(d.Target)).
		Str("reviewer", actor.UserID).
		Msg("review applied")

	doc.Data["status"] = string(d.Target)
	e.afterStatusChange(ctx, kind, doc, from, d.Target)
	return nil
}

// Resubmit moves a rejected item back to pending, clearing the rejection
// reason. Only the original creator may resubmit.
func (e *Engine) Resubmit(ctx context.Context, actor Actor, kind Kind, id string) error {
	doc, err := e.store.Get(ctx, kind.Collection(), id)
	if err != nil {
		return mapStoreError(err)
	}
	if doc.String("createdBy") != actor.UserID {
		return fmt.Errorf("resubmit is limited to the original creator: %w", ErrPermissionDenied)
	}
	from := Status(doc.String("status"))
	if !CanResubmit(from) {
		return fmt.Errorf("%s %s: resubmit from %s: %w", kind, id, from, ErrInvalidTransition)
	}

	patch := map[string]any{
		"status":         string(StatusPending),
		"rejectedReason": nil,
		"updatedAt":      e.now(),
	}
	if err := e.store.Update(ctx, kind.Collection(), id, patch); err != nil {
		return mapStoreError(err)
	}

	doc.Data["status"] = string(StatusPending)
	e.afterStatusChange(ctx, kind, doc, from, StatusPending)
	return nil
}

// BatchReview applies a list of decisions in one atomic store write. It does
// not re-read the targets first; callers are expected to have validated the
// ids, and the batch either fully applies or fully fails.
func (e *Engine) BatchReview(ctx context.Context, actor Actor, kind Kind, items []BatchItem) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("batch review requires administrator: %w", ErrPermissionDenied)
	}
	if len(items) == 0 {
		return nil
	}

	ops := make([]store.WriteOp, 0, len(items))
	for _, item := range items {
		if !CanReview(kind, StatusPending, item.Target) {
			return fmt.Errorf("%s %s: batch target %s: %w", kind, item.ID, item.Target, ErrInvalidTransition)
		}
		patch := map[string]any{
			"status":    string(item.Target),
			"updatedAt": e.now(),
		}
		if item.Target == StatusRejected {
			patch["rejectedReason"] = item.Reason
		} else {
			patch["rejectedReason"] = nil
		}
		for k, v := range item.Updates {
			patch[k] = v
		}
		ops = append(ops, store.WriteOp{
			Kind:       store.WriteUpdate,
			Collection: kind.Collection(),
			ID:         item.ID,
			Data:       patch,
		})
	}

	if err := e.store.BatchWrite(ctx, ops); err != nil {
		return mapStoreError(err)
	}

	e.log.Info().
		Str("kind", string(kind)).
		Int("count", len(items)).
		Str("reviewer", actor.UserID).
		Msg("batch review applied")

	for _, item := range items {
		e.cache.Delete(cache.EntityKey(string(kind), item.ID))
	}
	e.cache.ClearPattern(cache.QueryPattern(string(kind)))
	e.cache.ClearPattern(cache.ApprovedPattern(string(kind)))

	hook := e.hooks[kind]
	if hook == nil {
		return nil
	}
	// Batch review skipped the pre-read, so fetch each item now to feed the
	// hook. Failures here are convergence problems, not review failures.
	for _, item := range items {
		doc, err := e.store.Get(ctx, kind.Collection(), item.ID)
		if err != nil {
			e.log.Error().Err(err).
				Str("kind", string(kind)).
				Str("id", item.ID).
				Msg("post-batch hook read failed")
			continue
		}
		hook(ctx, doc, item.Target == StatusApproved)
	}
	return nil
}

// afterStatusChange invalidates cached projections and, when the item's
// approval flipped, runs the registered hook.
func (e *Engine) afterStatusChange(ctx context.Context, kind Kind, doc store.Document, from, to Status) {
	e.cache.Delete(cache.EntityKey(string(kind), doc.ID))
	e.cache.ClearPattern(cache.QueryPattern(string(kind)))
	e.cache.ClearPattern(cache.ApprovedPattern(string(kind)))

	wasApproved := from == StatusApproved
	nowApproved := to == StatusApproved
	if wasApproved == nowApproved {
		return
	}
	if hook := e.hooks[kind]; hook != nil {
		hook(ctx, doc, nowApproved)
	}
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
