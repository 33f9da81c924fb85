// Package crossref keeps each performer's activeEventIds list consistent with
// support-event approvals. The list is a denormalized reverse index: it may go
// transiently stale when a write here fails, and it is always re-derivable
// from a full event scan, so staleness is self-healing rather than permanent.
package crossref

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/metrics"
	"github.com/zzuhann/stellar/internal/store"
)

const (
	performersCollection = "performers"
	eventsCollection     = "supportEvents"
)

type Maintainer struct {
	store store.Client
	log   zerolog.Logger
	now   func() time.Time
}

func NewMaintainer(st store.Client, log zerolog.Logger) *Maintainer {
	return &Maintainer{store: st, log: log, now: time.Now}
}

// Apply updates each performer's activeEventIds for the event's new effective
// state: approved adds the id, anything else removes it. Both directions are
// idempotent. Failures are logged per performer and never propagated; the
// triggering status write has already committed and must not be rolled back.
func (m *Maintainer) Apply(ctx context.Context, performerIDs []string, eventID string, approved bool) {
	for _, performerID := range performerIDs {
		if err := m.applyOne(ctx, performerID, eventID, approved); err != nil {
			metrics.CrossRefFailures.Inc()
			m.log.Error().Err(err).
				Str("performerId", performerID).
				Str("eventId", eventID).
				Bool("approved", approved).
				Msg("cross-reference update failed, will self-correct on rebuild")
		}
	}
}

func (m *Maintainer) applyOne(ctx context.Context, performerID, eventID string, approved bool) error {
	doc, err := m.store.Get(ctx, performersCollection, performerID)
	if err != nil {
		return err
	}
	current := doc.Strings("activeEventIds")
	next, changed := adjust(current, eventID, approved)
	if !changed {
		return nil
	}
	return m.store.Update(ctx, performersCollection, performerID, map[string]any{
		"activeEventIds": next,
		"updatedAt":      m.now(),
	})
}

// adjust returns the id list with eventID added or removed.
func adjust(current []string, eventID string, add bool) ([]string, bool) {
	idx := -1
	for i, id := range current {
		if id == eventID {
			idx = i
			break
		}
	}
	if add {
		if idx >= 0 {
			return current, false
		}
		return append(append([]string(nil), current...), eventID), true
	}
	if idx < 0 {
		return current, false
	}
	next := append([]string(nil), current[:idx]...)
	return append(next, current[idx+1:]...), true
}

// Rebuild re-derives every performer's activeEventIds from scratch by scanning
// approved, not-yet-ended events. It returns the number of performers whose
// lists were corrected. This is the reconciliation path behind the reconcile
// command.
func (m *Maintainer) Rebuild(ctx context.Context) (int, error) {
	events, err := m.store.Query(ctx, eventsCollection, []store.Filter{
		{Field: "status", Op: "==", Value: string(moderation.StatusApproved)},
	}, store.QueryOptions{})
	if err != nil {
		return 0, err
	}

	now := m.now()
	desired := make(map[string][]string)
	for _, ev := range events {
		end, _ := ev.Map("datetime")["end"].(time.Time)
		if end.Before(now) {
			continue
		}
		for _, ref := range ev.Maps("performers") {
			id, _ := ref["id"].(string)
			if id != "" {
				desired[id] = append(desired[id], ev.ID)
			}
		}
	}
	for id := range desired {
		sort.Strings(desired[id])
	}

	performers, err := m.store.Query(ctx, performersCollection, nil, store.QueryOptions{})
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range performers {
		want := desired[p.ID]
		have := append([]string(nil), p.Strings("activeEventIds")...)
		sort.Strings(have)
		if equalIDs(want, have) {
			continue
		}
		if want == nil {
			want = []string{}
		}
		if err := m.store.Update(ctx, performersCollection, p.ID, map[string]any{
			"activeEventIds": want,
			"updatedAt":      now,
		}); err != nil {
			metrics.CrossRefFailures.Inc()
			m.log.Error().Err(err).Str("performerId", p.ID).Msg("rebuild write failed")
			continue
		}
		updated++
	}
	return updated, nil
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Hook adapts the maintainer to the moderation engine's status-change hook:
// it pulls the referenced performer ids off the event document and applies the
// new effective state.
func Hook(m *Maintainer) moderation.StatusChangeHook {
	return func(ctx context.Context, doc store.Document, approved bool) {
		var performerIDs []string
		for _, ref := range doc.Maps("performers") {
			if id, ok := ref["id"].(string); ok && id != "" {
				performerIDs = append(performerIDs, id)
			}
		}
		m.Apply(ctx, performerIDs, doc.ID, approved)
	}
}
