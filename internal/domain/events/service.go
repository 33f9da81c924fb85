package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/crossref"
	"github.com/zzuhann/stellar/internal/domain/ids"
	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/domain/performers"
)

const (
	approvedTTL = time.Hour
	pendingTTL  = 3 * time.Minute
	negativeTTL = 2 * time.Minute

	publicQueryTTL = 10 * time.Minute
	adminQueryTTL  = 2 * time.Minute
)

// PerformerSource resolves performer ids when capturing snapshots at event
// creation. Satisfied by the performers service so lookups ride its cache.
type PerformerSource interface {
	Get(ctx context.Context, id string) (*performers.Performer, error)
}

type Service struct {
	repo       Repository
	performers PerformerSource
	crossref   *crossref.Maintainer
	cache      *cache.Cache
	validate   *validator.Validate
	log        zerolog.Logger
	now        func() time.Time
}

func NewService(repo Repository, src PerformerSource, xref *crossref.Maintainer, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		repo:       repo,
		performers: src,
		crossref:   xref,
		cache:      c,
		validate:   validator.New(),
		log:        log,
		now:        time.Now,
	}
}

// Create submits a new support event in pending status. Each referenced
// performer must be approved at this moment; their name and image are copied
// into the event as a snapshot so later performer edits don't rewrite history.
func (s *Service) Create(ctx context.Context, actor moderation.Actor, params CreateParams) (*SupportEvent, error) {
	if err := s.validateCreate(params); err != nil {
		return nil, err
	}

	refs := make([]PerformerRef, 0, len(params.PerformerIDs))
	for _, performerID := range params.PerformerIDs {
		p, err := s.performers.Get(ctx, performerID)
		if err != nil {
			if errors.Is(err, moderation.ErrNotFound) {
				return nil, moderation.ValidationError{Field: "performerIds", Message: fmt.Sprintf("performer %s does not exist", performerID)}
			}
			return nil, err
		}
		if p.Status != moderation.StatusApproved {
			return nil, moderation.ValidationError{Field: "performerIds", Message: fmt.Sprintf("performer %s is not approved", performerID)}
		}
		refs = append(refs, PerformerRef{ID: p.ID, Name: p.Name, ImageRef: p.ImageRef})
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint id: %w", err)
	}
	now := s.now()
	e := &SupportEvent{
		ID:          id,
		Performers:  refs,
		Title:       strings.TrimSpace(params.Title),
		Description: params.Description,
		Location:    params.Location,
		Datetime:    params.Datetime,
		Socials:     params.Socials,
		MediaRefs:   params.MediaRefs,
		Status:      moderation.StatusPending,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	s.cache.ClearPattern(cache.QueryPattern(string(moderation.KindEvents)))
	s.log.Info().Str("id", e.ID).Str("createdBy", actor.UserID).Int("performers", len(refs)).Msg("event submitted")
	return e, nil
}

// Get reads an event through the cache.
func (s *Service) Get(ctx context.Context, id string) (*SupportEvent, error) {
	key := cache.EntityKey(string(moderation.KindEvents), id)
	if s.cache.GetNotFound(key) {
		return nil, moderation.ErrNotFound
	}
	if v, ok := s.cache.Get(key); ok {
		if e, ok := v.(*SupportEvent); ok {
			return e, nil
		}
	}

	e, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, moderation.ErrNotFound) {
			s.cache.SetNotFound(key, negativeTTL)
		}
		return nil, err
	}
	ttl := pendingTTL
	if e.Status == moderation.StatusApproved {
		ttl = approvedTTL
	}
	s.cache.Set(key, e, ttl)
	return e, nil
}

// Update applies field updates under the shared edit permission rule.
func (s *Service) Update(ctx context.Context, actor moderation.Actor, id string, params UpdateParams) (*SupportEvent, error) {
	if err := s.validateUpdate(params); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moderation.CanEdit(actor, existing.CreatedBy, existing.Status) {
		return nil, fmt.Errorf("edit event %s: %w", id, moderation.ErrPermissionDenied)
	}
	if params.empty() {
		return existing, nil
	}

	if err := s.repo.Update(ctx, id, params, s.now()); err != nil {
		return nil, err
	}
	s.invalidate(id)
	return s.repo.Get(ctx, id)
}

// Delete removes an event. Creator or admin only. If the event was approved,
// the performers' active-event lists are fixed up afterwards; that fix-up is
// best-effort and never fails the delete.
func (s *Service) Delete(ctx context.Context, actor moderation.Actor, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.UserID != existing.CreatedBy {
		return fmt.Errorf("delete event %s: %w", id, moderation.ErrPermissionDenied)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if existing.Status == moderation.StatusApproved {
		performerIDs := make([]string, 0, len(existing.Performers))
		for _, ref := range existing.Performers {
			performerIDs = append(performerIDs, ref.ID)
		}
		s.crossref.Apply(ctx, performerIDs, id, false)
	}
	s.invalidate(id)
	s.log.Info().Str("id", id).Str("deletedBy", actor.UserID).Msg("event deleted")
	return nil
}

func (s *Service) invalidate(id string) {
	kind := string(moderation.KindEvents)
	s.cache.Delete(cache.EntityKey(kind, id))
	s.cache.ClearPattern(cache.QueryPattern(kind))
	s.cache.ClearPattern(cache.ApprovedPattern(kind))
}

func (s *Service) validateCreate(params CreateParams) error {
	if err := s.validate.Struct(params); err != nil {
		return moderation.ValidationError{Field: "event", Message: err.Error()}
	}
	if err := validateLocation(params.Location); err != nil {
		return err
	}
	return validateSchedule(params.Datetime)
}

func (s *Service) validateUpdate(params UpdateParams) error {
	if err := s.validate.Struct(params); err != nil {
		return moderation.ValidationError{Field: "event", Message: err.Error()}
	}
	if params.Location != nil {
		if err := validateLocation(*params.Location); err != nil {
			return err
		}
	}
	if params.Datetime != nil {
		return validateSchedule(*params.Datetime)
	}
	return nil
}

// validateLocation re-checks the structural prerequisite the upstream
// validation layer owns: a location always carries numeric coordinates.
func validateLocation(loc Location) error {
	if loc.Coordinates == nil {
		return moderation.ValidationError{Field: "location.coordinates", Message: "coordinates are required"}
	}
	return nil
}

func validateSchedule(dt Schedule) error {
	if dt.Start.IsZero() || dt.End.IsZero() {
		return moderation.ValidationError{Field: "datetime", Message: "start and end are required"}
	}
	if dt.End.Before(dt.Start) {
		return moderation.ValidationError{Field: "datetime.end", Message: "must not be before start"}
	}
	return nil
}
