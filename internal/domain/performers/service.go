package performers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/ids"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

const (
	approvedTTL = time.Hour
	pendingTTL  = 3 * time.Minute
	negativeTTL = 2 * time.Minute

	publicQueryTTL = 10 * time.Minute
	adminQueryTTL  = 2 * time.Minute
)

// EventReferences reports how many support events reference a performer.
// Implemented by the events repository; performer deletion is refused while
// references exist.
type EventReferences interface {
	ReferencingPerformer(ctx context.Context, performerID string) (int, error)
}

type Service struct {
	repo     Repository
	refs     EventReferences
	cache    *cache.Cache
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, refs EventReferences, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		refs:     refs,
		cache:    c,
		validate: validator.New(),
		log:      log,
		now:      time.Now,
	}
}

// Create submits a new performer in pending status.
func (s *Service) Create(ctx context.Context, actor moderation.Actor, params CreateParams) (*Performer, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, moderation.ValidationError{Field: "performer", Message: err.Error()}
	}
	if params.Birthday != nil {
		if err := s.validate.Struct(params.Birthday); err != nil {
			return nil, moderation.ValidationError{Field: "birthday", Message: "month/day out of range"}
		}
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint id: %w", err)
	}
	now := s.now()
	p := &Performer{
		ID:             id,
		Name:           strings.TrimSpace(params.Name),
		LocalizedName:  strings.TrimSpace(params.LocalizedName),
		RealName:       strings.TrimSpace(params.RealName),
		Groups:         params.Groups,
		Birthday:       params.Birthday,
		ImageRef:       params.ImageRef,
		Status:         moderation.StatusPending,
		ActiveEventIDs: []string{},
		CreatedBy:      actor.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.cache.ClearPattern(cache.QueryPattern(string(moderation.KindPerformers)))
	s.log.Info().Str("id", p.ID).Str("createdBy", actor.UserID).Msg("performer submitted")
	return p, nil
}

// Get reads a performer through the cache. Approved records stay cached for a
// long time; records still under moderation churn, so they get a short TTL.
func (s *Service) Get(ctx context.Context, id string) (*Performer, error) {
	key := cache.EntityKey(string(moderation.KindPerformers), id)
	if s.cache.GetNotFound(key) {
		return nil, moderation.ErrNotFound
	}
	if v, ok := s.cache.Get(key); ok {
		if p, ok := v.(*Performer); ok {
			return p, nil
		}
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, moderation.ErrNotFound) {
			s.cache.SetNotFound(key, negativeTTL)
		}
		return nil, err
	}
	s.cache.Set(key, p, ttlForStatus(p.Status))
	return p, nil
}

// Update applies field updates. Admins edit anything; creators edit their own
// records only while still pending or rejected.
func (s *Service) Update(ctx context.Context, actor moderation.Actor, id string, params UpdateParams) (*Performer, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, moderation.ValidationError{Field: "performer", Message: err.Error()}
	}
	if params.Birthday != nil {
		if err := s.validate.Struct(params.Birthday); err != nil {
			return nil, moderation.ValidationError{Field: "birthday", Message: "month/day out of range"}
		}
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moderation.CanEdit(actor, existing.CreatedBy, existing.Status) {
		return nil, fmt.Errorf("edit performer %s: %w", id, moderation.ErrPermissionDenied)
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

// Delete removes a performer. Refused while any support event still
// references the performer, whatever its status.
func (s *Service) Delete(ctx context.Context, actor moderation.Actor, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.UserID != existing.CreatedBy {
		return fmt.Errorf("delete performer %s: %w", id, moderation.ErrPermissionDenied)
	}

	refs, err := s.refs.ReferencingPerformer(ctx, id)
	if err != nil {
		return fmt.Errorf("count event references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("performer %s is referenced by %d events: %w", id, refs, moderation.ErrConflict)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(id)
	s.log.Info().Str("id", id).Str("deletedBy", actor.UserID).Msg("performer deleted")
	return nil
}

func (s *Service) invalidate(id string) {
	kind := string(moderation.KindPerformers)
	s.cache.Delete(cache.EntityKey(kind, id))
	s.cache.ClearPattern(cache.QueryPattern(kind))
	s.cache.ClearPattern(cache.ApprovedPattern(kind))
}

func ttlForStatus(status moderation.Status) time.Duration {
	if status == moderation.StatusApproved {
		return approvedTTL
	}
	return pendingTTL
}
