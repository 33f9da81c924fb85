package events

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zzuhann/stellar/internal/cache"
	"github.com/zzuhann/stellar/internal/domain/moderation"
)

// Refine narrows the map result set after the base "approved and not ended"
// filter.
type Refine string

const (
	RefineNone     Refine = ""
	RefineActive   Refine = "active"   // started and not ended
	RefineUpcoming Refine = "upcoming" // not yet started
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is a lat/lng window; containment is edge-inclusive.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

func (b Bounds) Contains(p LatLng) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// BoundsFromCorners builds a window from two opposite corners in any order.
func BoundsFromCorners(a, b LatLng) Bounds {
	return Bounds{
		MinLat: math.Min(a.Lat, b.Lat),
		MaxLat: math.Max(a.Lat, b.Lat),
		MinLng: math.Min(a.Lng, b.Lng),
		MaxLng: math.Max(a.Lng, b.Lng),
	}
}

// WindowFromCenter derives the visible window from a map center and zoom
// level. Latitude span halves with every zoom step; longitude span widens by
// the Mercator correction for the center latitude.
func WindowFromCenter(center LatLng, zoom int) Bounds {
	latSpan := 360 / math.Exp2(float64(zoom+1))
	lngSpan := latSpan / math.Cos(center.Lat*math.Pi/180)
	return Bounds{
		MinLat: center.Lat - latSpan/2,
		MaxLat: center.Lat + latSpan/2,
		MinLng: center.Lng - lngSpan/2,
		MaxLng: center.Lng + lngSpan/2,
	}
}

// MapQuery selects the viewport: either explicit bounds or center+zoom.
type MapQuery struct {
	Bounds *Bounds
	Center *LatLng
	Zoom   *int
	Refine Refine
}

// MapItem is the reduced projection returned for map rendering. Never the
// full entity; the viewport can cover hundreds of events.
type MapItem struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	ImageRef string    `json:"imageRef,omitempty"`
	Location Location  `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type MapResult struct {
	Items []MapItem `json:"items"`
	Total int       `json:"total"`
}

// MapData returns approved, not-yet-ended events inside the requested
// geo-window. Events without numeric coordinates are skipped and logged, not
// errored; bad data should not blank the whole map.
func (s *Service) MapData(ctx context.Context, q MapQuery) (MapResult, error) {
	window, err := q.window()
	if err != nil {
		return MapResult{}, err
	}
	switch q.Refine {
	case RefineNone, RefineActive, RefineUpcoming:
	default:
		return MapResult{}, moderation.ValidationError{Field: "status", Message: "must be active or upcoming"}
	}

	key := cache.ApprovedPattern(string(moderation.KindEvents)) + ":map:" + q.cacheKey(window)
	if v, ok := s.cache.Get(key); ok {
		if cached, ok := v.(MapResult); ok {
			return cached, nil
		}
	}

	all, err := s.repo.List(ctx, ListQuery{Status: moderation.StatusApproved})
	if err != nil {
		return MapResult{}, err
	}

	now := s.now()
	items := make([]MapItem, 0, len(all))
	for i := range all {
		e := &all[i]
		if e.Ended(now) {
			continue
		}
		switch q.Refine {
		case RefineActive:
			if !e.Started(now) {
				continue
			}
		case RefineUpcoming:
			if e.Started(now) {
				continue
			}
		}
		if e.Location.Coordinates == nil {
			s.log.Debug().Str("id", e.ID).Msg("event skipped from map: no coordinates")
			continue
		}
		point := LatLng{Lat: e.Location.Coordinates.Lat, Lng: e.Location.Coordinates.Lng}
		if !window.Contains(point) {
			continue
		}
		items = append(items, MapItem{
			ID:       e.ID,
			Title:    e.Title,
			ImageRef: firstMediaRef(e),
			Location: e.Location,
			Start:    e.Datetime.Start,
			End:      e.Datetime.End,
		})
	}

	result := MapResult{Items: items, Total: len(items)}
	s.cache.Set(key, result, publicQueryTTL)
	return result, nil
}

func (q MapQuery) window() (Bounds, error) {
	if q.Bounds != nil {
		return *q.Bounds, nil
	}
	if q.Center != nil && q.Zoom != nil {
		return WindowFromCenter(*q.Center, *q.Zoom), nil
	}
	return Bounds{}, moderation.ValidationError{Field: "bounds", Message: "bounds or center+zoom required"}
}

func (q MapQuery) cacheKey(w Bounds) string {
	return fmt.Sprintf("%s|%.6f,%.6f,%.6f,%.6f",
		strings.ToLower(string(q.Refine)), w.MinLat, w.MaxLat, w.MinLng, w.MaxLng)
}

func firstMediaRef(e *SupportEvent) string {
	if len(e.MediaRefs) > 0 {
		return e.MediaRefs[0]
	}
	return ""
}
