// Package events holds the support-event model, its repository, the service,
// and the filter/sort/geo-window query pipelines.
package events

import (
	"time"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

// Collection is the document-store collection backing support events.
const Collection = "supportEvents"

// PerformerRef is the denormalized performer snapshot embedded in an event,
// captured at creation time from the then-approved performer record so event
// reads never join against the performers collection.
type PerformerRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageRef string `json:"imageRef,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Name        string       `json:"name" validate:"required"`
	Address     string       `json:"address" validate:"required"`
	Coordinates *Coordinates `json:"coordinates" validate:"required"`
}

type Schedule struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type SupportEvent struct {
	ID             string            `json:"id"`
	Performers     []PerformerRef    `json:"performers"`
	Title          string            `json:"title"`
	Description    string            `json:"description,omitempty"`
	Location       Location          `json:"location"`
	Datetime       Schedule          `json:"datetime"`
	Socials        map[string]string `json:"socials"`
	MediaRefs      []string          `json:"mediaRefs,omitempty"`
	Status         moderation.Status `json:"status"`
	RejectedReason string            `json:"rejectedReason,omitempty"`
	CreatedBy      string            `json:"createdBy"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// CreateParams are the submitter-provided fields. Performer references are
// given as ids; the service resolves them into snapshots and rejects ids that
// are not approved performers.
type CreateParams struct {
	PerformerIDs []string          `json:"performerIds" validate:"min=1,max=10,dive,required"`
	Title        string            `json:"title" validate:"required,max=300"`
	Description  string            `json:"description,omitempty" validate:"max=5000"`
	Location     Location          `json:"location"`
	Datetime     Schedule          `json:"datetime"`
	Socials      map[string]string `json:"socials" validate:"min=1"`
	MediaRefs    []string          `json:"mediaRefs,omitempty"`
}

// UpdateParams lists the only mutable fields; performer snapshots are fixed at
// creation and never editable.
type UpdateParams struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,max=300"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location    *Location         `json:"location,omitempty"`
	Datetime    *Schedule         `json:"datetime,omitempty"`
	Socials     map[string]string `json:"socials,omitempty"`
	MediaRefs   []string          `json:"mediaRefs,omitempty"`
}

func (p UpdateParams) empty() bool {
	return p.Title == nil && p.Description == nil && p.Location == nil &&
		p.Datetime == nil && p.Socials == nil && p.MediaRefs == nil
}

func toDocument(e *SupportEvent) map[string]any {
	performers := make([]map[string]any, 0, len(e.Performers))
	for _, ref := range e.Performers {
		m := map[string]any{"id": ref.ID, "name": ref.Name}
		if ref.ImageRef != "" {
			m["imageRef"] = ref.ImageRef
		}
		performers = append(performers, m)
	}

	doc := map[string]any{
		"performers": performers,
		"title":      e.Title,
		"location":   locationToDoc(e.Location),
		"datetime":   map[string]any{"start": e.Datetime.Start, "end": e.Datetime.End},
		"status":     string(e.Status),
		"createdBy":  e.CreatedBy,
		"createdAt":  e.CreatedAt,
		"updatedAt":  e.UpdatedAt,
	}
	if e.Description != "" {
		doc["description"] = e.Description
	}
	if len(e.Socials) > 0 {
		socials := make(map[string]any, len(e.Socials))
		for k, v := range e.Socials {
			socials[k] = v
		}
		doc["socials"] = socials
	}
	if len(e.MediaRefs) > 0 {
		doc["mediaRefs"] = e.MediaRefs
	}
	if e.RejectedReason != "" {
		doc["rejectedReason"] = e.RejectedReason
	}
	return doc
}

func locationToDoc(loc Location) map[string]any {
	m := map[string]any{"name": loc.Name, "address": loc.Address}
	if loc.Coordinates != nil {
		m["coordinates"] = map[string]any{"lat": loc.Coordinates.Lat, "lng": loc.Coordinates.Lng}
	}
	return m
}

// FromDocument converts a raw store document into a SupportEvent.
func FromDocument(doc store.Document) SupportEvent {
	e := SupportEvent{
		ID:             doc.ID,
		Title:          doc.String("title"),
		Description:    doc.String("description"),
		MediaRefs:      doc.Strings("mediaRefs"),
		Status:         moderation.Status(doc.String("status")),
		RejectedReason: doc.String("rejectedReason"),
		CreatedBy:      doc.String("createdBy"),
		CreatedAt:      doc.Time("createdAt"),
		UpdatedAt:      doc.Time("updatedAt"),
	}

	for _, ref := range doc.Maps("performers") {
		pr := PerformerRef{}
		pr.ID, _ = ref["id"].(string)
		pr.Name, _ = ref["name"].(string)
		pr.ImageRef, _ = ref["imageRef"].(string)
		if pr.ID != "" {
			e.Performers = append(e.Performers, pr)
		}
	}

	if loc := doc.Map("location"); loc != nil {
		e.Location.Name, _ = loc["name"].(string)
		e.Location.Address, _ = loc["address"].(string)
		if coords, ok := loc["coordinates"].(map[string]any); ok {
			coordDoc := store.Document{Data: coords}
			lat, latOK := coordDoc.Float("lat")
			lng, lngOK := coordDoc.Float("lng")
			if latOK && lngOK {
				e.Location.Coordinates = &Coordinates{Lat: lat, Lng: lng}
			}
		}
	}

	if dt := doc.Map("datetime"); dt != nil {
		e.Datetime.Start, _ = dt["start"].(time.Time)
		e.Datetime.End, _ = dt["end"].(time.Time)
	}

	if socials := doc.Map("socials"); socials != nil {
		e.Socials = make(map[string]string, len(socials))
		for k, v := range socials {
			if s, ok := v.(string); ok {
				e.Socials[k] = s
			}
		}
	}
	return e
}

// Ended reports whether the event is over at t.
func (e *SupportEvent) Ended(t time.Time) bool {
	return e.Datetime.End.Before(t)
}

// Started reports whether the event has begun by t.
func (e *SupportEvent) Started(t time.Time) bool {
	return !e.Datetime.Start.After(t)
}
