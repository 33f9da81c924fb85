// Package performers holds the performer model, its document-store
// repository, and the service implementing CRUD plus the filtered list
// pipeline.
package performers

import (
	"time"

	"github.com/zzuhann/stellar/internal/domain/moderation"
	"github.com/zzuhann/stellar/internal/store"
)

// Collection is the document-store collection backing performers.
const Collection = "performers"

// Birthday is a recurring month/day; the year is deliberately not stored.
type Birthday struct {
	Month int `json:"month" validate:"min=1,max=12"`
	Day   int `json:"day" validate:"min=1,max=31"`
}

type Performer struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	LocalizedName  string            `json:"localizedName,omitempty"`
	RealName       string            `json:"realName,omitempty"`
	Groups         []string          `json:"groups,omitempty"`
	Birthday       *Birthday         `json:"birthday,omitempty"`
	ImageRef       string            `json:"imageRef,omitempty"`
	Status         moderation.Status `json:"status"`
	RejectedReason string            `json:"rejectedReason,omitempty"`
	// ActiveEventIDs is the denormalized reverse index maintained by the
	// cross-reference maintainer: ids of approved, not-yet-ended events that
	// reference this performer.
	ActiveEventIDs []string  `json:"activeEventIds"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// CreateParams are the fields a submitter provides. Status, timestamps and
// ids are assigned by the service.
type CreateParams struct {
	Name          string    `json:"name" validate:"required,max=200"`
	LocalizedName string    `json:"localizedName,omitempty" validate:"max=200"`
	RealName      string    `json:"realName,omitempty" validate:"max=200"`
	Groups        []string  `json:"groups,omitempty" validate:"max=10,dive,required"`
	Birthday      *Birthday `json:"birthday,omitempty"`
	ImageRef      string    `json:"imageRef,omitempty"`
}

// UpdateParams lists the only mutable fields. Nil pointers mean "leave as is";
// unknown fields never reach this struct, so they are rejected at the API
// boundary rather than silently written through.
type UpdateParams struct {
	Name          *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	LocalizedName *string   `json:"localizedName,omitempty" validate:"omitempty,max=200"`
	RealName      *string   `json:"realName,omitempty" validate:"omitempty,max=200"`
	Groups        []string  `json:"groups,omitempty" validate:"omitempty,max=10,dive,required"`
	Birthday      *Birthday `json:"birthday,omitempty"`
	ImageRef      *string   `json:"imageRef,omitempty"`
}

func (p UpdateParams) empty() bool {
	return p.Name == nil && p.LocalizedName == nil && p.RealName == nil &&
		p.Groups == nil && p.Birthday == nil && p.ImageRef == nil
}

func toDocument(p *Performer) map[string]any {
	doc := map[string]any{
		"name":           p.Name,
		"status":         string(p.Status),
		"activeEventIds": p.ActiveEventIDs,
		"createdBy":      p.CreatedBy,
		"createdAt":      p.CreatedAt,
		"updatedAt":      p.UpdatedAt,
	}
	if p.LocalizedName != "" {
		doc["localizedName"] = p.LocalizedName
	}
	if p.RealName != "" {
		doc["realName"] = p.RealName
	}
	if len(p.Groups) > 0 {
		doc["groups"] = p.Groups
	}
	if p.Birthday != nil {
		doc["birthday"] = map[string]any{"month": p.Birthday.Month, "day": p.Birthday.Day}
	}
	if p.ImageRef != "" {
		doc["imageRef"] = p.ImageRef
	}
	if p.RejectedReason != "" {
		doc["rejectedReason"] = p.RejectedReason
	}
	return doc
}

// FromDocument converts a raw store document into a Performer.
func FromDocument(doc store.Document) Performer {
	p := Performer{
		ID:             doc.ID,
		Name:           doc.String("name"),
		LocalizedName:  doc.String("localizedName"),
		RealName:       doc.String("realName"),
		Groups:         doc.Strings("groups"),
		ImageRef:       doc.String("imageRef"),
		Status:         moderation.Status(doc.String("status")),
		RejectedReason: doc.String("rejectedReason"),
		ActiveEventIDs: doc.Strings("activeEventIds"),
		CreatedBy:      doc.String("createdBy"),
		CreatedAt:      doc.Time("createdAt"),
		UpdatedAt:      doc.Time("updatedAt"),
	}
	if b := doc.Map("birthday"); b != nil {
		bd := Birthday{}
		bd.Month = store.Document{Data: b}.Int("month")
		bd.Day = store.Document{Data: b}.Int("day")
		if bd.Month != 0 && bd.Day != 0 {
			p.Birthday = &bd
		}
	}
	return p
}
