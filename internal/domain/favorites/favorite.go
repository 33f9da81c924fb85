// Package favorites implements a user's saved support events: cached
// membership checks, chunked batch lookups, and the joined favorites list.
package favorites

import (
	"time"

	"github.com/zzuhann/stellar/internal/store"
)

// Collection is the document-store collection backing favorites.
const Collection = "favorites"

// ChunkSize is the store's maximum argument count for membership queries;
// larger id sets are split, queried independently, and unioned.
const ChunkSize = 10

type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toDocument(f *Favorite) map[string]any {
	return map[string]any{
		"userId":    f.UserID,
		"eventId":   f.EventID,
		"createdAt": f.CreatedAt,
	}
}

func fromDocument(doc store.Document) Favorite {
	return Favorite{
		ID:        doc.ID,
		UserID:    doc.String("userId"),
		EventID:   doc.String("eventId"),
		CreatedAt: doc.Time("createdAt"),
	}
}

// chunk splits ids into groups of at most ChunkSize.
func chunk(ids []string) [][]string {
	var out [][]string
	for len(ids) > ChunkSize {
		out = append(out, ids[:ChunkSize])
		ids = ids[ChunkSize:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
