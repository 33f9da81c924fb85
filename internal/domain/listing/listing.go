// Package listing holds the offset pagination and sort-order plumbing shared
// by the query pipelines.
package listing

// DefaultLimit and MaxLimit bound page sizes; requests above MaxLimit are
// clamped, not rejected.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// Page is a requested page. Zero values mean "use defaults".
type Page struct {
	Page  int
	Limit int
}

// Meta is the pagination block returned with every list response.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Normalize clamps page and limit into their legal ranges.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Slice computes the half-open index range [lo, hi) of page p over a filtered
// set of size total, plus the response metadata. Pages past the end yield an
// empty range; total and totalPages always describe the pre-pagination set.
func Slice(total int, p Page) (lo, hi int, meta Meta) {
	p = p.Normalize()
	meta = Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
	lo = (p.Page - 1) * p.Limit
	if lo > total {
		lo = total
	}
	hi = lo + p.Limit
	if hi > total {
		hi = total
	}
	return lo, hi, meta
}
