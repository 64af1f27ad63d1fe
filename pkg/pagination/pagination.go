package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 12
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds page/limit pagination inputs from controllers or services.
// Pages are 1-indexed.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination block attached to every list response.
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Normalize enforces the 1-indexed page floor and the default/maximum limits.
func Normalize(p Params) Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset converts the normalized params into a row offset.
func (p Params) Offset() int {
	n := Normalize(p)
	return (n.Page - 1) * n.Limit
}

// MetaFor computes the response metadata for a total row count. Pages is
// ceil(total/limit), so an out-of-range page still reports consistent totals.
func MetaFor(p Params, total int64) Meta {
	n := Normalize(p)
	pages := int((total + int64(n.Limit) - 1) / int64(n.Limit))
	return Meta{
		Page:  n.Page,
		Limit: n.Limit,
		Total: total,
		Pages: pages,
	}
}
