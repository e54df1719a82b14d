package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
)

// Params holds offset pagination inputs from controllers or services.
// Page is 1-indexed.
type Params struct {
	Page  int
	Limit int
}

// Normalize enforces the configured default and maximum limits and clamps the
// page to 1.
func (p Params) Normalize() Params {
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

// Offset returns the row offset for the normalized page window.
func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Window describes a returned page relative to the full candidate set. Total
// is always computed over the filtered-but-unpaginated set so that
// HasMore == (Page*Limit < Total) holds for every page.
type Window struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

// NewWindow builds the page window for the given params and total count.
func NewWindow(p Params, total int64) Window {
	n := p.Normalize()
	return Window{
		Page:    n.Page,
		Limit:   n.Limit,
		Total:   total,
		HasMore: int64(n.Page)*int64(n.Limit) < total,
	}
}
