package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultEntries is the page size used when the caller does not ask for one.
	DefaultEntries = 10
	// MaxEntries caps the page size a caller may request.
	MaxEntries = 100
)

// Params holds pagination parameters as the backend names them.
type Params struct {
	Page    int `json:"page"`
	Entries int `json:"entries"`
}

// DefaultParams returns sensible pagination defaults.
func DefaultParams() Params {
	return Params{
		Page:    1,
		Entries: DefaultEntries,
	}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	return FromValues(r.URL.Query())
}

// FromValues extracts pagination parameters from a query string.
func FromValues(q url.Values) Params {
	p := DefaultParams()

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if entries := q.Get("entries"); entries != "" {
		if v, err := strconv.Atoi(entries); err == nil && v > 0 && v <= MaxEntries {
			p.Entries = v
		}
	}
	return p
}

// Normalize replaces zero or out-of-range fields with the defaults.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Entries < 1 || p.Entries > MaxEntries {
		p.Entries = DefaultEntries
	}
	return p
}

// Apply writes page and entries into q.
func (p Params) Apply(q url.Values) {
	p = p.Normalize()
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("entries", strconv.Itoa(p.Entries))
}

// TotalPages returns ceil(totalEntries / entries), the highest valid page.
func TotalPages(totalEntries, entries int) int {
	if entries <= 0 || totalEntries <= 0 {
		return 0
	}
	return (totalEntries + entries - 1) / entries
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page         int  `json:"page"`
	Entries      int  `json:"entries"`
	TotalEntries int  `json:"totalEntries"`
	TotalPages   int  `json:"totalPages"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// NewMeta computes page metadata for totalEntries items split by params.
func NewMeta(params Params, totalEntries int) Meta {
	params = params.Normalize()
	totalPages := TotalPages(totalEntries, params.Entries)

	return Meta{
		Page:         params.Page,
		Entries:      params.Entries,
		TotalEntries: totalEntries,
		TotalPages:   totalPages,
		HasNext:      params.Page < totalPages,
		HasPrev:      params.Page > 1,
	}
}
