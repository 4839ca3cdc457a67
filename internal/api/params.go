package api

import (
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/pagination"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// dateLayout is the calendar-date form used by list filters.
const dateLayout = "2006-01-02"

// ListParams are the list-screen controls: paging, search, status, sort and
// range filters. Anything else goes through Filters untouched.
type ListParams struct {
	pagination.Params

	Search    string    `json:"search,omitempty" validate:"max=200"`
	Status    string    `json:"status,omitempty" validate:"max=40"`
	SortBy    string    `json:"sortBy,omitempty" validate:"max=40"`
	SortOrder string    `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
	FromDate  time.Time `json:"fromDate"`
	ToDate    time.Time `json:"toDate" validate:"omitempty,gtefield=FromDate"`
	MinAmount float64   `json:"minAmount" validate:"gte=0"`
	MaxAmount float64   `json:"maxAmount" validate:"omitempty,gtefield=MinAmount"`

	Filters map[string]string `json:"-"`
}

var reservedParams = map[string]bool{
	"page": true, "entries": true, "search": true, "status": true,
	"sortBy": true, "sortOrder": true, "fromDate": true, "toDate": true,
	"minAmount": true, "maxAmount": true,
}

// DefaultListParams returns page 1 with the default page size.
func DefaultListParams() ListParams {
	return ListParams{Params: pagination.DefaultParams()}
}

// ParseListParams reads list controls from a console query string.
func ParseListParams(q url.Values) (ListParams, error) {
	p := ListParams{
		Params:    pagination.FromValues(q),
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
	}

	var err error
	if p.FromDate, err = parseDate(q, "fromDate"); err != nil {
		return p, err
	}
	if p.ToDate, err = parseDate(q, "toDate"); err != nil {
		return p, err
	}
	if p.MinAmount, err = parseAmount(q, "minAmount"); err != nil {
		return p, err
	}
	if p.MaxAmount, err = parseAmount(q, "maxAmount"); err != nil {
		return p, err
	}

	for k := range q {
		if !reservedParams[k] && q.Get(k) != "" {
			if p.Filters == nil {
				p.Filters = make(map[string]string)
			}
			p.Filters[k] = q.Get(k)
		}
	}
	return p, p.Validate()
}

func parseDate(q url.Values, key string) (time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(key + " must be a date (YYYY-MM-DD)")
	}
	return t, nil
}

func parseAmount(q url.Values, key string) (float64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperrors.InvalidInput(key + " must be a number")
	}
	return f, nil
}

// Validate checks ranges (min <= max, from <= to) before any network call.
func (p ListParams) Validate() error {
	return validator.Validate(p)
}

// Query encodes the params the way the backend list endpoints read them.
func (p ListParams) Query() url.Values {
	q := url.Values{}
	for k, v := range p.Filters {
		if !reservedParams[k] {
			q.Set(k, v)
		}
	}
	p.Params.Apply(q)

	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("search", p.Search)
	set("status", p.Status)
	set("sortBy", p.SortBy)
	set("sortOrder", p.SortOrder)
	if !p.FromDate.IsZero() {
		q.Set("fromDate", p.FromDate.Format(dateLayout))
	}
	if !p.ToDate.IsZero() {
		q.Set("toDate", p.ToDate.Format(dateLayout))
	}
	if p.MinAmount > 0 {
		q.Set("minAmount", strconv.FormatFloat(p.MinAmount, 'f', -1, 64))
	}
	if p.MaxAmount > 0 {
		q.Set("maxAmount", strconv.FormatFloat(p.MaxAmount, 'f', -1, 64))
	}
	return q
}

// Page is one page of a list plus where it sits in the full result.
type Page[T any] struct {
	Items      []T             `json:"items"`
	Pagination pagination.Meta `json:"pagination"`
}
