package pagination

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultEntries, p.Entries)
}

func TestFromRequest_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	p := FromRequest(req)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultEntries, p.Entries)
}

func TestFromRequest_CustomValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/products?page=3&entries=50", nil)
	p := FromRequest(req)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.Entries)
}

func TestFromRequest_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"negative page", "page=-1"},
		{"zero page", "page=0"},
		{"non-numeric page", "page=abc"},
		{"entries above cap", "entries=500"},
		{"zero entries", "entries=0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/orders?"+tt.query, nil)
			assert.Equal(t, DefaultParams(), FromRequest(req))
		})
	}
}

func TestApply(t *testing.T) {
	q := url.Values{"search": {"ring"}}
	Params{Page: 2, Entries: 25}.Apply(q)

	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "25", q.Get("entries"))
	assert.Equal(t, "ring", q.Get("search"))
}

func TestApply_NormalizesZeroValue(t *testing.T) {
	q := url.Values{}
	Params{}.Apply(q)

	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "10", q.Get("entries"))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 5, TotalPages(41, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 2, Entries: 10}, 25)

	assert.Equal(t, 2, m.Page)
	assert.Equal(t, 10, m.Entries)
	assert.Equal(t, 25, m.TotalEntries)
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasNext)
	assert.True(t, m.HasPrev)
}

func TestNewMeta_LastPage(t *testing.T) {
	m := NewMeta(Params{Page: 3, Entries: 10}, 25)
	assert.False(t, m.HasNext)
	assert.True(t, m.HasPrev)
}

func TestNewMeta_Empty(t *testing.T) {
	m := NewMeta(DefaultParams(), 0)
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNext)
	assert.False(t, m.HasPrev)
}
