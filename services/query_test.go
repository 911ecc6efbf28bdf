package services

import (
	"net/url"
	"testing"

	"github.com/olaysco/ecomm-api/repository"
	"github.com/stretchr/testify/assert"
)

func query(raw string) ProductQuery {
	v, _ := url.ParseQuery(raw)
	return BuildProductQuery(v)
}

func TestBuildProductQuery_Defaults(t *testing.T) {
	for _, raw := range []string{"", "limit=foo&page=bar", "limit=0&page=0", "limit=-5&page=-2", "limit=&page="} {
		q := query(raw)
		assert.Equal(t, DefaultLimit, q.Limit, raw)
		assert.Equal(t, DefaultPage, q.Page, raw)
		assert.Equal(t, []SortField{{Field: "createdAt", Direction: SortDesc}}, q.Sort, raw)
		assert.Empty(t, q.Filters, raw)
	}
}

func TestBuildProductQuery_LeadingIntegers(t *testing.T) {
	q := query("limit=12abc&page=%203.9")
	assert.Equal(t, 12, q.Limit)
	assert.Equal(t, 3, q.Page)
}

func TestBuildProductQuery_ClampsLimit(t *testing.T) {
	assert.Equal(t, MaxLimit, query("limit=500").Limit)
	assert.Equal(t, MaxLimit, query("limit=99999999999999999999999").Limit)
	assert.Equal(t, MaxPage, query("page=99999999999").Page)
}

func TestBuildProductQuery_CurrentPageWins(t *testing.T) {
	assert.Equal(t, 4, query("page=2&currentPage=4").Page)
	assert.Equal(t, 2, query("page=2&currentPage=abc").Page)
}

func TestBuildProductQuery_FilterAllowList(t *testing.T) {
	q := query("foo=bar&brand=Acme&isDeleted=true&name=")
	assert.Equal(t, map[string]string{"brand": "Acme"}, q.Filters)

	q = query("minPrice=cheap&maxPrice=20&slug=widget-1")
	assert.Equal(t, map[string]string{"minPrice": "cheap", "maxPrice": "20", "slug": "widget-1"}, q.Filters)
}

func TestBuildProductQuery_Sort(t *testing.T) {
	assert.Equal(t, []SortField{{Field: "price", Direction: SortAsc}}, query("sort_by=price&order_by=ASC").Sort)
	assert.Equal(t, []SortField{{Field: "price", Direction: SortAsc}}, query("sort_by=price&order_by=1").Sort)
	assert.Equal(t, []SortField{{Field: "name", Direction: SortDesc}}, query("sort_by=name&order_by=sideways").Sort)
	assert.Equal(t, []SortField{{Field: "createdAt", Direction: SortDesc}}, query("sort_by=$where").Sort)
}

func TestProductQuery_Skip(t *testing.T) {
	assert.Equal(t, 0, query("").Skip())
	assert.Equal(t, 20, query("limit=10&page=3").Skip())
	assert.Equal(t, 75, query("limit=25&page=4").Skip())
}

func TestProductQuery_FindOptions(t *testing.T) {
	opts := query("limit=5&page=2&sort_by=price&order_by=asc").FindOptions()
	assert.Equal(t, repository.FindOptions{
		Sort:  []repository.SortOption{{Field: "price", Descending: false}},
		Limit: 5,
		Skip:  5,
	}, opts)
}
