package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/olaysco/ecomm-api/models"
	"github.com/olaysco/ecomm-api/repository"
)

const (
	DefaultLimit     = 10
	DefaultPage      = 1
	MaxLimit         = 100
	MaxPage          = 1000000
	DefaultSortField = "createdAt"
	SortAsc          = "asc"
	SortDesc         = "desc"
)

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type SortField struct {
	Field     string
	Direction string
}

// ProductQuery is the parsed form of a listing request.
type ProductQuery struct {
	Filters map[string]string
	Sort    []SortField
	Limit   int
	Page    int
}

// BuildProductQuery parses raw query parameters. It never fails: bad numbers
// fall back to defaults and unknown keys are dropped.
func BuildProductQuery(params url.Values) ProductQuery {
	q := ProductQuery{
		Filters: map[string]string{},
		Limit:   DefaultLimit,
		Page:    DefaultPage,
	}

	if n, ok := parseLeadingInt(params.Get("limit")); ok && n > 0 {
		q.Limit = min(n, MaxLimit)
	}

	// currentPage is what the pagination links carry, so it wins over page.
	if n, ok := parseLeadingInt(params.Get("currentPage")); ok && n > 0 {
		q.Page = min(n, MaxPage)
	} else if n, ok := parseLeadingInt(params.Get("page")); ok && n > 0 {
		q.Page = min(n, MaxPage)
	}

	for _, key := range models.ProductFilters {
		if v := params.Get(key); v != "" {
			q.Filters[key] = v
		}
	}

	field := params.Get("sort_by")
	if !sortFieldPattern.MatchString(field) {
		field = DefaultSortField
	}
	q.Sort = []SortField{{Field: field, Direction: normalizeDirection(params.Get("order_by"))}}

	return q
}

// Skip is the number of records before the requested page.
func (q ProductQuery) Skip() int {
	return q.Limit * (q.Page - 1)
}

// FindOptions converts the query into repository options.
func (q ProductQuery) FindOptions() repository.FindOptions {
	sort := make([]repository.SortOption, 0, len(q.Sort))
	for _, s := range q.Sort {
		sort = append(sort, repository.SortOption{Field: s.Field, Descending: s.Direction != SortAsc})
	}
	return repository.FindOptions{Sort: sort, Limit: q.Limit, Skip: q.Skip()}
}

func normalizeDirection(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "asc", "ascending", "1":
		return SortAsc
	default:
		return SortDesc
	}
}

// parseLeadingInt reads an optionally signed base-10 integer prefix, skipping
// leading whitespace; "12abc" is 12 and "abc" fails. Values past MaxPage
// saturate.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		if n <= MaxPage {
			n = n*10 + int(s[digits]-'0')
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
