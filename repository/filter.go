package repository

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olaysco/ecomm-api/models"
)

// priceBounds returns the numeric price range carried by the filter.
// Non-numeric bounds are ignored.
func priceBounds(filter ProductFilter) (lo, hi *float64) {
	if v, ok := filter["minPrice"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			lo = &f
		}
	}
	if v, ok := filter["maxPrice"]; ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			hi = &f
		}
	}
	return lo, hi
}

// matches applies filter semantics in memory: case-insensitive equality on
// text keys and an inclusive price range.
func matches(p *models.Product, filter ProductFilter) bool {
	if p.IsDeleted {
		return false
	}
	for key, want := range filter {
		var got string
		switch key {
		case "name":
			got = p.Name
		case "slug":
			got = p.Slug
		case "brand":
			got = p.Brand
		default:
			continue
		}
		if !strings.EqualFold(got, want) {
			return false
		}
	}
	lo, hi := priceBounds(filter)
	if lo != nil && p.Price < *lo {
		return false
	}
	if hi != nil && p.Price > *hi {
		return false
	}
	return true
}

// sortProducts orders products by the requested keys with the id as final
// tiebreaker. Unknown fields compare equal.
func sortProducts(products []*models.Product, keys []SortOption) {
	sort.SliceStable(products, func(i, j int) bool {
		for _, k := range keys {
			c := compareField(products[i], products[j], k.Field)
			if c == 0 {
				continue
			}
			if k.Descending {
				return c > 0
			}
			return c < 0
		}
		return products[i].ID < products[j].ID
	})
}

func compareField(a, b *models.Product, field string) int {
	switch field {
	case "_id", "id":
		return strings.Compare(a.ID, b.ID)
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "slug":
		return strings.Compare(strings.ToLower(a.Slug), strings.ToLower(b.Slug))
	case "brand":
		return strings.Compare(strings.ToLower(a.Brand), strings.ToLower(b.Brand))
	case "description":
		return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
	case "price":
		return compareFloat(&a.Price, &b.Price)
	case "weight":
		return compareFloat(a.Weight, b.Weight)
	case "height":
		return compareFloat(a.Height, b.Height)
	case "createdAt":
		return compareTime(a.CreatedAt, b.CreatedAt)
	case "updatedAt":
		return compareTime(a.UpdatedAt, b.UpdatedAt)
	default:
		return 0
	}
}

// missing values sort before present ones, as in MongoDB.
func compareFloat(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// page slices an already sorted result set.
func page(products []*models.Product, skip, limit int) []*models.Product {
	if skip >= len(products) {
		return []*models.Product{}
	}
	products = products[skip:]
	if limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	return products
}
