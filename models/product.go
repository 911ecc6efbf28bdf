package models

import "time"

// ProductFilters is the allow-list of query keys that may filter a listing.
var ProductFilters = []string{"name", "minPrice", "maxPrice", "slug", "brand"}

type Product struct {
	ID          string    `json:"_id" bson:"_id"`
	Name        string    `json:"name" bson:"name" validate:"required"`
	Slug        string    `json:"slug" bson:"slug" validate:"required"`
	Brand       string    `json:"brand" bson:"brand" validate:"required"`
	Price       float64   `json:"price" bson:"price" validate:"required,gt=0"`
	Weight      *float64  `json:"weight,omitempty" bson:"weight,omitempty"`
	Height      *float64  `json:"height,omitempty" bson:"height,omitempty"`
	Description string    `json:"description" bson:"description" validate:"required"`
	IsDeleted   bool      `json:"-" bson:"isDeleted"`
	Version     int64     `json:"-" bson:"version"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsFilterKey reports whether key is in ProductFilters.
func IsFilterKey(key string) bool {
	for _, k := range ProductFilters {
		if k == key {
			return true
		}
	}
	return false
}
