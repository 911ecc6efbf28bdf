package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithQueryParam(t *testing.T) {
	cases := []struct {
		raw, want string
	}{
		{"", "currentPage=2"},
		{"limit=5", "limit=5&currentPage=2"},
		{"currentPage=1&limit=5", "currentPage=2&limit=5"},
		{"a=1&currentPage=1&b=2&currentPage=9", "a=1&currentPage=2&b=2"},
		{"name=Big%20Widget&flag", "name=Big%20Widget&flag&currentPage=2"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, withQueryParam(tc.raw, "currentPage", "2"), tc.raw)
	}
}

func TestParsePublicURL(t *testing.T) {
	assert.Nil(t, parsePublicURL(""))
	assert.Nil(t, parsePublicURL("localhost"))
	assert.Nil(t, parsePublicURL("localhost:3000"))
	assert.Nil(t, parsePublicURL("ftp://files.example.com"))

	u := parsePublicURL(" https://shop.example.com/catalog/ ")
	if assert.NotNil(t, u) {
		assert.Equal(t, "shop.example.com", u.Host)
	}
}

func TestRequestURL(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/products?limit=2", nil)
	r.Host = "10.0.0.7:3000"
	r.Header.Set("X-Forwarded-Proto", "https")

	u := requestURL(r, nil)
	assert.Equal(t, "https://10.0.0.7:3000/api/products?limit=2", u.String())

	u = requestURL(r, parsePublicURL("https://shop.example.com/catalog/"))
	assert.Equal(t, "https://shop.example.com/catalog/api/products?limit=2", u.String())
	assert.Equal(t, "https://shop.example.com/catalog/api/products?limit=2&currentPage=2", pageLink(u, 2))
}
