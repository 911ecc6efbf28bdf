package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type JSONResponse struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type PaginatedResponse struct {
	Status      string      `json:"status"`
	Data        interface{} `json:"data"`
	Count       int64       `json:"count"`
	CurrentPage int         `json:"currentPage"`
	Limit       int         `json:"limit"`
	Previous    *string     `json:"previous"`
	Next        *string     `json:"next"`
}

func successResponse(c *gin.Context, code int, data interface{}, message string) {
	c.JSON(code, JSONResponse{Status: statusSuccess, Data: data, Message: message})
}

func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Status: statusError, Message: message, Data: nil})
}

// paginateResponse writes a page of results with links to the neighbouring
// pages. A link is present only when that page can hold results.
func paginateResponse(c *gin.Context, publicURL *url.URL, currentPage int, count int64, limit int, data interface{}) {
	resp := PaginatedResponse{
		Status:      statusSuccess,
		Data:        data,
		Count:       count,
		CurrentPage: currentPage,
		Limit:       limit,
	}

	base := requestURL(c.Request, publicURL)
	if currentPage > 1 {
		link := pageLink(base, currentPage-1)
		resp.Previous = &link
	}
	if count > int64(currentPage)*int64(limit) {
		link := pageLink(base, currentPage+1)
		resp.Next = &link
	}

	c.JSON(http.StatusOK, resp)
}

// requestURL rebuilds the absolute URL the client used. A public base URL,
// when configured, replaces the scheme and host and prefixes the path.
func requestURL(r *http.Request, publicURL *url.URL) url.URL {
	u := *r.URL
	if publicURL != nil {
		u.Scheme = publicURL.Scheme
		u.Host = publicURL.Host
		u.Path = strings.TrimSuffix(publicURL.Path, "/") + r.URL.Path
		u.RawPath = ""
		return u
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	u.Scheme = scheme
	u.Host = r.Host
	return u
}

// parsePublicURL accepts only absolute http(s) URLs; anything else (such as
// a bare "localhost") means links follow the request.
func parsePublicURL(raw string) *url.URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	return u
}

func pageLink(base url.URL, page int) string {
	base.RawQuery = withQueryParam(base.RawQuery, "currentPage", strconv.Itoa(page))
	return base.String()
}

// withQueryParam sets key to value in rawQuery, keeping every other parameter
// in its original position. The first occurrence of key is replaced and any
// further occurrences are dropped; a missing key is appended.
func withQueryParam(rawQuery, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	if rawQuery == "" {
		return pair
	}

	parts := strings.Split(rawQuery, "&")
	out := make([]string, 0, len(parts)+1)
	replaced := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		name := part
		if i := strings.IndexByte(part, '='); i >= 0 {
			name = part[:i]
		}
		if decoded, err := url.QueryUnescape(name); err == nil && decoded == key {
			if !replaced {
				out = append(out, pair)
				replaced = true
			}
			continue
		}
		out = append(out, part)
	}
	if !replaced {
		out = append(out, pair)
	}
	return strings.Join(out, "&")
}
