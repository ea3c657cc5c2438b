package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Page size policy per listing, matching the query params clients send
const (
	postPageSize    = 12
	postPageMax     = 24
	commentPageSize = 10
	commentPageMax  = 20
	channelPageSize = 6
	channelPageMax  = 12
)

// pageEnvelope is the paginated response shape: a total row count,
// absolute next/previous page links and the page itself.
type pageEnvelope struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// pageQuery reads the 1-based page number and the per-listing size
// param, clamping size to [1, max]. Malformed values fall back to the
// defaults.
func pageQuery(c *gin.Context, sizeParam string, defaultSize, maxSize int) (page, size int) {
	page = 1
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	size = defaultSize
	if raw := c.Query(sizeParam); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			size = n
		}
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}

// envelope wraps one page of results with count and neighbour links
func envelope(r *http.Request, count int64, page, size int, results interface{}) pageEnvelope {
	out := pageEnvelope{Count: count, Results: results}
	if int64(page*size) < count {
		out.Next = pageURL(r, page+1)
	}
	if page > 1 {
		out.Previous = pageURL(r, page-1)
	}
	return out
}

// pageURL rebuilds the request URL with the page query replaced
func pageURL(r *http.Request, page int) *string {
	u := *r.URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	s := scheme + "://" + r.Host + u.String()
	return &s
}
