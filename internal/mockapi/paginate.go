package mockapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/apartment-mgmt/resident/pkg/httputil"
)

type pageBody[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// paginate slices items for the ?page=N of r. Pages past the end are an
// error, except page 1 of an empty list.
func paginate[T any](r *http.Request, items []T, size int) (pageBody[T], error) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return pageBody[T]{}, errInvalidPage
		}
		page = n
	}

	start := (page - 1) * size
	if start >= len(items) && page != 1 {
		return pageBody[T]{}, errInvalidPage
	}
	end := min(start+size, len(items))

	out := pageBody[T]{Count: len(items), Results: make([]T, 0, end-start)}
	if start < end {
		out.Results = append(out.Results, items[start:end]...)
	}
	if end < len(items) {
		out.Next = pageURL(r, page+1)
	}
	if page > 1 {
		out.Previous = pageURL(r, page-1)
	}
	return out, nil
}

func pageURL(r *http.Request, page int) *string {
	u := url.URL{Scheme: "http", Host: r.Host, Path: r.URL.Path}
	if r.TLS != nil {
		u.Scheme = "https"
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

func writePage[T any](w http.ResponseWriter, r *http.Request, items []T, size int) {
	body, err := paginate(r, items, size)
	if err != nil {
		httputil.Detail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	httputil.JSON(w, http.StatusOK, body)
}
