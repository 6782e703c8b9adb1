package types

import (
	"net/http"
	"net/url"

	"github.com/gorilla/schema"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortTitle  = "title"
)

type SearchRequest struct {
	Selection Selection `json:"selection" schema:"-"`
	Sort      string    `json:"sort" schema:"sort,default:newest"`
	Page      int       `json:"page" schema:"page"`
	PageSize  int       `json:"pageSize" schema:"size,default:24"`
}

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func (s *SearchRequest) Sanitize() {
	s.Page = clamp(s.Page, 0, 1000)
	s.PageSize = clamp(s.PageSize, 1, 200)
	switch s.Sort {
	case SortNewest, SortOldest, SortTitle:
	default:
		s.Sort = SortNewest
	}
}

func (s *SearchRequest) Offset() int {
	return s.Page * s.PageSize
}

func GetSearchRequest(catalog Catalog, r *http.Request) (*SearchRequest, error) {
	return SearchRequestFromQuery(catalog, r.URL.Query())
}

func SearchRequestFromQuery(catalog Catalog, query url.Values) (*SearchRequest, error) {
	sr := &SearchRequest{
		Sort:     SortNewest,
		PageSize: 24,
	}
	err := decoder.Decode(sr, query)
	sr.Selection = ParseSelection(catalog, query)
	sr.Sanitize()
	return sr, err
}
