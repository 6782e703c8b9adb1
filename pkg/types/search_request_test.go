package types

import (
	"net/url"
	"testing"
)

func TestSearchRequestFromQuery(t *testing.T) {
	query := url.Values{
		"sport":    {"volleyball", "soccer"},
		"lighting": {"natural"},
		"sort":     {"oldest"},
		"page":     {"2"},
		"size":     {"10"},
		"unknown":  {"x"},
	}
	sr, err := SearchRequestFromQuery(DefaultCatalog, query)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sr.Sort != SortOldest {
		t.Errorf("Expected sort to be oldest, got %v", sr.Sort)
	}
	if sr.Page != 2 || sr.PageSize != 10 {
		t.Errorf("Expected page 2 size 10, got %d %d", sr.Page, sr.PageSize)
	}
	if sr.Offset() != 20 {
		t.Errorf("Expected offset 20, got %d", sr.Offset())
	}
	if v, _ := sr.Selection.Value(FacetSport); v != "volleyball" {
		t.Errorf("Expected sport volleyball, got %v", v)
	}
}

func TestSearchRequestDefaults(t *testing.T) {
	sr, err := SearchRequestFromQuery(DefaultCatalog, url.Values{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sr.Sort != SortNewest || sr.PageSize != 24 || sr.Page != 0 {
		t.Errorf("Expected defaults, got %+v", sr)
	}
	if !sr.Selection.IsEmpty() {
		t.Errorf("Expected empty selection")
	}
}

func TestSearchRequestSanitize(t *testing.T) {
	sr, _ := SearchRequestFromQuery(DefaultCatalog, url.Values{
		"sort": {"random"},
		"page": {"-4"},
		"size": {"5000"},
	})
	if sr.Sort != SortNewest {
		t.Errorf("Expected unknown sort to fall back to newest, got %v", sr.Sort)
	}
	if sr.Page != 0 || sr.PageSize != 200 {
		t.Errorf("Expected clamped page 0 size 200, got %d %d", sr.Page, sr.PageSize)
	}
}

func TestSearchRequestBadPage(t *testing.T) {
	_, err := SearchRequestFromQuery(DefaultCatalog, url.Values{"page": {"abc"}})
	if err == nil {
		t.Errorf("Expected conversion error for page")
	}
}
