package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/types"
)

type SearchResponse struct {
	Items     []types.Photo      `json:"items"`
	TotalHits int                `json:"totalHits"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
	Selection types.Selection    `json:"selection"`
	Facets    types.FilterCounts `json:"facets"`
}

type FacetsResponse struct {
	Selection types.Selection    `json:"selection"`
	Facets    types.FilterCounts `json:"facets"`
}

func (ws *WebServer) searchRequest(w http.ResponseWriter, r *http.Request) (*types.SearchRequest, error) {
	sr, err := types.GetSearchRequest(ws.Engine.Catalog, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, err
	}
	return sr, nil
}

func (ws *WebServer) SearchPhotos(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	sr, err := ws.searchRequest(w, r)
	if err != nil {
		return err
	}
	noSearches.Inc()
	result, counts, err := ws.Engine.Search(r.Context(), sr.Selection, query.PageFromRequest(sr))
	if err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	if ws.Tracking != nil {
		ws.Tracking.TrackSearch(sessionId, sr.Selection, result.TotalHits, sr.Page, r)
	}

	defaultHeaders(w, r, true, "120")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(SearchResponse{
		Items:     result.Items,
		TotalHits: result.TotalHits,
		Page:      sr.Page,
		PageSize:  sr.PageSize,
		Selection: sr.Selection,
		Facets:    counts,
	})
}

func (ws *WebServer) Facets(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	sr, err := ws.searchRequest(w, r)
	if err != nil {
		return err
	}
	facetSearches.Inc()
	counts, err := ws.Engine.Counts(r.Context(), sr.Selection)
	if err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	defaultHeaders(w, r, true, "120")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(FacetsResponse{
		Selection: sr.Selection,
		Facets:    counts,
	})
}

func (ws *WebServer) FacetCatalog(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	publicHeaders(w, r, true, "3600")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(ws.Engine.Catalog)
}

func (ws *WebServer) GetDistribution(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	dist, computedAt, err := ws.Distribution.Get(r.Context(), ws.Engine.Distribution)
	if err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	dist.ComputedAt = computedAt
	publicHeaders(w, r, true, "60")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(dist)
}

func (ws *WebServer) GetPhoto(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid photo id", http.StatusBadRequest)
		return err
	}
	photo, err := ws.Photos.Get(r.Context(), id)
	if err == nil && photo.Hidden && ws.Engine.Base.IsVisibleOnly() {
		err = types.ErrNotFound
	}
	if errors.Is(err, types.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil
	}
	if err != nil {
		storeErrors.Inc()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return err
	}
	publicHeaders(w, r, true, "600")
	w.WriteHeader(http.StatusOK)
	return enc.Encode(photo)
}

func (ws *WebServer) ClientHandler() *http.ServeMux {
	mux := http.NewServeMux()
	trk := ws.sessionTracker()
	mux.HandleFunc("/photos", common.JsonHandler(trk, ws.SearchPhotos))
	mux.HandleFunc("/facets", common.JsonHandler(trk, ws.Facets))
	mux.HandleFunc("GET /facets/catalog", common.JsonHandler(trk, ws.FacetCatalog))
	mux.HandleFunc("GET /distribution", common.JsonHandler(trk, ws.GetDistribution))
	mux.HandleFunc("GET /photo/{id}", common.JsonHandler(trk, ws.GetPhoto))
	return mux
}
