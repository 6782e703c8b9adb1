package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/cache"
	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
	"github.com/matst80/slask-gallery/pkg/index"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/query"
	"github.com/matst80/slask-gallery/pkg/query/querytest"
	"github.com/matst80/slask-gallery/pkg/types"
)

var secret = []byte("test-secret")

type recordingPublisher struct {
	changes []messaging.PhotoChange
}

func (p *recordingPublisher) PublishPhotoChange(change messaging.PhotoChange) error {
	p.changes = append(p.changes, change)
	return nil
}

type recordingTracking struct {
	sessions int
	searches []int
}

func (t *recordingTracking) TrackSession(sessionId string, r *http.Request) {
	t.sessions++
}

func (t *recordingTracking) TrackSearch(sessionId string, sel types.Selection, hits int, page int, r *http.Request) {
	t.searches = append(t.searches, hits)
}

func newTestServer(t *testing.T) (*WebServer, *recordingPublisher) {
	t.Helper()
	idx := index.NewIndex(types.DefaultCatalog)
	if err := idx.Upsert(context.Background(), querytest.VolleyballScenario()...); err != nil {
		t.Fatalf("failed to seed index: %v", err)
	}
	ws := NewWebServer(idx, types.DefaultCatalog, cache.NewTTLCache[types.Distribution]("distribution", time.Minute, nil))
	pub := &recordingPublisher{}
	ws.Events = pub
	ws.JwtSecret = secret
	ws.ApiKey = "let-me-in"
	return ws, pub
}

func get(t *testing.T, h http.Handler, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil && w.Code == http.StatusOK {
		if err := jsoncompat.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("failed to decode %s: %v", w.Body.String(), err)
		}
	}
	return w
}

type searchBody struct {
	Items     []types.Photo                `json:"items"`
	TotalHits int                          `json:"totalHits"`
	Page      int                          `json:"page"`
	PageSize  int                          `json:"pageSize"`
	Selection map[string]any               `json:"selection"`
	Facets    map[string][]types.ValueCount `json:"facets"`
}

func count(values []types.ValueCount, value string) int {
	for _, vc := range values {
		if vc.Value == value {
			return vc.Count
		}
	}
	return -1
}

func TestSearchPhotos(t *testing.T) {
	ws, _ := newTestServer(t)
	trk := &recordingTracking{}
	ws.Tracking = trk
	h := ws.Handle()

	body := searchBody{}
	w := get(t, h, "/api/photos?sport=volleyball&lighting=natural&lighting=backlit&size=10", &body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body.TotalHits != 35 || len(body.Items) != 10 || body.PageSize != 10 {
		t.Errorf("Expected 35 hits in a page of 10, got %d (%d items)", body.TotalHits, len(body.Items))
	}
	if got := count(body.Facets["lighting"], "dramatic"); got != 5 {
		t.Errorf("Expected dramatic to be 5, got %d", got)
	}
	if got := count(body.Facets["sport"], "basketball"); got != 4 {
		t.Errorf("Expected basketball to be 4, got %d", got)
	}
	if body.Selection["sport"] != "volleyball" {
		t.Errorf("Expected selection to echo sport, got %v", body.Selection)
	}
	if trk.sessions != 1 || len(trk.searches) != 1 || trk.searches[0] != 35 {
		t.Errorf("Expected one session and one tracked search, got %d %v", trk.sessions, trk.searches)
	}
	if w.Result().Cookies()[0].Name != "sid" {
		t.Errorf("Expected sid cookie")
	}
}

func TestSearchUnknownValuesAreIgnored(t *testing.T) {
	ws, _ := newTestServer(t)
	body := searchBody{}
	w := get(t, ws.Handle(), "/api/photos?sport=curling&lighting=neon", &body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body.TotalHits != 52 {
		t.Errorf("Expected all 52 photos, got %d", body.TotalHits)
	}
	if len(body.Selection) != 0 {
		t.Errorf("Expected empty selection, got %v", body.Selection)
	}
}

func TestSearchBadPage(t *testing.T) {
	ws, _ := newTestServer(t)
	w := get(t, ws.Handle(), "/api/photos?page=abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestFacetsAndCatalog(t *testing.T) {
	ws, _ := newTestServer(t)
	h := ws.Handle()

	body := FacetsResponseBody{}
	if w := get(t, h, "/api/facets?sport=basketball", &body); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := count(body.Facets["lighting"], "artificial"); got != 8 {
		t.Errorf("Expected artificial to be 8, got %d", got)
	}
	if got := count(body.Facets["sport"], "volleyball"); got != 40 {
		t.Errorf("Expected volleyball to be 40, got %d", got)
	}

	catalog := []map[string]any{}
	if w := get(t, h, "/api/facets/catalog", &catalog); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(catalog) != len(types.DefaultCatalog) || catalog[0]["key"] != "sport" {
		t.Errorf("Expected catalog starting with sport, got %v", catalog)
	}
}

type FacetsResponseBody struct {
	Facets map[string][]types.ValueCount `json:"facets"`
}

func TestDistributionIsCached(t *testing.T) {
	ws, _ := newTestServer(t)
	h := ws.Handle()
	first := types.Distribution{}
	get(t, h, "/api/distribution", &first)
	if first.Total != 52 || count(first.Sports, "volleyball") != 40 {
		t.Errorf("Expected 52 photos with 40 volleyball, got %+v", first)
	}
	if first.ComputedAt.IsZero() {
		t.Errorf("Expected computedAt to be set")
	}

	_ = ws.Photos.Delete(context.Background(), querytest.VolleyballScenario()[0].Id)
	cached := types.Distribution{}
	get(t, h, "/api/distribution", &cached)
	if cached.Total != 52 {
		t.Errorf("Expected cached total 52, got %d", cached.Total)
	}

	ws.HandlePhotoChange(messaging.PhotoChange{})
	fresh := types.Distribution{}
	get(t, h, "/api/distribution", &fresh)
	if fresh.Total != 51 {
		t.Errorf("Expected recomputed total 51, got %d", fresh.Total)
	}
}

func TestGetPhoto(t *testing.T) {
	ws, _ := newTestServer(t)
	h := ws.Handle()
	want := querytest.VolleyballScenario()[3]
	got := types.Photo{}
	if w := get(t, h, "/api/photo/"+want.Id.String(), &got); w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got.Title != want.Title {
		t.Errorf("Expected %s, got %s", want.Title, got.Title)
	}
	if w := get(t, h, "/api/photo/"+uuid.NewString(), nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if w := get(t, h, "/api/photo/nope", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestHiddenPhotosOutsideVisibleBase(t *testing.T) {
	ws, _ := newTestServer(t)
	ws.Engine.Base = query.Query{}.VisibleOnly()
	hidden := querytest.VolleyballScenario()[0]
	hidden.Hidden = true
	if err := ws.Photos.Upsert(context.Background(), hidden); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	h := ws.Handle()
	body := searchBody{}
	get(t, h, "/api/photos?sport=volleyball", &body)
	if body.TotalHits != 39 {
		t.Errorf("Expected 39 visible volleyball photos, got %d", body.TotalHits)
	}
	if got := count(body.Facets["lighting"], "natural"); got != 24 {
		t.Errorf("Expected natural to be 24, got %d", got)
	}
	if w := get(t, h, "/api/photo/"+hidden.Id.String(), nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a hidden photo, got %d", w.Code)
	}
}

func adminRequest(method, target, body, auth string) *http.Request {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth != "" {
		r.Header.Set("Authorization", "Bearer "+auth)
	}
	return r
}

func TestAdminRequiresAuth(t *testing.T) {
	ws, _ := newTestServer(t)
	h := ws.Handle()
	expired, _ := CreateToken(secret, "seed", -time.Minute)
	forged, _ := CreateToken([]byte("other"), "seed", time.Minute)
	for _, auth := range []string{"", "wrong", expired, forged} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/photos", "[]", auth))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for %q, got %d", auth, w.Code)
		}
	}
}

func TestAdminUpsertAndDelete(t *testing.T) {
	ws, pub := newTestServer(t)
	h := ws.Handle()
	token, err := CreateToken(secret, "seed", time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest(http.MethodPut, "/admin/photos", `[{"title":"Ace","sport":"Tennis","lighting":"flash"}]`, token))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := UpsertResponse{}
	if err := jsoncompat.Unmarshal(w.Body.Bytes(), &res); err != nil || len(res.Ids) != 1 {
		t.Fatalf("Expected one id, got %v (%v)", res.Ids, err)
	}
	body := searchBody{}
	get(t, h, "/api/photos?sport=tennis", &body)
	if body.TotalHits != 1 {
		t.Errorf("Expected the new tennis photo, got %d", body.TotalHits)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/photo/"+res.Ids[0].String(), "", "let-me-in"))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	h.ServeHTTP(w, adminRequest(http.MethodDelete, "/admin/photo/"+res.Ids[0].String(), "", "let-me-in"))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}

	if len(pub.changes) != 2 || pub.changes[0].Upserted[0] != res.Ids[0] || pub.changes[1].Deleted[0] != res.Ids[0] {
		t.Errorf("Expected upsert and delete changes, got %+v", pub.changes)
	}
}

func TestAdminBadBody(t *testing.T) {
	ws, pub := newTestServer(t)
	w := httptest.NewRecorder()
	ws.Handle().ServeHTTP(w, adminRequest(http.MethodPut, "/admin/photos", `{"title":`, "let-me-in"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if len(pub.changes) != 0 {
		t.Errorf("Expected no change events, got %d", len(pub.changes))
	}
}

func TestDebugHandler(t *testing.T) {
	h := DebugHandler(false)
	if w := get(t, h, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health, got %d", w.Code)
	}
	if w := get(t, h, "/metrics", nil); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "slaskgallery_searches_total") {
		t.Errorf("Expected metrics to be exposed, got %d", w.Code)
	}
	if w := get(t, h, "/debug/pprof/", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected pprof to be disabled, got %d", w.Code)
	}
}
