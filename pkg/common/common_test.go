package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matst80/slask-gallery/pkg/common/jsoncompat"
)

type sessionCounter struct {
	calls atomic.Int32
}

func (s *sessionCounter) TrackSession(sessionId string, r *http.Request) {
	s.calls.Add(1)
}

func TestHandleSessionCookieIssuesUuid(t *testing.T) {
	trk := &sessionCounter{}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
	id := HandleSessionCookie(trk, w, r)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Expected uuid session id, got %q", id)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id {
		t.Errorf("Expected sid cookie with %s, got %v", id, cookies)
	}
	if trk.calls.Load() != 1 {
		t.Errorf("Expected new session to be tracked once, got %d", trk.calls.Load())
	}
}

func TestHandleSessionCookieKeepsExisting(t *testing.T) {
	trk := &sessionCounter{}
	existing := uuid.New().String()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: existing})
	if id := HandleSessionCookie(trk, w, r); id != existing {
		t.Errorf("Expected %s, got %s", existing, id)
	}
	if len(w.Result().Cookies()) != 0 || trk.calls.Load() != 0 {
		t.Errorf("Expected no new cookie or tracking for an existing session")
	}

	r = httptest.NewRequest(http.MethodGet, "/api/photos", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "12345"})
	if id := HandleSessionCookie(nil, httptest.NewRecorder(), r); id == "12345" {
		t.Errorf("Expected legacy session id to be replaced")
	}
}

func TestJsonHandlerOptions(t *testing.T) {
	called := false
	h := JsonHandler(nil, func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
		called = true
		return nil
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodOptions, "/api/photos", nil)
	r.Header.Set("Origin", "https://gallery.example.com")
	h(w, r)
	if called {
		t.Errorf("Expected preflight to skip the handler")
	}
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://gallery.example.com" {
		t.Errorf("Expected origin to be echoed, got %q", got)
	}
}

func TestJsonHandlerEncodes(t *testing.T) {
	h := JsonHandler(nil, func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error {
		return enc.Encode(map[string]string{"session": sessionId})
	})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/api/photos", nil))
	if w.Body.Len() == 0 {
		t.Errorf("Expected a json body")
	}
}

func TestQueueHandlerFlushesOnClose(t *testing.T) {
	var processed atomic.Int32
	q := NewQueueHandler(func(items []int) {
		if len(items) > 3 {
			t.Errorf("Expected chunks of at most 3, got %d", len(items))
		}
		processed.Add(int32(len(items)))
	}, 3, time.Hour)
	q.Add(1, 2, 3, 4, 5, 6, 7)
	q.Close()
	if processed.Load() != 7 {
		t.Errorf("Expected 7 processed items, got %d", processed.Load())
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got %d", q.Len())
	}
	q.Close()
}

func TestLoadTimeoutConfig(t *testing.T) {
	t.Setenv("WRITE_TIMEOUT", "42")
	t.Setenv("IDLE_TIMEOUT", "nope")
	cfg := LoadTimeoutConfig(DefaultTimeouts)
	if cfg.Write != 42*time.Second {
		t.Errorf("Expected 42s write timeout, got %v", cfg.Write)
	}
	if cfg.Idle != DefaultTimeouts.Idle {
		t.Errorf("Expected default idle timeout, got %v", cfg.Idle)
	}
}

func TestRunServersWithShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hookRan := false
	srv := NewServer("127.0.0.1:0", http.NotFoundHandler(), DefaultTimeouts)
	done := make(chan error, 1)
	go func() {
		done <- RunServersWithShutdown(ctx, "test", DefaultTimeouts, []*http.Server{srv}, func(ctx context.Context) error {
			hookRan = true
			return nil
		})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Expected servers to stop")
	}
	if !hookRan {
		t.Errorf("Expected shutdown hook to run")
	}
}
