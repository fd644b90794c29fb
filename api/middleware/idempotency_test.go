package middleware

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRouteTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"donation", http.MethodPost, "/api/v1/campaigns/{campaignId}/donations", criticalIdempotencyTTL, true},
		{"withdrawal", http.MethodPost, "/api/v1/campaigns/{campaignId}/withdrawals", criticalIdempotencyTTL, true},
		{"deposit", http.MethodPost, "/api/v1/treasury/deposits", criticalIdempotencyTTL, true},
		{"campaign create", http.MethodPost, "/api/v1/campaigns", defaultIdempotencyTTL, true},
		{"platform initialize", http.MethodPost, "/api/v1/platform/initialize", defaultIdempotencyTTL, true},
		{"campaign read", http.MethodGet, "/api/v1/campaigns/{campaignId}", 0, false},
		{"settings update", http.MethodPut, "/api/v1/platform/settings", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := routeTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/campaigns/1/donations", "/api/v1/campaigns/{campaignId}/donations", strings.NewReader(`{"amountUnits":1000000}`))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyMiddlewareReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	body := `{"amountUnits":1000000}`
	first := requestWithPattern(http.MethodPost, "/api/v1/campaigns/1/donations", "/api/v1/campaigns/{campaignId}/donations", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, first)
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected first response 202 got %d", resp.Code)
	}

	second := requestWithPattern(http.MethodPost, "/api/v1/campaigns/1/donations", "/api/v1/campaigns/{campaignId}/donations", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "abc")
	replay := httptest.NewRecorder()
	mw(handler).ServeHTTP(replay, second)

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if replay.Code != http.StatusAccepted {
		t.Fatalf("expected replayed 202 got %d", replay.Code)
	}
	if replay.Body.String() != `{"ok":true}` {
		t.Fatalf("replayed body = %q", replay.Body.String())
	}
}

func TestIdempotencyMiddlewareRejectsReusedKeyWithNewBody(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	first := requestWithPattern(http.MethodPost, "/api/v1/campaigns/1/withdrawals", "/api/v1/campaigns/{campaignId}/withdrawals", strings.NewReader(`{"amountUnits":1000000000}`))
	first.Header.Set("Idempotency-Key", "wd-1")
	mw(handler).ServeHTTP(httptest.NewRecorder(), first)

	second := requestWithPattern(http.MethodPost, "/api/v1/campaigns/1/withdrawals", "/api/v1/campaigns/{campaignId}/withdrawals", strings.NewReader(`{"amountUnits":2000000000}`))
	second.Header.Set("Idempotency-Key", "wd-1")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, second)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareSkipsUnlistedRoutes(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodGet, "/api/v1/campaigns", "/api/v1/campaigns", nil)
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	if calls != 1 {
		t.Fatal("handler should run on unlisted routes without a key")
	}
	if len(store.data) != 0 {
		t.Fatal("no record should be stored for unlisted routes")
	}
}
