package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/minibridge/internal/dispatch"
	"github.com/mattjoyce/minibridge/internal/events"
	"github.com/mattjoyce/minibridge/internal/journal"
	"github.com/mattjoyce/minibridge/internal/log"
	"github.com/mattjoyce/minibridge/internal/registry"
)

const testAPIKey = "test-key-123"

// fakeJournal implements JournalReader without a database.
type fakeJournal struct {
	entries []journal.Entry
}

func (f *fakeJournal) Recent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit > len(f.entries) {
		limit = len(f.entries)
	}
	return f.entries[:limit], nil
}

func (f *fakeJournal) Count(ctx context.Context) (int, error) {
	return len(f.entries), nil
}

func newTestServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()

	reg := registry.New()
	if err := reg.Register("system", "ping", func(ctx context.Context, params map[string]any) (registry.Result, error) {
		return registry.OK(map[string]any{"pong": true}), nil
	}, true); err != nil {
		t.Fatalf("Register: %v", err)
	}

	hub := events.NewHub(16)
	d := dispatch.New(reg, dispatch.WithHub(hub))
	jr := &fakeJournal{entries: []journal.Entry{
		{ID: "e1", Status: journal.StatusOK, Namespace: "system", Method: "ping", CreatedAt: time.Now().UTC()},
	}}

	s := New(Config{Listen: "127.0.0.1:0", APIKey: testAPIKey}, d, reg, jr, hub, log.WithComponent("api-test"))
	return s, reg
}

func doRequest(t *testing.T, s *Server, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.ContentLength = int64(len(body))
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	}
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	return rec
}

func TestHealthzNoAuth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/healthz", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp HealthzResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Namespaces != 1 || resp.JournalEntries != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/namespaces"},
		{http.MethodGet, "/v1/namespaces/system/methods"},
		{http.MethodPost, "/v1/invoke"},
		{http.MethodGet, "/v1/journal"},
	}
	for _, p := range paths {
		rec := doRequest(t, s, p.method, p.path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want 401", p.method, p.path, rec.Code)
		}
	}

	// Wrong key is also rejected.
	req := httptest.NewRequest(http.MethodGet, "/v1/namespaces", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", rec.Code)
	}
}

func TestNamespacesAndMethods(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/v1/namespaces", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ns NamespacesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ns); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ns.Namespaces) != 1 || ns.Namespaces[0] != "system" {
		t.Errorf("namespaces = %v", ns.Namespaces)
	}

	rec = doRequest(t, s, http.MethodGet, "/v1/namespaces/system/methods", "", true)
	var ms MethodsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &ms); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ms.Methods) != 1 || ms.Methods[0] != "ping" {
		t.Errorf("methods = %v", ms.Methods)
	}

	// Unknown namespace: empty list, 200.
	rec = doRequest(t, s, http.MethodGet, "/v1/namespaces/ghost/methods", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("unknown namespace status = %d", rec.Code)
	}
}

func TestInvokeLoopback(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/v1/invoke",
		`{"id":"h1","className":"system","method":"ping"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["success"] != true || resp["id"] != "h1" {
		t.Errorf("resp = %v", resp)
	}
}

func TestInvokeMalformedStillReturnsBridgeResponse(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/v1/invoke", `{broken`, true)
	// Dispatch failures are encoded in the bridge response, not the HTTP status.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid request") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestPushEvent(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodPost, "/v1/push/refresh", `{"scope":"all"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["event"] != "refresh" {
		t.Errorf("payload = %v", payload)
	}
	data, _ := payload["data"].(map[string]any)
	if data["scope"] != "all" {
		t.Errorf("data = %v", payload["data"])
	}
}

func TestJournalLimitValidation(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t)
	rec := doRequest(t, s, http.MethodGet, "/v1/journal?limit=0", "", true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d", rec.Code)
	}
	rec = doRequest(t, s, http.MethodGet, "/v1/journal?limit=10", "", true)
	if rec.Code != http.StatusOK {
		t.Errorf("limit=10 status = %d", rec.Code)
	}
	var entries []JournalEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != "ok" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestExtractAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc", want: "abc"},
		{name: "missing", header: "", wantErr: true},
		{name: "wrong scheme", header: "Basic abc", wantErr: true},
		{name: "empty key", header: "Bearer   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractAPIKey(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("got %q, %v", got, err)
			}
		})
	}
}
