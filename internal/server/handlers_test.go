package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/instasearch/internal/config"
	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/internal/search"
	"github.com/hyperjump/instasearch/internal/storage"
	"go.uber.org/zap"
)

func blogItems() []models.Item {
	return []models.Item{
		{Title: "Building a blog with Astro", Description: "Notes on static sites", Slug: "astro-blog",
			Metadata: map[string]interface{}{"tags": []interface{}{"astro", "web"}, "pubDatetime": "2024-03-01T10:00:00Z"}},
		{Title: "Cooking pasta at home", Description: "A simple recipe for dinner", Slug: "pasta"},
		{Title: "Typescript tips", Description: "Small tricks for typed code", Slug: "ts-tips"},
	}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.Default()
	engine := search.NewEngine(&cfg.Search, search.WithLogger(zap.NewNop()))
	if err := engine.Reload(blogItems()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	t.Cleanup(func() { _ = engine.Close() })
	srv, err := NewServer(engine, cfg, zap.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) sessionView {
	t.Helper()
	var v sessionView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHandlePage_RestoresQuery(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/search?q=astro", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`value="astro"`,
		`data-cursor="5"`,
		"autofocus",
		"Found 2 results for &#39;astro&#39;",
		`href="/posts/astro-blog/"`,
		"1 Mar, 2024",
		"astro, web",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if srv.sessions.len() != 1 {
		t.Errorf("sessions = %d, want 1", srv.sessions.len())
	}
}

func TestHandlePage_Idle(t *testing.T) {
	srv := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "data-cursor") || strings.Contains(body, "autofocus") {
		t.Error("idle page should not place the cursor")
	}
	if strings.Contains(body, "Found") {
		t.Error("idle page should not show a count")
	}
}

func TestHandlePage_Suggestion(t *testing.T) {
	cfg := config.Default()
	threshold := 0.1
	cfg.Search.Threshold = &threshold
	engine := search.NewEngine(&cfg.Search)
	if err := engine.Reload(blogItems()); err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(engine, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=recipie", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `href="/search?q=recipe"`) {
		t.Errorf("expected suggestion link, got:\n%s", body)
	}
	if !strings.Contains(body, "Found 0 results for &#39;recipie&#39;") {
		t.Error("expected zero count message")
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?page=2&q=recipie", nil))
	if body := rec.Body.String(); !strings.Contains(body, `href="/search?page=2&amp;q=recipe"`) {
		t.Errorf("suggestion link should keep other parameters, got:\n%s", body)
	}
}

func TestHandlePost(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/pasta/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Cooking pasta at home") {
		t.Errorf("post page: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/missing/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing post status = %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "/search?page=2"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeView(t, rec)
	if created.ID == "" || created.State != "idle" || created.Cursor != nil {
		t.Fatalf("created = %+v", created)
	}
	if created.Href != "/search?page=2" {
		t.Errorf("href = %q", created.Href)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+created.ID+"/query", queryChangeRequest{Query: "pasta"})
	if rec.Code != http.StatusOK {
		t.Fatalf("query status = %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.State != "active" || v.Href != "/search?page=2&q=pasta" {
		t.Errorf("after query: state %q href %q", v.State, v.Href)
	}
	if len(v.Cards) != 2 || v.Cards[0].Href != "/posts/pasta/" {
		t.Errorf("cards = %+v", v.Cards)
	}
	if v.Message != "Found 2 results for 'pasta'" {
		t.Errorf("message = %q", v.Message)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+created.ID+"/query", queryChangeRequest{Query: "p"})
	v = decodeView(t, rec)
	if v.Href != "/search?page=2&q=p" || v.Message != "" || len(v.Cards) != 0 {
		t.Errorf("short query: %+v", v)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+created.ID+"/query", queryChangeRequest{Query: ""})
	v = decodeView(t, rec)
	if v.State != "idle" || v.Href != "/search?page=2" || v.Cards != nil {
		t.Errorf("cleared: %+v", v)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/sessions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/sessions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+created.ID+"/query", queryChangeRequest{Query: "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("deleted session status = %d", rec.Code)
	}
}

func TestCreateSession_Restores(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "/search?q=typescript"})
	v := decodeView(t, rec)
	if v.State != "active" || v.Cursor == nil || *v.Cursor != 10 {
		t.Fatalf("restored = %+v", v)
	}
	if len(v.Cards) != 1 || v.Cards[0].Title != "Typescript tips" {
		t.Errorf("cards = %+v", v.Cards)
	}
}

func TestCreateSession_BadRequest(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "%zz"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid href status = %d", rec.Code)
	}
}

func TestSessionRegistry_Evicts(t *testing.T) {
	cfg := config.Default()
	cfg.Search.MaxSessions = 2
	engine := search.NewEngine(&cfg.Search)
	srv, err := NewServer(engine, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	h := srv.Handler()
	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, decodeView(t, doJSON(t, h, http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "/"})).ID)
	}
	if srv.sessions.len() != 2 {
		t.Errorf("sessions = %d, want 2", srv.sessions.len())
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/v1/sessions/"+ids[0], nil); rec.Code != http.StatusNotFound {
		t.Errorf("oldest session status = %d, want 404", rec.Code)
	}
	if engine.Sessions() != 2 {
		t.Errorf("engine sessions = %d, want the evicted one released", engine.Sessions())
	}
	doJSON(t, h, http.MethodDelete, "/api/v1/sessions/"+ids[2], nil)
	if engine.Sessions() != 1 {
		t.Errorf("engine sessions after delete = %d, want 1", engine.Sessions())
	}
}

func TestSessionRegistry_EvictedTabReopens(t *testing.T) {
	cfg := config.Default()
	cfg.Search.MaxSessions = 1
	engine := search.NewEngine(&cfg.Search)
	if err := engine.Reload(blogItems()); err != nil {
		t.Fatal(err)
	}
	srv, err := NewServer(engine, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	h := srv.Handler()

	tab := decodeView(t, doJSON(t, h, http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "/search?q=astro"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search", nil))
	if !strings.Contains(rec.Body.String(), `fetch("/api/v1/sessions", {`) {
		t.Error("page script should reopen dropped sessions")
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+tab.ID+"/query", queryChangeRequest{Query: "pasta", Seq: 4})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("evicted session status = %d, want 404", rec.Code)
	}

	// The tab reopens at its current URL and replays the edit.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: tab.Href})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reopen status = %d", rec.Code)
	}
	reopened := decodeView(t, rec)
	if reopened.ID == tab.ID || reopened.Display.Query != "astro" {
		t.Fatalf("reopened = %+v", reopened)
	}
	rec = doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+reopened.ID+"/query", queryChangeRequest{Query: "pasta", Seq: 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status = %d", rec.Code)
	}
	v := decodeView(t, rec)
	if v.Href != "/search?q=pasta" || len(v.Cards) != 2 || v.Cards[0].Href != "/posts/pasta/" {
		t.Errorf("replayed view = %+v", v)
	}
}

func TestQueryChange_IgnoresOlderEdits(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()
	id := decodeView(t, doJSON(t, h, http.MethodPost, "/api/v1/sessions", createSessionRequest{Href: "/search"})).ID
	put := func(q string, seq int64) sessionView {
		t.Helper()
		rec := doJSON(t, h, http.MethodPut, "/api/v1/sessions/"+id+"/query", queryChangeRequest{Query: q, Seq: seq})
		if rec.Code != http.StatusOK {
			t.Fatalf("PUT %q status = %d", q, rec.Code)
		}
		return decodeView(t, rec)
	}

	put("pasta", 2)
	if v := put("past", 1); v.Href != "/search?q=pasta" {
		t.Errorf("older edit applied: href %q", v.Href)
	}
	if v := put("pasta", 2); v.Display.Query != "pasta" {
		t.Errorf("repeated edit: query %q", v.Display.Query)
	}
	v := decodeView(t, doJSON(t, h, http.MethodGet, "/api/v1/sessions/"+id, nil))
	if v.Href != "/search?q=pasta" {
		t.Errorf("session href = %q, want /search?q=pasta", v.Href)
	}

	if v := put("typescript", 3); v.Href != "/search?q=typescript" {
		t.Errorf("newer edit: href %q", v.Href)
	}
	if v := put("astro", 0); v.Href != "/search?q=astro" {
		t.Errorf("unnumbered edit: href %q", v.Href)
	}
}

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/search?q=astro&limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 || len(resp.Results) != 1 || resp.Results[0].Item.Slug != "astro-blog" {
		t.Errorf("response = %+v", resp)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: "astro", Offset: 1})
	resp = models.SearchResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Item.Slug != "pasta" {
		t.Errorf("offset response = %+v", resp)
	}

	tests := []struct {
		name   string
		target string
	}{
		{"empty query", "/api/v1/search?q=+"},
		{"missing query", "/api/v1/search"},
		{"bad limit", "/api/v1/search?q=astro&limit=ten"},
		{"bad offset", "/api/v1/search?q=astro&offset=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(t, h, http.MethodGet, tt.target, nil); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleGetItem(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/items/ts-tips", nil)
	var it models.Item
	if err := json.NewDecoder(rec.Body).Decode(&it); err != nil {
		t.Fatal(err)
	}
	if it.Title != "Typescript tips" {
		t.Errorf("item = %+v", it)
	}
	if rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/items/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing item status = %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", nil)
	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Items != 3 || status.Strategy != config.StrategyBitap {
		t.Errorf("status = %+v", status)
	}
	if status.DiskUsage != nil || status.SnapshotItems != nil {
		t.Error("no storage configured, snapshot fields should be absent")
	}
}

func TestHandleStatus_WithStorage(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.ReplaceItems(context.Background(), blogItems()); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, WithStorage(store))

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/status", nil)
	var status statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.SnapshotItems == nil || *status.SnapshotItems != 3 {
		t.Errorf("snapshot items = %v", status.SnapshotItems)
	}
	if status.LastImport == nil {
		t.Error("expected last import time")
	}
	if status.DiskUsage == nil || *status.DiskUsage <= 0 {
		t.Errorf("disk usage = %v", status.DiskUsage)
	}
}

func TestHandleReload(t *testing.T) {
	srv := newTestServer(t)
	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/reload", nil); rec.Code != http.StatusNotImplemented {
		t.Errorf("unconfigured reload status = %d", rec.Code)
	}

	calls := 0
	srv = newTestServer(t, WithReloader(func(context.Context) error {
		calls++
		return nil
	}))
	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/reload", nil); rec.Code != http.StatusOK || calls != 1 {
		t.Errorf("reload status = %d, calls = %d", rec.Code, calls)
	}

	srv = newTestServer(t, WithReloader(func(context.Context) error { return errors.New("boom") }))
	if rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/reload", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("failing reload status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}
}
