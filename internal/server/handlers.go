package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/instasearch/internal/location"
	"github.com/hyperjump/instasearch/internal/models"
	"github.com/hyperjump/instasearch/internal/render"
	"github.com/hyperjump/instasearch/internal/session"
	"github.com/hyperjump/instasearch/internal/storage"
	"go.uber.org/zap"
)

// sessionView is the wire form of a live session.
type sessionView struct {
	ID      string              `json:"id"`
	Href    string              `json:"href"`
	State   string              `json:"state"`
	Display models.DisplayState `json:"display"`
	Message string              `json:"message,omitempty"`
	Cards   []render.Card       `json:"cards"`
	// Cursor is the caret position for a restored query; sent once.
	Cursor *int `json:"cursor,omitempty"`
}

type createSessionRequest struct {
	Href string `json:"href"`
}

type queryChangeRequest struct {
	Query string `json:"query"`
	// Seq numbers edits from one page; an edit older than one already applied is ignored.
	Seq int64 `json:"seq,omitempty"`
}

func (s *Server) view(id string, ls *liveSession) sessionView {
	st := ls.session.DisplayState()
	return sessionView{
		ID:      id,
		Href:    ls.bar.Href(),
		State:   ls.session.State().String(),
		Display: st,
		Message: session.CountMessage(st, ls.session.MinQueryLength()),
		Cards:   render.Cards(st.Results),
	}
}

// openSession builds a session restored from bar and registers it.
func (s *Server) openSession(bar *location.URL) (string, *liveSession, *cursorRecorder) {
	ls := &liveSession{
		session: s.engine.NewSession(bar),
		bar:     bar,
		created: time.Now(),
	}
	in := &cursorRecorder{}
	ls.session.AttachInput(in)
	return s.sessions.add(ls), ls, in
}

type pageData struct {
	SessionID      string
	Param          string
	Query          string
	Focus          bool
	Cursor         int
	HasResults     bool
	Message        string
	Suggestion     string
	SuggestionHref string
	Cards          []render.Card
}

// handlePage renders the search page for the request URL, restoring any query it carries.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id, ls, in := s.openSession(location.FromURL(r.URL))
	st := ls.session.DisplayState()
	data := pageData{
		SessionID:  id,
		Param:      ls.session.Param(),
		Query:      st.Query,
		Focus:      in.focused,
		Cursor:     -1,
		HasResults: st.HasResults(),
		Message:    session.CountMessage(st, ls.session.MinQueryLength()),
		Suggestion: st.Suggestion,
		Cards:      render.Cards(st.Results),
	}
	if in.cursor != nil {
		data.Cursor = *in.cursor
	}
	if st.Suggestion != "" {
		q := r.URL.Query()
		q.Set(data.Param, st.Suggestion)
		data.SuggestionHref = r.URL.Path + "?" + q.Encode()
	}
	s.renderHTML(w, "page.html", data)
}

// handlePost renders a single item.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	it, ok := s.engine.Item(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.renderHTML(w, "post.html", render.NewCard(models.RankedResult{Item: it}))
}

func (s *Server) renderHTML(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render page", zap.String("template", name), zap.Error(err))
	}
}

// handleCreateSession opens a live session at the given href.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Href == "" {
		req.Href = "/"
	}
	bar, err := location.Parse(req.Href)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid href")
		return
	}
	id, ls, in := s.openSession(bar)
	v := s.view(id, ls)
	v.Cursor = in.cursor
	respondJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ls, ok := s.sessions.get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, s.view(id, ls))
}

// handleQueryChange applies one edit of the search box.
func (s *Server) handleQueryChange(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ls, ok := s.sessions.get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	var req queryChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !ls.change(req.Query, req.Seq) {
		s.logger.Debug("stale query change ignored", zap.String("id", id), zap.Int64("seq", req.Seq))
	}
	respondJSON(w, http.StatusOK, s.view(id, ls))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(chi.URLParam(r, "id")) {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearch runs a stateless search from query parameters (GET) or a JSON body (POST).
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		param := s.config.Search.QueryParam
		if param == "" {
			param = session.DefaultParam
		}
		query.Query = q.Get(param)
		var err error
		if query.Limit, err = intParam(q, "limit"); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		if query.Offset, err = intParam(q, "offset"); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid offset")
			return
		}
	}

	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		if errors.Is(err, models.ErrEmptyQuery) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Search failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, ok := s.engine.Item(chi.URLParam(r, "slug"))
	if !ok {
		respondError(w, http.StatusNotFound, storage.ErrNotFound.Error())
		return
	}
	respondJSON(w, http.StatusOK, it)
}

// statusResponse reports the loaded index and, when a snapshot store is
// configured, its size on disk.
type statusResponse struct {
	Items         int        `json:"items"`
	Strategy      string     `json:"strategy"`
	LoadedAt      time.Time  `json:"loaded_at"`
	Sessions      int        `json:"sessions"`
	SnapshotItems *int64     `json:"snapshot_items,omitempty"`
	LastImport    *time.Time `json:"last_import,omitempty"`
	DiskUsage     *int64     `json:"disk_usage_bytes,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Items:    s.engine.Len(),
		Strategy: s.engine.Strategy(),
		LoadedAt: s.engine.LoadedAt(),
		Sessions: s.sessions.len(),
	}
	if s.storage != nil {
		ctx := r.Context()
		if n, err := s.storage.CountItems(ctx); err == nil {
			status.SnapshotItems = &n
		} else {
			s.logger.Warn("Failed to count snapshot items", zap.Error(err))
		}
		if t, err := s.storage.LastImport(ctx); err == nil && !t.IsZero() {
			status.LastImport = &t
		}
		if p, ok := s.storage.(interface{ Path() string }); ok {
			if n, err := storage.DiskUsageBytes(storage.DatabaseFiles(p.Path())...); err == nil {
				status.DiskUsage = &n
			}
		}
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		respondError(w, http.StatusNotImplemented, "Reload is not configured")
		return
	}
	if err := s.reload(r.Context()); err != nil {
		s.logger.Error("Reload failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Reload failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":     s.engine.Len(),
		"loaded_at": s.engine.LoadedAt(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
