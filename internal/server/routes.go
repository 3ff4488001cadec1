// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clipd Contributors

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipd-dev/clipd/internal/config"
	"github.com/clipd-dev/clipd/internal/session"
	"github.com/clipd-dev/clipd/internal/store"
	clipderr "github.com/clipd-dev/clipd/pkg/errors"
)

func (s *Server) routes(r chi.Router) {
	r.Route("/view", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Post("/search", s.handleViewSearch)
		r.Post("/category", s.handleViewCategory)
		r.Post("/search-all", s.handleViewSearchAll)
		r.Post("/page", s.handleViewPage)
		r.Post("/reload", s.handleViewReload)
	})

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.handleListItems)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetItem)
			r.Delete("/", s.handleDeleteItem)
			r.Post("/copy", s.handleCopyItem)
			r.Post("/tags", s.handleAddTag)
			r.Delete("/tags/{name}", s.handleRemoveTag)
		})
	})

	r.Route("/tags", func(r chi.Router) {
		r.Get("/", s.handleListTags)
		r.Post("/rename", s.handleRenameTag)
		r.Delete("/{name}", s.handleDeleteTag)
	})

	r.Route("/backfill", func(r chi.Router) {
		r.Post("/", s.handleStartBackfill)
		r.Get("/", s.handleBackfillStatus)
		r.Delete("/", s.handleCancelBackfill)
	})

	r.Route("/settings", func(r chi.Router) {
		r.Get("/", s.handleGetSettings)
		r.Put("/", s.handleUpdateSettings)
	})

	r.Delete("/embeddings", s.handleClearEmbeddings)
}

// itemJSON is the wire form of a clipboard item. Blob is base64 per
// encoding/json's []byte handling.
type itemJSON struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Content   string    `json:"content,omitempty"`
	Blob      []byte    `json:"blob,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	SourceApp string    `json:"source_app"`
	Tags      []string  `json:"tags,omitempty"`
	Score     *float64  `json:"score,omitempty"`
}

type errorJSON struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type viewJSON struct {
	Items      []itemJSON `json:"items"`
	SearchText string     `json:"search_text"`
	Category   string     `json:"category"`
	SearchAll  bool       `json:"search_all"`
	Loading    bool       `json:"loading"`
	HasMore    bool       `json:"has_more"`
	Provider   string     `json:"provider"`
	SearchErr  *errorJSON `json:"search_error,omitempty"`
}

func encodeItem(item *store.Item, score *float64) itemJSON {
	return itemJSON{
		ID:        item.ID,
		Kind:      string(item.Kind),
		Content:   item.Content,
		Blob:      item.Blob,
		CreatedAt: item.CreatedAt,
		SourceApp: item.SourceApp,
		Tags:      item.Tags,
		Score:     score,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	v := s.deps.Session.View()
	s.writeJSON(w, http.StatusOK, encodeView(v))
}

func encodeView(v session.View) viewJSON {
	items := make([]itemJSON, 0, len(v.Items))
	for _, item := range v.Items {
		var score *float64
		if sc, ok := v.Scores[item.ID]; ok {
			score = &sc
		}
		items = append(items, encodeItem(item, score))
	}

	out := viewJSON{
		Items:      items,
		SearchText: v.SearchText,
		Category:   v.Category,
		SearchAll:  v.SearchAll,
		Loading:    v.Loading,
		HasMore:    v.HasMore,
		Provider:   v.Provider,
	}
	if v.SearchErr != nil {
		out.SearchErr = &errorJSON{
			Code:    string(clipderr.CodeOf(v.SearchErr)),
			Message: v.SearchErr.Error(),
		}
	}
	return out
}

func (s *Server) handleViewSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.deps.Session.SetSearchText(req.Text)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleViewCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.deps.Session.SetCategory(req.Category)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleViewSearchAll(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.deps.Session.SetSearchAll(req.Enabled)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleViewPage(w http.ResponseWriter, _ *http.Request) {
	s.deps.Session.LoadNextPage()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleViewReload(w http.ResponseWriter, _ *http.Request) {
	s.deps.Session.Reload()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOpts{}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, clipderr.New(clipderr.CodeServerRequestInvalid, "limit must be a positive integer"))
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, clipderr.New(clipderr.CodeServerRequestInvalid, "offset must be a non-negative integer"))
			return
		}
		opts.Offset = n
	}

	items, err := s.deps.Store.ListItems(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]itemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, encodeItem(item, nil))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item, err := s.deps.Store.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, encodeItem(item, nil))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Store.DeleteItem(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCopyItem writes the item's text content back to the system clipboard.
func (s *Server) handleCopyItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	item, err := s.deps.Store.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if item.Kind == store.ItemKindImage {
		s.writeError(w, clipderr.New(clipderr.CodeServerRequestInvalid,
			"image items cannot be copied back as text", clipderr.FieldItemID(id)))
		return
	}
	if err := s.deps.Clipboard.WriteText(item.Content); err != nil {
		s.writeError(w, clipderr.Wrap(err, clipderr.CodeClipboardFailure,
			"writing to clipboard", clipderr.FieldItemID(id)))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.deps.Store.AddTag(r.Context(), id, req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	id, ok := s.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.deps.Store.RemoveTag(r.Context(), id, name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.deps.Store.ListTags(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	type tagJSON struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]tagJSON, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagJSON{ID: t.ID, Name: t.Name})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tags": out})
}

func (s *Server) handleRenameTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.deps.Store.RenameTag(r.Context(), req.From, req.To); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.DeleteTag(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartBackfill launches a job detached from the request context so it
// survives the response.
func (s *Server) handleStartBackfill(w http.ResponseWriter, _ *http.Request) {
	job, err := s.deps.Backfill.Start(context.Background())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, job.Status())
}

func (s *Server) handleBackfillStatus(w http.ResponseWriter, _ *http.Request) {
	status, ok := s.deps.Backfill.Status()
	if !ok {
		s.writeError(w, clipderr.New(clipderr.CodeBackfillNotFound, "no backfill job has run"))
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleCancelBackfill(w http.ResponseWriter, _ *http.Request) {
	if !s.deps.Backfill.Cancel() {
		s.writeError(w, clipderr.New(clipderr.CodeBackfillNotFound, "no backfill job is running"))
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var next config.Settings
	if !s.decode(w, r, &next) {
		return
	}
	if err := s.deps.Settings.Update(next); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.deps.Settings.Current())
}

// handleClearEmbeddings wipes the active provider's embedding table.
func (s *Server) handleClearEmbeddings(w http.ResponseWriter, r *http.Request) {
	provider := s.deps.Settings.Current().Embeddings.Provider
	if err := s.deps.Store.ClearEmbeddings(r.Context(), provider); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, clipderr.New(clipderr.CodeServerRequestInvalid, "item id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, clipderr.Wrap(err, clipderr.CodeServerRequestInvalid, "decoding request body"))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

// writeError maps store sentinels and taxonomy codes onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := clipderr.HTTPStatus(err)
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, store.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	code := clipderr.CodeOf(err)
	if code == "" {
		code = clipderr.CodeServerInternalFailure
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	s.writeJSON(w, status, errorJSON{Code: string(code), Message: err.Error()})
}
