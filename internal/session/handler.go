package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
	"github.com/HerbHall/distrocompare/internal/server"
)

// streamWriteTimeout bounds a single websocket push.
const streamWriteTimeout = 10 * time.Second

// Response describes a session and its current filter state.
type Response struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	State     *catalog.FilterState `json:"state"`
}

// AttributeRequest is the body of PUT .../attributes/{attr}. Either field
// may be omitted to leave it unchanged.
type AttributeRequest struct {
	Priority  *catalog.Priority  `json:"priority,omitempty"`
	Selection *catalog.Selection `json:"selection,omitempty"`
}

// SortRequest is the body of PUT .../sort.
type SortRequest struct {
	Key string `json:"key"`
}

// EliminateRequest is the body of POST .../eliminate.
type EliminateRequest struct {
	Name string `json:"name"`
}

// Handler serves the session API.
type Handler struct {
	manager *Manager
	engine  *catalog.Engine
	logger  *zap.Logger
}

// NewHandler creates a session API handler.
func NewHandler(manager *Manager, engine *catalog.Engine, logger *zap.Logger) *Handler {
	return &Handler{manager: manager, engine: engine, logger: logger}
}

// RegisterRoutes implements server.RouteRegistrar.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	const base = "/api/v1/catalog/sessions"
	mux.HandleFunc("POST "+base, h.handleCreate)
	mux.HandleFunc("GET "+base+"/{id}", h.withSession(h.handleGet))
	mux.HandleFunc("DELETE "+base+"/{id}", h.handleDelete)
	mux.HandleFunc("GET "+base+"/{id}/view", h.withSession(h.handleView))
	mux.HandleFunc("PUT "+base+"/{id}/attributes/{attr}", h.withSession(h.handleSetAttribute))
	mux.HandleFunc("PUT "+base+"/{id}/toggles", h.withSession(h.handleSetToggles))
	mux.HandleFunc("PUT "+base+"/{id}/sort", h.withSession(h.handleSetSort))
	mux.HandleFunc("POST "+base+"/{id}/eliminate", h.withSession(h.handleEliminate))
	mux.HandleFunc("POST "+base+"/{id}/reset", h.withSession(h.handleReset))
	mux.HandleFunc("GET "+base+"/{id}/badges", h.withSession(h.handleBadges))
	mux.HandleFunc("GET "+base+"/{id}/stream", h.withSession(h.handleStream))
}

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, s *Session)

func (h *Handler) withSession(fn sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := h.manager.Get(r.PathValue("id"))
		if err != nil {
			server.NotFound(w, err.Error(), r.URL.Path)
			return
		}
		fn(w, r, s)
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, _ *http.Request) {
	s := h.manager.Create()
	catalog.WriteJSON(w, http.StatusCreated, describe(s))
}

func (h *Handler) handleGet(w http.ResponseWriter, _ *http.Request, s *Session) {
	catalog.WriteJSON(w, http.StatusOK, describe(s))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.PathValue("id")); err != nil {
		server.NotFound(w, err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleView(w http.ResponseWriter, _ *http.Request, s *Session) {
	catalog.WriteJSON(w, http.StatusOK, s.View())
}

func (h *Handler) handleSetAttribute(w http.ResponseWriter, r *http.Request, s *Session) {
	attr := r.PathValue("attr")
	var req AttributeRequest
	if err := catalog.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.Priority == nil && req.Selection == nil {
		server.BadRequest(w, "priority or selection is required", r.URL.Path)
		return
	}
	if err := h.engine.ValidateAttribute(attr, req.Selection); err != nil {
		catalog.WriteEngineError(w, r, err)
		return
	}
	h.update(w, r, s, func(st *catalog.FilterState) error {
		if req.Priority != nil {
			st.SetPriority(attr, *req.Priority)
		}
		if req.Selection != nil {
			st.SetSelection(attr, *req.Selection)
		}
		return nil
	})
}

func (h *Handler) handleSetToggles(w http.ResponseWriter, r *http.Request, s *Session) {
	var t catalog.Toggles
	if err := catalog.DecodeJSON(w, r, &t); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	h.update(w, r, s, func(st *catalog.FilterState) error {
		st.SetToggles(t)
		return nil
	})
}

func (h *Handler) handleSetSort(w http.ResponseWriter, r *http.Request, s *Session) {
	var req SortRequest
	if err := catalog.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if req.Key != "" {
		if err := h.engine.ValidateSortKey(req.Key); err != nil {
			catalog.WriteEngineError(w, r, err)
			return
		}
	}
	h.update(w, r, s, func(st *catalog.FilterState) error {
		st.SetSortKey(req.Key)
		return nil
	})
}

func (h *Handler) handleEliminate(w http.ResponseWriter, r *http.Request, s *Session) {
	var req EliminateRequest
	if err := catalog.DecodeJSON(w, r, &req); err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}
	if _, err := h.engine.Record(req.Name); err != nil {
		catalog.WriteEngineError(w, r, err)
		return
	}
	h.update(w, r, s, func(st *catalog.FilterState) error {
		st.Eliminate(req.Name)
		return nil
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request, s *Session) {
	h.update(w, r, s, func(st *catalog.FilterState) error {
		st.Reset()
		return nil
	})
}

func (h *Handler) handleBadges(w http.ResponseWriter, _ *http.Request, s *Session) {
	badges := s.Badges()
	if badges == nil {
		badges = []catalog.Badge{}
	}
	catalog.WriteJSON(w, http.StatusOK, badges)
}

// handleStream upgrades to a websocket and pushes a view every time an edit
// settles, starting with the current view.
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request, s *Session) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.String("session", s.ID), zap.Error(err))
		return
	}
	defer conn.CloseNow() //nolint:errcheck // best effort

	views, cancel := s.Subscribe()
	defer cancel()

	// The client only listens; CloseRead handles its close frame.
	ctx := conn.CloseRead(r.Context())

	if err := push(ctx, conn, s.View()); err != nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-views:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			if err := push(ctx, conn, view); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.logger.Debug("websocket push failed", zap.String("session", s.ID), zap.Error(err))
				}
				return
			}
		}
	}
}

func push(ctx context.Context, conn *websocket.Conn, view catalog.View) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, view)
}

// update applies fn and answers with the updated session.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, s *Session, fn func(*catalog.FilterState) error) {
	if err := s.Update(fn); err != nil {
		if errors.Is(err, ErrClosed) {
			server.NotFound(w, err.Error(), r.URL.Path)
			return
		}
		h.logger.Error("session update failed", zap.String("session", s.ID), zap.Error(err))
		server.InternalError(w, "failed to update session", r.URL.Path)
		return
	}
	catalog.WriteJSON(w, http.StatusOK, describe(s))
}

func describe(s *Session) Response {
	return Response{ID: s.ID, CreatedAt: s.CreatedAt, State: s.State()}
}
