package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/agentgallery/internal/detail"
	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/gallery"
	"github.com/soyeahso/agentgallery/internal/version"
)

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Sessions int    `json:"sessions"`
	Clients  int    `json:"clients"`
}

// listView is the data of the agent-list partial.
type listView struct {
	Generation  uint64
	Search      string
	Agents      []domain.Agent
	Loading     bool
	CanLoadMore bool
	Empty       bool
	Failed      bool
}

func newListView(snap gallery.Snapshot) listView {
	return listView{
		Generation:  snap.Generation,
		Search:      snap.Search,
		Agents:      snap.Agents,
		Loading:     snap.Loading,
		CanLoadMore: snap.CanLoadMore(),
		Empty:       snap.Empty(),
		Failed:      snap.Failed && !snap.Loading,
	}
}

// handleGallery renders the gallery for ?search=. The session's gallery is
// reloaded only when the search changed or its first page was never applied,
// so coming back from a detail page shows the list as it was.
func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Ensure(w, r)
	search := r.URL.Query().Get("search")

	// A failed first page leaves the gallery not ready; the next visit retries.
	snap := sess.Gallery.Snapshot()
	if snap.Search != search || (!snap.Loading && !snap.Ready) {
		if err := sess.Gallery.SetSearch(r.Context(), search); err != nil {
			// Already logged by the gallery; the page shows what is there.
			s.log.Debug().Err(err).Str("session", sess.ID).Msg("gallery load failed")
		}
		snap = sess.Gallery.Snapshot()
	}

	s.renderPage(w, http.StatusOK, "gallery.html", PageData{
		Title:  "CreatorBid Agents",
		Search: search,
		Data:   newListView(snap),
	})
}

// handleDetail renders one agent. The card the visitor clicked, if still in
// their gallery, is the placeholder; the page always shows fetched data.
func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	search := r.URL.Query().Get("search")

	var carried *domain.Agent
	if sess, err := s.sessions.Lookup(r); err == nil {
		if a, ok := sess.Gallery.Find(id); ok {
			carried = &a
		}
	}

	view := s.details.New(id, carried, search)
	view.Load(r.Context())

	status := http.StatusOK
	if errors.Is(view.Err(), detail.ErrNotFound) {
		status = http.StatusNotFound
	}
	title := detail.NotFoundText
	if view.State != detail.NotFound {
		title = view.Agent.Name + " · CreatorBid Agents"
	}
	s.renderPage(w, status, "detail.html", PageData{
		Title:  title,
		Search: search,
		Data:   view,
	})
}

// handleMore is the no-script load more: it appends a page and redirects
// back to the gallery.
func (s *Server) handleMore(w http.ResponseWriter, r *http.Request) {
	search := r.FormValue("search")

	sess, err := s.sessions.Lookup(r)
	if err == nil && sess.Gallery.Snapshot().Ready {
		if err := sess.Gallery.LoadMore(r.Context()); err != nil && !errors.Is(err, gallery.ErrLoadMoreUnavailable) {
			s.log.Debug().Err(err).Str("session", sess.ID).Msg("load more failed")
		}
		search = sess.Gallery.Snapshot().Search
	}

	http.Redirect(w, r, detail.GalleryURL(search), http.StatusSeeOther)
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Sessions: s.sessions.Count(),
		Clients:  s.clients.Count(),
	})
}

// handleNotFound renders the 404 page for unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusNotFound, "notfound.html", PageData{Title: "Page not found"})
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, page PageData) {
	if err := s.renderer.render(w, status, name, page); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// RequestHandler processes a live channel request.
type RequestHandler func(rc *RequestContext)

// RequestContext carries everything a handler needs.
type RequestContext struct {
	Client *Client
	Frame  Frame
	Server *Server
}

// Respond sends a success response.
func (rc *RequestContext) Respond(payload any) {
	if err := rc.Client.Respond(rc.Frame.ID, payload); err != nil {
		rc.Server.log.Warn().Err(err).Str("method", rc.Frame.Method).Msg("failed to send response")
	}
}

// RespondError sends an error response.
func (rc *RequestContext) RespondError(code, message string) {
	rc.Client.RespondError(rc.Frame.ID, ErrorShape{Code: code, Message: message})
}

// Params unmarshals the request params into target.
func (rc *RequestContext) Params(target any) error {
	if rc.Frame.Params == nil {
		return nil
	}
	return json.Unmarshal(rc.Frame.Params, target)
}

// Session resolves the client's gallery session, answering the request
// with an error when it is gone.
func (rc *RequestContext) Session() (*Session, bool) {
	sess, err := rc.Server.sessions.Get(rc.Client.SessionID)
	if err != nil {
		rc.RespondError("session_expired", err.Error())
		return nil, false
	}
	return sess, true
}
