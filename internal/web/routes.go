package web

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/soyeahso/agentgallery/internal/gallery"
)

// registerHTTPRoutes sets up all HTTP routes on the server mux.
// "/" and "/agent/{id}" are the two views; the rest support them.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleGallery)
	mux.HandleFunc("GET /agent/{id}", s.handleDetail)

	mux.HandleFunc("POST /more", s.handleMore)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	staticSub, _ := fs.Sub(staticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	mux.HandleFunc("/", s.handleNotFound)
}

// registerRPCHandlers sets up the live channel methods.
func (s *Server) registerRPCHandlers() {
	s.Handle(MethodGallerySearch, s.rpcGallerySearch)
	s.Handle(MethodGalleryMore, s.rpcGalleryMore)
}

// rpcGallerySearch restarts the session gallery on a new search. The load
// runs in the background; results arrive as gallery.update events.
func (s *Server) rpcGallerySearch(rc *RequestContext) {
	var p SearchParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	sess, ok := rc.Session()
	if !ok {
		return
	}

	go sess.Gallery.SetSearch(s.background(), p.Search)
	rc.Respond(map[string]any{"search": p.Search})
}

// rpcGalleryMore loads the next page in the background.
func (s *Server) rpcGalleryMore(rc *RequestContext) {
	sess, ok := rc.Session()
	if !ok {
		return
	}
	if !sess.Gallery.Snapshot().CanLoadMore() {
		rc.RespondError("unavailable", gallery.ErrLoadMoreUnavailable.Error())
		return
	}

	go func() {
		if err := sess.Gallery.LoadMore(s.background()); err != nil && !errors.Is(err, gallery.ErrLoadMoreUnavailable) {
			s.log.Warn().Err(err).Str("session", sess.ID).Msg("load more failed")
		}
	}()
	rc.Respond(map[string]any{"accepted": true})
}
