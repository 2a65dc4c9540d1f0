// Package web serves the agent gallery and detail pages, plus a websocket
// live channel that pushes gallery updates to the browser.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/agentgallery/internal/config"
	"github.com/soyeahso/agentgallery/internal/detail"
	"github.com/soyeahso/agentgallery/internal/gallery"
	"github.com/soyeahso/agentgallery/internal/logging"
	"github.com/soyeahso/agentgallery/internal/version"
)

const (
	maxFrameBytes        = 64 * 1024
	sessionSweepInterval = time.Minute
)

// API is everything the web shell reads from CreatorBid.
type API interface {
	gallery.Source
	detail.Source
}

// Server is the agentgallery HTTP + websocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	api      API
	details  *detail.Loader
	sessions *SessionRegistry
	clients  *ClientRegistry
	renderer *renderer
	handlers map[string]RequestHandler
	upgrader websocket.Upgrader
	eventSeq atomic.Int64

	// bgCtx bounds loads started from the live channel. It is replaced by
	// the Start context.
	bgCtx atomic.Pointer[context.Context]

	startedAt  time.Time
	httpServer *http.Server
}

// New creates a server reading from api.
func New(cfg config.Config, api API, log *logging.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.Sub("web"),
		api:      api,
		details:  detail.NewLoader(api, cfg.API.SiteURL, log),
		clients:  NewClientRegistry(log.Sub("clients")),
		renderer: newRenderer(),
		handlers: make(map[string]RequestHandler),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkWebSocketOrigin(cfg.Server.AllowedOrigins),
		},
	}
	bg := context.Background()
	s.bgCtx.Store(&bg)

	galleryOpts := gallery.Options{
		PageSize:          cfg.API.PageSize,
		EnrichConcurrency: cfg.Gallery.EnrichConcurrency,
	}
	s.sessions = NewSessionRegistry(cfg.Web.SessionIdle, cfg.Web.MaxSessions, func(id string) *gallery.Gallery {
		g := gallery.New(api, galleryOpts, log.With("session", id))
		g.OnChange(func(snap gallery.Snapshot) { s.pushUpdate(id, snap) })
		return g
	}, log.Sub("sessions"))

	s.registerRPCHandlers()
	return s
}

// checkWebSocketOrigin accepts same-host origins, requests without an
// Origin header and anything listed in allowed ("*" allows all).
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Handle registers a live channel method.
func (s *Server) Handle(method string, handler RequestHandler) {
	s.handlers[method] = handler
}

// Methods returns the registered live channel methods.
func (s *Server) Methods() []string {
	methods := make([]string, 0, len(s.handlers))
	for m := range s.handlers {
		methods = append(methods, m)
	}
	return methods
}

// Sessions exposes the visitor session registry.
func (s *Server) Sessions() *SessionRegistry { return s.sessions }

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan", "auto":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	return withMiddleware(mux, s.log, s.cfg.Server.AllowedOrigins)
}

// Start listens and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)
	s.bgCtx.Store(&ctx)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.startedAt = time.Now()

	go s.sessions.Run(ctx, sessionSweepInterval)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Str("api", s.cfg.API.BaseURL).
		Msg("agentgallery server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.sessions.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}

// Close drops every socket and session. Used when serving through
// Handler without Start.
func (s *Server) Close() {
	s.clients.CloseAll()
	s.sessions.CloseAll()
}

func (s *Server) background() context.Context {
	return *s.bgCtx.Load()
}

// handleWebSocket upgrades the request and runs the frame loop. The socket
// is bound to the visitor's gallery session from the cookie.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sess, sessErr := s.sessions.Lookup(r)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxFrameBytes)

	sessionID := ""
	if sessErr == nil {
		sessionID = sess.ID
	}
	client := NewClient(conn, sessionID, s.log.Sub("ws"))
	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	hello := Hello{
		ConnID:    client.ConnID,
		Version:   version.Version,
		Methods:   s.Methods(),
		SessionOK: sessErr == nil,
	}
	if err := client.SendEvent(EventHello, hello, s.eventSeq.Add(1)); err != nil {
		s.log.Debug().Err(err).Msg("failed to send hello")
		return
	}

	s.readLoop(client)
}

// readLoop processes request frames until the socket closes.
func (s *Server) readLoop(client *Client) {
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, net.ErrClosed) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}

		s.dispatch(client, frame)
	}
}

// dispatch routes a request frame to its handler.
func (s *Server) dispatch(client *Client, frame Frame) {
	handler, ok := s.handlers[frame.Method]
	if !ok {
		client.RespondError(frame.ID, ErrorShape{
			Code:    "method_not_found",
			Message: "unknown method: " + frame.Method,
		})
		return
	}
	handler(&RequestContext{Client: client, Frame: frame, Server: s})
}

// pushUpdate sends a gallery snapshot to the sockets of a session.
func (s *Server) pushUpdate(sessionID string, snap gallery.Snapshot) {
	if len(s.clients.ForSession(sessionID)) == 0 {
		return
	}
	view := newListView(snap)
	html, err := s.renderer.fragment("agent-list", view)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render agent list")
		return
	}
	s.clients.SendToSession(sessionID, EventGalleryUpdate, GalleryUpdate{
		Generation: snap.Generation,
		Search:     snap.Search,
		Page:       snap.Page,
		Loading:    snap.Loading,
		HasMore:    snap.HasMore,
		Empty:      snap.Empty(),
		Failed:     snap.Failed,
		Count:      len(snap.Agents),
		HTML:       html,
	}, s.eventSeq.Add(1))
}
