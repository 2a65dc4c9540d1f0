// Package detail loads the full presentation of a single agent.
package detail

import (
	"context"
	"errors"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/logging"
)

// DefaultSiteURL is where "View on CreatorBid" points.
const DefaultSiteURL = "https://creator.bid"

const (
	NotFoundText      = "Agent not found."
	NoDescriptionText = "No description available for this agent."
)

// State is where a View is in its lifecycle.
type State int

const (
	Loading State = iota
	Loaded
	NotFound
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Source is the part of the CreatorBid API the detail view reads.
type Source interface {
	Metadata(ctx context.Context, id string) (domain.Agent, error)
	Price(ctx context.Context, id string) (domain.Price, error)
}

// Loader creates and loads detail views.
type Loader struct {
	src     Source
	log     *logging.Logger
	siteURL string
}

// NewLoader creates a Loader. An empty siteURL uses DefaultSiteURL.
func NewLoader(src Source, siteURL string, log *logging.Logger) *Loader {
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	return &Loader{
		src:     src,
		log:     log.Sub("detail"),
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

// View is the detail page of one agent.
type View struct {
	ID     string
	Search string
	State  State
	// Agent is the carried placeholder while Loading, the fetched agent once
	// Loaded, and zero when NotFound.
	Agent domain.Agent

	loader *Loader
}

// New starts a view for id in the Loading state. carried, when non-nil,
// is shown as a placeholder; it is never trusted as the loaded result.
func (l *Loader) New(id string, carried *domain.Agent, search string) *View {
	v := &View{ID: id, Search: search, State: Loading, loader: l}
	if carried != nil {
		v.Agent = *carried
	}
	return v
}

// Load fetches metadata and price concurrently and moves the view to
// Loaded or NotFound. A price failure only leaves the price empty.
func (v *View) Load(ctx context.Context) {
	var (
		meta     domain.Agent
		price    domain.Price
		metaErr  error
		priceErr error
		mu       sync.Mutex
	)

	// Neither fetch cancels the other, so errors are kept aside rather than
	// returned to the group.
	var eg errgroup.Group
	eg.Go(func() error {
		m, err := v.loader.src.Metadata(ctx, v.ID)
		mu.Lock()
		meta, metaErr = m, err
		mu.Unlock()
		return nil
	})
	eg.Go(func() error {
		p, err := v.loader.src.Price(ctx, v.ID)
		mu.Lock()
		price, priceErr = p, err
		mu.Unlock()
		return nil
	})
	eg.Wait()

	if priceErr != nil {
		v.loader.log.Warn().Err(priceErr).Str("agent_id", v.ID).Msg("failed to fetch agent price")
	}
	if metaErr != nil {
		v.loader.log.Error().Err(metaErr).Str("agent_id", v.ID).Msg("failed to fetch agent metadata")
		v.State = NotFound
		v.Agent = domain.Agent{}
		return
	}

	meta.ID = v.ID
	meta.Price = price.ForDetail()
	v.Agent = meta
	v.State = Loaded
}

// Err returns nil unless the view ended NotFound.
func (v *View) Err() error {
	if v.State == NotFound {
		return ErrNotFound
	}
	return nil
}

// ErrNotFound is reported by Err for a view whose metadata could not be loaded.
var ErrNotFound = errors.New(NotFoundText)

// BackURL returns the gallery URL with the carried search reattached.
func (v *View) BackURL() string {
	return GalleryURL(v.Search)
}

// ExternalURL links to the agent on the CreatorBid site.
func (v *View) ExternalURL() string {
	return v.loader.siteURL + "/agents/" + url.PathEscape(v.ID)
}

// DescriptionHTML is the rendered description, or the fallback text.
func (v *View) DescriptionHTML() template.HTML {
	if html := RenderMarkdown(v.Agent.Description); html != "" {
		return html
	}
	return template.HTML(template.HTMLEscapeString(NoDescriptionText))
}

// GalleryURL is "/" or "/?search=<q>".
func GalleryURL(search string) string {
	if search == "" {
		return "/"
	}
	return "/?" + url.Values{"search": {search}}.Encode()
}
