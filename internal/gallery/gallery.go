// Package gallery holds the paginated, searchable agent list one visitor
// (or one CLI run) is looking at.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/agentgallery/internal/creatorbid"
	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/logging"
)

// ErrLoadMoreUnavailable is returned by LoadMore while a load is running,
// before the first page of the current search has been applied, or after
// the last page.
var ErrLoadMoreUnavailable = errors.New("gallery: no more agents to load")

// Source is the part of the CreatorBid API a gallery reads from.
type Source interface {
	ListAgents(ctx context.Context, p creatorbid.ListParams) (domain.AgentPage, error)
	Metadata(ctx context.Context, id string) (domain.Agent, error)
}

// Options tunes a Gallery. Zero values use the defaults.
type Options struct {
	PageSize          int
	EnrichConcurrency int
}

const defaultEnrichConcurrency = 8

// Snapshot is a copy of the gallery state at one instant.
type Snapshot struct {
	Generation uint64
	Search     string
	Page       int
	Agents     []domain.Agent
	Loading    bool
	HasMore    bool
	Loaded     bool
	// Ready is set once the first page of Search has been applied.
	Ready bool
	// Failed reports that the last finished load of this generation failed.
	Failed bool
}

// Empty reports whether a finished search produced nothing to show.
func (s Snapshot) Empty() bool {
	return s.Loaded && !s.Loading && !s.Failed && !s.HasMore && len(s.Agents) == 0
}

// CanLoadMore mirrors the visibility rule of the load more control. The
// next page is only offered on top of an applied first page.
func (s Snapshot) CanLoadMore() bool {
	return s.Ready && !s.Loading && s.HasMore
}

// Gallery accumulates valid, enriched agents page by page.
//
// Every load runs under the generation current when it started. SetSearch
// bumps the generation and cancels the running load, so a result that
// arrives late is dropped instead of overwriting the newer search.
type Gallery struct {
	src  Source
	log  *logging.Logger
	opts Options

	mu         sync.Mutex
	page       int
	agents     []domain.Agent
	loading    bool
	search     string
	hasMore    bool
	loaded     bool
	ready      bool
	failed     bool
	generation uint64
	cancel     context.CancelFunc
	onChange   func(Snapshot)
}

// New creates an empty gallery on page 1 with no search.
func New(src Source, opts Options, log *logging.Logger) *Gallery {
	if opts.PageSize <= 0 {
		opts.PageSize = creatorbid.DefaultPageSize
	}
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = defaultEnrichConcurrency
	}
	return &Gallery{
		src:     src,
		log:     log.Sub("gallery"),
		opts:    opts,
		page:    1,
		hasMore: true,
	}
}

// OnChange registers fn to receive a snapshot whenever a load starts or
// finishes. fn runs on the loading goroutine without the gallery lock held.
func (g *Gallery) OnChange(fn func(Snapshot)) {
	g.mu.Lock()
	g.onChange = fn
	g.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (g *Gallery) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gallery) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: g.generation,
		Search:     g.search,
		Page:       g.page,
		Agents:     append([]domain.Agent(nil), g.agents...),
		Loading:    g.loading,
		HasMore:    g.hasMore,
		Loaded:     g.loaded,
		Ready:      g.ready,
		Failed:     g.failed,
	}
}

// Find returns the accumulated agent with the given id.
func (g *Gallery) Find(id string) (domain.Agent, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, a := range g.agents {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Agent{}, false
}

// SetSearch resets to page 1 for q and loads it. Any load still running
// for an earlier search is cancelled and its result discarded.
func (g *Gallery) SetSearch(ctx context.Context, q string) error {
	g.mu.Lock()
	if g.cancel != nil {
		g.cancel()
	}
	g.generation++
	gen := g.generation
	g.search = q
	g.page = 1
	g.loading = true
	g.ready = false
	g.failed = false
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()

	defer cancel()
	return g.load(ctx, gen, 1, q)
}

// LoadMore fetches the page after the current one with the current search
// and appends it.
func (g *Gallery) LoadMore(ctx context.Context) error {
	g.mu.Lock()
	if g.loading || !g.hasMore || !g.ready {
		g.mu.Unlock()
		return ErrLoadMoreUnavailable
	}
	gen := g.generation
	next := g.page + 1
	search := g.search
	g.loading = true
	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()

	defer cancel()
	return g.load(ctx, gen, next, search)
}

// LoadPage loads one page for search under the current generation.
// Page 1 replaces the accumulated list, any other page appends to it.
func (g *Gallery) LoadPage(ctx context.Context, page int, search string) error {
	g.mu.Lock()
	gen := g.generation
	g.mu.Unlock()
	return g.load(ctx, gen, page, search)
}

// Close cancels any running load and makes its result stale.
func (g *Gallery) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.generation++
	g.loading = false
	g.onChange = nil
}

func (g *Gallery) load(ctx context.Context, gen uint64, page int, search string) (err error) {
	g.mu.Lock()
	if gen != g.generation {
		g.mu.Unlock()
		return nil
	}
	g.loading = true
	g.unlockAndNotify()

	defer func() {
		g.mu.Lock()
		if gen != g.generation {
			g.mu.Unlock()
			return
		}
		g.loading = false
		g.loaded = true
		g.failed = err != nil
		g.unlockAndNotify()
	}()

	res, err := g.src.ListAgents(ctx, creatorbid.ListParams{Page: page, Limit: g.opts.PageSize, Search: search})
	if err != nil {
		if ctx.Err() != nil {
			g.log.Debug().Uint64("generation", gen).Int("page", page).Msg("load cancelled")
			return nil
		}
		g.log.Error().Err(err).Int("page", page).Str("search", search).Msg("failed to fetch agents")
		return fmt.Errorf("load page %d: %w", page, err)
	}

	valid := domain.FilterValid(res.Agents)
	g.enrich(ctx, valid)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.generation {
		g.log.Debug().
			Uint64("generation", gen).
			Uint64("current", g.generation).
			Int("page", page).
			Msg("dropping stale page")
		return nil
	}

	if page == 1 {
		g.agents = valid
		g.ready = true
	} else {
		g.agents = append(g.agents, valid...)
	}
	g.page = page
	g.search = search
	g.hasMore = len(g.agents) < res.NumTotalAgents
	return nil
}

// enrich attaches descriptions in place. Failures leave the agent as is.
func (g *Gallery) enrich(ctx context.Context, agents []domain.Agent) {
	var eg errgroup.Group
	eg.SetLimit(g.opts.EnrichConcurrency)
	for i := range agents {
		eg.Go(func() error {
			meta, err := g.src.Metadata(ctx, agents[i].ID)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				g.log.Warn().Err(err).Str("agent_id", agents[i].ID).Msg("failed to fetch agent metadata")
				return nil
			}
			agents[i].Description = meta.Description
			return nil
		})
	}
	eg.Wait()
}

// unlockAndNotify releases mu and then hands the listener a snapshot.
func (g *Gallery) unlockAndNotify() {
	fn := g.onChange
	snap := g.snapshotLocked()
	g.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}
