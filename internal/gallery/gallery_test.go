package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/agentgallery/internal/creatorbid"
	"github.com/soyeahso/agentgallery/internal/creatorbid/creatorbidtest"
	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/logging"
)

func silent() *logging.Logger { return logging.New(nil, "silent") }

func newTestGallery(t *testing.T, api *creatorbidtest.API) *Gallery {
	t.Helper()
	srv := api.Start(t)
	client := creatorbid.New(creatorbid.Options{BaseURL: srv.URL}, silent())
	return New(client, Options{}, silent())
}

func validAgents(prefix string, n int) []domain.Agent {
	out := make([]domain.Agent, n)
	for i := range out {
		out[i] = domain.Agent{
			ID:                  fmt.Sprintf("%s-%d", prefix, i),
			Name:                fmt.Sprintf("%s agent %d", prefix, i),
			MarketCap:           domain.NumericString(fmt.Sprint(10000 - i)),
			CumulativeETHVolume: "1.5",
		}
	}
	return out
}

func ids(agents []domain.Agent) []string {
	out := make([]string, len(agents))
	for i, a := range agents {
		out[i] = a.ID
	}
	return out
}

func TestSingleAgentScenario(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = []domain.Agent{{ID: "1", Name: "Bot", MarketCap: "100", CumulativeETHVolume: "5"}}
	g := newTestGallery(t, api)

	require.NoError(t, g.SetSearch(context.Background(), ""))

	snap := g.Snapshot()
	require.Len(t, snap.Agents, 1)
	assert.Equal(t, "Bot", snap.Agents[0].Name)
	assert.False(t, snap.HasMore)
	assert.False(t, snap.Loading)
	assert.False(t, snap.CanLoadMore())
	assert.False(t, snap.Empty())
	assert.ErrorIs(t, g.LoadMore(context.Background()), ErrLoadMoreUnavailable)
}

func TestOnlyValidAgentsAreKept(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = []domain.Agent{
		{ID: "ok", Name: "Good", MarketCap: "500", CumulativeETHVolume: "2"},
		{ID: "zero-cap", Name: "Zero", MarketCap: "0", CumulativeETHVolume: "2"},
		{ID: "no-name", Name: "  ", MarketCap: "400", CumulativeETHVolume: "2"},
		{ID: "no-vol", Name: "NoVol", MarketCap: "300"},
		{ID: "ok2", Name: "Fine", MarketCap: "200", CumulativeETHVolume: "0.01"},
	}
	g := newTestGallery(t, api)

	require.NoError(t, g.SetSearch(context.Background(), ""))

	snap := g.Snapshot()
	assert.Equal(t, []string{"ok", "ok2"}, ids(snap.Agents))
	for _, a := range snap.Agents {
		assert.True(t, a.Valid(), a.ID)
	}
	// Server reports 5, only 2 survived filtering.
	assert.True(t, snap.HasMore)
}

func TestPaginationAppendsAndHasMore(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("a", 70)
	g := newTestGallery(t, api)
	ctx := context.Background()

	require.NoError(t, g.SetSearch(ctx, ""))
	first := g.Snapshot()
	require.Len(t, first.Agents, 32)
	assert.Equal(t, 1, first.Page)
	assert.True(t, first.HasMore)

	require.NoError(t, g.LoadMore(ctx))
	second := g.Snapshot()
	require.Len(t, second.Agents, 64)
	assert.Equal(t, ids(first.Agents), ids(second.Agents[:32]), "load more must keep the existing prefix")
	assert.Equal(t, 2, second.Page)
	assert.True(t, second.HasMore)

	require.NoError(t, g.LoadMore(ctx))
	third := g.Snapshot()
	require.Len(t, third.Agents, 70)
	assert.Equal(t, ids(second.Agents), ids(third.Agents[:64]))
	assert.False(t, third.HasMore)
	assert.ErrorIs(t, g.LoadMore(ctx), ErrLoadMoreUnavailable)

	for i, req := range api.Requests() {
		assert.Equal(t, i+1, req.Page)
		assert.Equal(t, 32, req.Limit)
		assert.Equal(t, "marketCap", req.SortBy)
		assert.Equal(t, "desc", req.SortDirection)
	}
}

func TestSearchResetsToFirstPage(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = append(validAgents("alpha", 40), validAgents("beta", 50)...)
	g := newTestGallery(t, api)
	ctx := context.Background()

	require.NoError(t, g.SetSearch(ctx, ""))
	require.NoError(t, g.LoadMore(ctx))
	require.Len(t, g.Snapshot().Agents, 64)

	require.NoError(t, g.SetSearch(ctx, "beta"))
	snap := g.Snapshot()
	assert.Equal(t, "beta", snap.Search)
	assert.Equal(t, 1, snap.Page)
	assert.LessOrEqual(t, len(snap.Agents), 32)
	assert.Equal(t, ids(validAgents("beta", 32)), ids(snap.Agents))
	assert.True(t, snap.HasMore)

	reqs := api.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "beta", last.Search)
}

func TestEnrichmentAttachesDescriptions(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("e", 3)
	api.Metadata["e-0"] = domain.Agent{Description: "first"}
	api.Metadata["e-2"] = domain.Agent{Description: "third"}
	api.FailMetadata["e-1"] = http.StatusBadGateway
	g := newTestGallery(t, api)

	require.NoError(t, g.SetSearch(context.Background(), ""))

	snap := g.Snapshot()
	require.Len(t, snap.Agents, 3, "a failed enrichment keeps the agent")
	assert.Equal(t, "first", snap.Agents[0].Description)
	assert.Empty(t, snap.Agents[1].Description)
	assert.Equal(t, "third", snap.Agents[2].Description)
	assert.EqualValues(t, 3, api.MetadataCalls.Load())
}

func TestFailedFetchLeavesListUnchanged(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("f", 40)
	g := newTestGallery(t, api)
	ctx := context.Background()

	require.NoError(t, g.SetSearch(ctx, ""))
	before := g.Snapshot()

	api.SetFailList(http.StatusInternalServerError)
	err := g.LoadMore(ctx)
	require.Error(t, err)
	var se *creatorbid.StatusError
	assert.ErrorAs(t, err, &se)

	after := g.Snapshot()
	assert.Equal(t, ids(before.Agents), ids(after.Agents))
	assert.Equal(t, 1, after.Page, "page only advances when a load is applied")
	assert.False(t, after.Loading)
	assert.True(t, after.CanLoadMore())
}

func TestEmptyResult(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("x", 3)
	g := newTestGallery(t, api)

	assert.False(t, g.Snapshot().Empty(), "not empty before the first load")
	require.NoError(t, g.SetSearch(context.Background(), "nothing matches"))
	assert.True(t, g.Snapshot().Empty())
}

func TestLoadPageDirect(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("p", 40)
	g := newTestGallery(t, api)
	ctx := context.Background()

	require.NoError(t, g.LoadPage(ctx, 1, ""))
	require.NoError(t, g.LoadPage(ctx, 2, ""))
	snap := g.Snapshot()
	assert.Len(t, snap.Agents, 40)
	assert.False(t, snap.HasMore)

	require.NoError(t, g.LoadPage(ctx, 1, ""))
	assert.Len(t, g.Snapshot().Agents, 32, "page 1 replaces")
}

func TestOnChangeReportsLoading(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("c", 1)
	g := newTestGallery(t, api)

	var mu sync.Mutex
	var seen []Snapshot
	g.OnChange(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.NoError(t, g.SetSearch(context.Background(), ""))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.False(t, seen[1].Loading)
	assert.Len(t, seen[1].Agents, 1)
	assert.Equal(t, seen[0].Generation, seen[1].Generation)
}

// gatedSource answers "slow" searches only after release is closed,
// ignoring cancellation, to model a response that arrives late.
type gatedSource struct {
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) ListAgents(ctx context.Context, p creatorbid.ListParams) (domain.AgentPage, error) {
	if p.Search == "slow" {
		close(s.started)
		<-s.release
		return domain.AgentPage{Agents: validAgents("slow", 5), NumTotalAgents: 5}, nil
	}
	return domain.AgentPage{Agents: validAgents("fast", 2), NumTotalAgents: 2}, nil
}

func (s *gatedSource) Metadata(ctx context.Context, id string) (domain.Agent, error) {
	return domain.Agent{Description: "desc " + id}, nil
}

func TestStaleResultIsDropped(t *testing.T) {
	src := &gatedSource{started: make(chan struct{}), release: make(chan struct{})}
	g := New(src, Options{}, silent())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- g.SetSearch(ctx, "slow") }()
	<-src.started

	require.NoError(t, g.SetSearch(ctx, "fast"))
	close(src.release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stale load never returned")
	}

	snap := g.Snapshot()
	assert.Equal(t, "fast", snap.Search)
	assert.Equal(t, []string{"fast-0", "fast-1"}, ids(snap.Agents))
	assert.False(t, snap.Loading)
	assert.EqualValues(t, 2, snap.Generation)
}

type cancelAwareSource struct {
	started chan struct{}
}

func (s *cancelAwareSource) ListAgents(ctx context.Context, p creatorbid.ListParams) (domain.AgentPage, error) {
	if p.Search == "blocked" {
		close(s.started)
		<-ctx.Done()
		return domain.AgentPage{}, ctx.Err()
	}
	return domain.AgentPage{Agents: validAgents("next", 1), NumTotalAgents: 1}, nil
}

func (s *cancelAwareSource) Metadata(ctx context.Context, id string) (domain.Agent, error) {
	return domain.Agent{}, errors.New("no metadata")
}

func TestSetSearchCancelsInFlightLoad(t *testing.T) {
	src := &cancelAwareSource{started: make(chan struct{})}
	g := New(src, Options{}, silent())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- g.SetSearch(ctx, "blocked") }()
	<-src.started

	require.NoError(t, g.SetSearch(ctx, "next"))

	select {
	case err := <-done:
		assert.NoError(t, err, "a superseded load is not an error")
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight load was not cancelled")
	}

	snap := g.Snapshot()
	assert.Equal(t, []string{"next-0"}, ids(snap.Agents))
	assert.Empty(t, snap.Agents[0].Description)
}

func TestCloseCancelsLoad(t *testing.T) {
	src := &cancelAwareSource{started: make(chan struct{})}
	g := New(src, Options{}, silent())

	done := make(chan error, 1)
	go func() { done <- g.SetSearch(context.Background(), "blocked") }()
	<-src.started

	g.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not cancel the load")
	}
	assert.False(t, g.Snapshot().Loading)
}

func TestFailedFirstPageCanBeRetried(t *testing.T) {
	api := creatorbidtest.New()
	api.Agents = validAgents("r", 40)
	g := newTestGallery(t, api)
	ctx := context.Background()

	api.SetFailList(http.StatusBadGateway)
	require.Error(t, g.SetSearch(ctx, ""))

	snap := g.Snapshot()
	assert.False(t, snap.Ready)
	assert.True(t, snap.Failed)
	assert.False(t, snap.Loading)
	assert.False(t, snap.CanLoadMore(), "no next page without a first page")
	assert.ErrorIs(t, g.LoadMore(ctx), ErrLoadMoreUnavailable)
	require.Len(t, api.Requests(), 1, "load more must not skip ahead to page 2")

	api.SetFailList(0)
	require.NoError(t, g.SetSearch(ctx, ""))
	snap = g.Snapshot()
	assert.True(t, snap.Ready)
	assert.False(t, snap.Failed)
	assert.Len(t, snap.Agents, 32)
	assert.True(t, snap.CanLoadMore())
}

func TestMalformedRowOnlyDropsThatAgent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"agents":[
			{"_id":"1","name":"Good","marketCap":"10","cumulativeETHVolume":"1"},
			{"_id":"2","name":"Flag","marketCap":true,"cumulativeETHVolume":"1"},
			{"_id":"3","name":"Object","marketCap":"10","cumulativeETHVolume":{"v":1}},
			{"_id":"4","name":"Number","marketCap":25,"cumulativeETHVolume":0.5}
		],"numTotalAgents":4}`)
	}))
	t.Cleanup(srv.Close)

	g := New(creatorbid.New(creatorbid.Options{BaseURL: srv.URL}, silent()), Options{}, silent())
	require.NoError(t, g.SetSearch(context.Background(), ""))

	snap := g.Snapshot()
	assert.Equal(t, []string{"1", "4"}, ids(snap.Agents))
	assert.False(t, snap.Failed)
}

// recordingSource keeps every listing request and always reports more pages.
type recordingSource struct {
	mu   sync.Mutex
	reqs []creatorbid.ListParams
}

func (s *recordingSource) ListAgents(ctx context.Context, p creatorbid.ListParams) (domain.AgentPage, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, p)
	s.mu.Unlock()
	return domain.AgentPage{Agents: validAgents(p.Search, 2), NumTotalAgents: 1000}, nil
}

func (s *recordingSource) Metadata(ctx context.Context, id string) (domain.Agent, error) {
	return domain.Agent{}, nil
}

func TestLoadMoreNeverRunsAheadOfNewSearch(t *testing.T) {
	for i := 0; i < 50; i++ {
		src := &recordingSource{}
		g := New(src, Options{}, silent())
		ctx := context.Background()
		require.NoError(t, g.SetSearch(ctx, "old"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.SetSearch(ctx, "new")
		}()
		go func() {
			defer wg.Done()
			g.LoadMore(ctx)
		}()
		wg.Wait()

		src.mu.Lock()
		for _, r := range src.reqs {
			if r.Search == "new" {
				assert.Equal(t, 1, r.Page, "page %d requested for a search whose first page was not applied", r.Page)
			}
		}
		src.mu.Unlock()
		assert.False(t, g.Snapshot().Loading)
	}
}
