// Package creatorbidtest provides an in-memory CreatorBid API for tests.
package creatorbidtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/soyeahso/agentgallery/internal/domain"
)

// ListRequest records the query of one /agents call.
type ListRequest struct {
	Page          int
	Limit         int
	Search        string
	SortBy        string
	SortDirection string
}

// API serves the agents endpoints from in-memory fixtures.
//
// Agents are filtered by a case-insensitive substring match on Name when a
// search is given and paginated by page/limit. Total overrides the reported
// numTotalAgents when non-negative.
type API struct {
	mu sync.Mutex

	Agents   []domain.Agent
	Metadata map[string]domain.Agent
	Prices   map[string]domain.Price
	Members  map[string][]domain.Member
	Total    int

	// FailList makes /agents return this status when non-zero.
	FailList int
	// FailMetadata and FailPrice hold per-id statuses to return instead.
	FailMetadata map[string]int
	FailPrice    map[string]int

	// BeforeList, if set, runs before an /agents response is written.
	BeforeList func(ListRequest)

	Lists         []ListRequest
	MetadataCalls atomic.Int64
	UserAgents    []string
}

// New returns an empty API reporting the real total.
func New() *API {
	return &API{
		Metadata:     map[string]domain.Agent{},
		Prices:       map[string]domain.Price{},
		Members:      map[string][]domain.Member{},
		FailMetadata: map[string]int{},
		FailPrice:    map[string]int{},
		Total:        -1,
	}
}

// Start serves the API on an httptest server closed at test cleanup.
func (a *API) Start(t interface{ Cleanup(func()) }) *httptest.Server {
	srv := httptest.NewServer(a)
	t.Cleanup(srv.Close)
	return srv
}

// Requests returns a copy of the recorded listing calls.
func (a *API) Requests() []ListRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]ListRequest(nil), a.Lists...)
}

// SetFailList changes the /agents failure status while the server runs.
func (a *API) SetFailList(status int) {
	a.mu.Lock()
	a.FailList = status
	a.mu.Unlock()
}

// SeenUserAgents returns the User-Agent of every request so far.
func (a *API) SeenUserAgents() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.UserAgents...)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.UserAgents = append(a.UserAgents, r.UserAgent())
	a.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api")
	switch {
	case path == "/agents":
		a.list(w, r)
	case path == "/agents/metadata":
		a.metadata(w, r)
	case path == "/agents/price":
		a.price(w, r)
	case strings.HasPrefix(path, "/agents/") && strings.HasSuffix(path, "/members"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/agents/"), "/members")
		a.members(w, id)
	default:
		http.NotFound(w, r)
	}
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListRequest{
		Search:        q.Get("search"),
		SortBy:        q.Get("sortBy"),
		SortDirection: q.Get("sortDirection"),
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.Limit, _ = strconv.Atoi(q.Get("limit"))

	a.mu.Lock()
	a.Lists = append(a.Lists, req)
	hook := a.BeforeList
	fail := a.FailList
	a.mu.Unlock()

	if hook != nil {
		hook(req)
	}
	if fail != 0 {
		w.WriteHeader(fail)
		return
	}

	a.mu.Lock()
	var matched []domain.Agent
	for _, ag := range a.Agents {
		if req.Search == "" || strings.Contains(strings.ToLower(ag.Name), strings.ToLower(req.Search)) {
			matched = append(matched, ag)
		}
	}
	total := len(matched)
	if a.Total >= 0 {
		total = a.Total
	}
	a.mu.Unlock()

	limit := req.Limit
	if limit <= 0 {
		limit = 32
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, map[string]any{
		"agents":         matched[start:end],
		"numTotalAgents": total,
	})
}

func (a *API) metadata(w http.ResponseWriter, r *http.Request) {
	a.MetadataCalls.Add(1)
	id := r.URL.Query().Get("agentId")

	a.mu.Lock()
	status := a.FailMetadata[id]
	meta, ok := a.Metadata[id]
	a.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, meta)
}

func (a *API) price(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("agentId")

	a.mu.Lock()
	status := a.FailPrice[id]
	p, ok := a.Prices[id]
	a.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, p)
}

func (a *API) members(w http.ResponseWriter, id string) {
	a.mu.Lock()
	m, ok := a.Members[id]
	a.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, domain.MemberList{Members: m})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
