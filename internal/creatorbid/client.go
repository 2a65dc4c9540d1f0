// Package creatorbid is a read-only client for the CreatorBid agents API.
package creatorbid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/agentgallery/internal/domain"
	"github.com/soyeahso/agentgallery/internal/logging"
	"github.com/soyeahso/agentgallery/internal/version"
)

const (
	DefaultBaseURL  = "https://creator.bid/api"
	DefaultPageSize = 32
	DefaultTimeout  = 15 * time.Second

	maxBodyBytes = 4 << 20
)

// ErrNotFound matches a 404 from any endpoint.
var ErrNotFound = errors.New("creatorbid: not found")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("creatorbid: %s returned HTTP %d", e.URL, e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	PageSize   int
	HTTPClient *http.Client
}

// Client talks to the CreatorBid API. It is safe for concurrent use.
type Client struct {
	baseURL  string
	pageSize int
	http     *http.Client
	log      *logging.Logger
}

// New creates a Client.
func New(opts Options, log *logging.Logger) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  base,
		pageSize: pageSize,
		http:     hc,
		log:      log.Sub("creatorbid"),
	}
}

// PageSize is the number of agents requested per listing page.
func (c *Client) PageSize() int { return c.pageSize }

// ListParams selects one page of the agent listing.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// ListAgents fetches one page of agents sorted by market cap, descending.
// A response without an agents array yields an empty page.
func (c *Client) ListAgents(ctx context.Context, p ListParams) (domain.AgentPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = c.pageSize
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("sortDirection", "desc")
	q.Set("sortBy", "marketCap")
	if p.Search != "" {
		q.Set("search", p.Search)
	}

	var page domain.AgentPage
	if err := c.getJSON(ctx, "/agents", q, &page); err != nil {
		return domain.AgentPage{}, fmt.Errorf("list agents page %d: %w", p.Page, err)
	}
	if page.Agents == nil {
		page.Agents = []domain.Agent{}
	}
	return page, nil
}

// Metadata fetches the full metadata for one agent.
func (c *Client) Metadata(ctx context.Context, id string) (domain.Agent, error) {
	var a domain.Agent
	if err := c.getJSON(ctx, "/agents/metadata", url.Values{"agentId": {id}}, &a); err != nil {
		return domain.Agent{}, fmt.Errorf("agent %s metadata: %w", id, err)
	}
	return a, nil
}

// Price fetches the current price. Both field shapes are returned.
func (c *Client) Price(ctx context.Context, id string) (domain.Price, error) {
	var p domain.Price
	if err := c.getJSON(ctx, "/agents/price", url.Values{"agentId": {id}}, &p); err != nil {
		return domain.Price{}, fmt.Errorf("agent %s price: %w", id, err)
	}
	return p, nil
}

// Members fetches the holder list of an agent.
func (c *Client) Members(ctx context.Context, id string) ([]domain.Member, error) {
	var list domain.MemberList
	if err := c.getJSON(ctx, "/agents/"+url.PathEscape(id)+"/members", nil, &list); err != nil {
		return nil, fmt.Errorf("agent %s members: %w", id, err)
	}
	if list.Members == nil {
		return []domain.Member{}, nil
	}
	return list.Members, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("path", path).Err(err).Dur("duration", time.Since(start)).Msg("request failed")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return &StatusError{StatusCode: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("response body exceeds %d bytes", maxBodyBytes)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
