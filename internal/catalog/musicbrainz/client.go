package musicbrainz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"platter/internal/catalog"
	"platter/internal/config"
	"platter/internal/services"
)

const searchLimit = 25

// Client talks to the metadata catalog web service.
type Client struct {
	baseURL string
	req     *catalog.Requester
	cache   *lru.Cache[string, *catalog.SecondRelease]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.req.HTTPClient = client
		}
	}
}

// WithoutRateLimit disables request throttling, for tests against local fakes.
func WithoutRateLimit() Option {
	return func(c *Client) {
		c.req.Limiter = catalog.NewLimiter(0)
	}
}

// New creates a metadata catalog client from configuration.
func New(cfg config.MusicBrainz, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	agent := strings.TrimSpace(cfg.UserAgent)
	if agent == "" {
		return nil, services.Wrap(services.ErrConfiguration, "musicbrainz", "new client", "user agent required", nil)
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, *catalog.SecondRelease](size)
	if err != nil {
		return nil, fmt.Errorf("create release cache: %w", err)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		baseURL: base,
		cache:   cache,
		req: &catalog.Requester{
			Service:    "musicbrainz",
			HTTPClient: &http.Client{Timeout: timeout},
			Limiter:    catalog.NewLimiter(cfg.RequestsPerSecond),
			UserAgent:  agent,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ReleasesForURL returns the ids of releases that declare a relation to
// resource, in the order the catalog lists them. An unknown URL yields no ids.
func (c *Client) ReleasesForURL(ctx context.Context, resource string) ([]string, error) {
	params := url.Values{}
	params.Set("resource", resource)
	params.Set("inc", "release-rels")
	params.Set("fmt", "json")

	var payload urlResponse
	err := c.req.GetJSON(ctx, c.baseURL+"/url?"+params.Encode(), &payload)
	if errors.Is(err, services.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	seen := make(map[string]struct{})
	for _, rel := range payload.Relations {
		if rel.Release == nil || rel.Release.ID == "" {
			continue
		}
		if _, dup := seen[rel.Release.ID]; dup {
			continue
		}
		seen[rel.Release.ID] = struct{}{}
		ids = append(ids, rel.Release.ID)
	}
	return ids, nil
}

// Search runs a non-strict attribute search and returns scored candidates in
// catalog order.
func (c *Client) Search(ctx context.Context, q catalog.SearchQuery) ([]catalog.Candidate, error) {
	query := buildQuery(q)
	if query == "" {
		return nil, errors.New("search query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(searchLimit))
	params.Set("fmt", "json")

	var payload searchResponse
	if err := c.req.GetJSON(ctx, c.baseURL+"/release?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	out := make([]catalog.Candidate, 0, len(payload.Releases))
	for _, r := range payload.Releases {
		out = append(out, r.toCandidate())
	}
	return out, nil
}

// Release fetches a release with its recordings, normalized. Results are cached.
func (c *Client) Release(ctx context.Context, id string) (*catalog.SecondRelease, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("release id required")
	}
	if cached, ok := c.cache.Get(id); ok {
		return cached, nil
	}
	params := url.Values{}
	params.Set("inc", "recordings")
	params.Set("fmt", "json")

	var payload releaseResponse
	if err := c.req.GetJSON(ctx, c.baseURL+"/release/"+url.PathEscape(id)+"?"+params.Encode(), &payload); err != nil {
		return nil, err
	}
	release := payload.normalize()
	c.cache.Add(id, release)
	return release, nil
}

// buildQuery joins the non-empty search terms without AND, matching the
// catalog's non-strict search mode.
func buildQuery(q catalog.SearchQuery) string {
	var terms []string
	if title := strings.TrimSpace(q.Title); title != "" {
		terms = append(terms, fmt.Sprintf("release:(%s)", escapeLucene(title)))
	}
	if artist := strings.TrimSpace(q.Artist); artist != "" {
		terms = append(terms, fmt.Sprintf("artist:(%s)", escapeLucene(artist)))
	}
	if q.Year > 0 {
		terms = append(terms, "date:"+strconv.Itoa(q.Year))
	}
	if q.Mediums > 0 {
		terms = append(terms, "mediums:"+strconv.Itoa(q.Mediums))
	}
	if q.Tracks > 0 {
		terms = append(terms, "tracks:"+strconv.Itoa(q.Tracks))
	}
	return strings.Join(terms, " ")
}

var luceneEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `&`, `\&`, `|`, `\|`, `!`, `\!`, `(`, `\(`, `)`, `\)`,
	`{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`, `"`, `\"`, `~`, `\~`, `*`, `\*`,
	`?`, `\?`, `:`, `\:`, `/`, `\/`,
)

func escapeLucene(s string) string {
	return luceneEscaper.Replace(s)
}
