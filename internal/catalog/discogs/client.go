package discogs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"platter/internal/catalog"
	"platter/internal/config"
)

const folderPageSize = 100

// Client talks to the marketplace REST API.
type Client struct {
	baseURL string
	req     *catalog.Requester
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

// New creates a marketplace client from configuration.
func New(cfg config.Discogs, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("discogs base url required")
	}
	header := http.Header{}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		header.Set("Authorization", "Discogs token="+token)
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		baseURL: base,
		req: &catalog.Requester{
			Service:    "discogs",
			HTTPClient: &http.Client{Timeout: timeout},
			Limiter:    catalog.NewLimiter(float64(cfg.RequestsPerMinute) / 60),
			UserAgent:  cfg.UserAgent,
			Header:     header,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Folders lists the collection folders of a marketplace user.
func (c *Client) Folders(ctx context.Context, username string) ([]catalog.Folder, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("discogs username required")
	}
	var payload foldersResponse
	endpoint := fmt.Sprintf("%s/users/%s/collection/folders", c.baseURL, url.PathEscape(username))
	if err := c.req.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	out := make([]catalog.Folder, 0, len(payload.Folders))
	for _, f := range payload.Folders {
		out = append(out, catalog.Folder{
			ID:          f.ID,
			Name:        strings.TrimSpace(f.Name),
			Count:       f.Count,
			ResourceURL: f.ResourceURL,
		})
	}
	return out, nil
}

// FolderItems lists every release in a folder, following pagination, in the
// order the marketplace returns them.
func (c *Client) FolderItems(ctx context.Context, username string, folderID int64) ([]catalog.FolderItem, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("discogs username required")
	}
	var items []catalog.FolderItem
	for page := 1; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		params.Set("per_page", strconv.Itoa(folderPageSize))
		endpoint := fmt.Sprintf("%s/users/%s/collection/folders/%d/releases?%s",
			c.baseURL, url.PathEscape(username), folderID, params.Encode())

		var payload folderReleasesResponse
		if err := c.req.GetJSON(ctx, endpoint, &payload); err != nil {
			return nil, err
		}
		for _, r := range payload.Releases {
			id := r.ID
			if id == 0 {
				id = r.BasicInformation.ID
			}
			items = append(items, catalog.FolderItem{ReleaseID: id, Title: strings.TrimSpace(r.BasicInformation.Title)})
		}
		if payload.Pagination.Pages <= page || len(payload.Releases) == 0 {
			break
		}
	}
	return items, nil
}

// Release fetches one full release and adapts it to the canonical shape.
func (c *Client) Release(ctx context.Context, id int64) (*catalog.RawRelease, error) {
	var payload releaseResponse
	if err := c.req.GetJSON(ctx, fmt.Sprintf("%s/releases/%d", c.baseURL, id), &payload); err != nil {
		return nil, err
	}
	return payload.toRaw(), nil
}
