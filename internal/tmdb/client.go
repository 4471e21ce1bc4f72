// Package tmdb is a thin proxy client for The Movie Database API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const baseURL = "https://api.themoviedb.org/3"

// ErrNoAPIKey means the server was started without TMDB_API_KEY.
var ErrNoAPIKey = errors.New("TMDB API key not configured")

// Client fetches metadata from TMDB. Responses are cached in an LRU since
// lookups repeat heavily while a user browses seasons of the same show.
type Client struct {
	apiKey     string
	httpClient *http.Client
	cache      *lru.Cache[string, json.RawMessage]
}

func NewClient(apiKey string) *Client {
	cache, _ := lru.New[string, json.RawMessage](256)
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
	}
}

// SearchMulti searches movies and TV shows in one call.
func (c *Client) SearchMulti(ctx context.Context, query string) (json.RawMessage, error) {
	return c.get(ctx, "/search/multi", url.Values{"query": {query}})
}

// TVDetails returns show-level metadata for a TMDB TV id.
func (c *Client) TVDetails(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/tv/"+url.PathEscape(id), nil)
}

// TVSeason returns episode metadata for one season of a show.
func (c *Client) TVSeason(ctx context.Context, id, season string) (json.RawMessage, error) {
	return c.get(ctx, "/tv/"+url.PathEscape(id)+"/season/"+url.PathEscape(season), nil)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	if params == nil {
		params = url.Values{}
	}
	cacheKey := path + "?" + params.Encode()
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, nil
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb returned %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, errors.New("tmdb returned invalid JSON")
	}

	c.cache.Add(cacheKey, json.RawMessage(body))
	return json.RawMessage(body), nil
}
