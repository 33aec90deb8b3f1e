// Package provider is the HTTP client for the external music search
// service. The upstream is unofficial and unreliable: it may return empty
// result sets, wrong-kind items, or fail outright. Callers treat every
// call as possibly-failing.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"AutoQFM/logger"
)

// Kind restricts a search to one item kind.
type Kind string

const (
	KindAny   Kind = ""
	KindSong  Kind = "song"
	KindAlbum Kind = "album"
)

// RawResult is one record as returned by the search provider, before any
// validation or mapping to model.Track.
type RawResult struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     string  `json:"album,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	VideoID   string  `json:"videoId,omitempty"`
	Kind      string  `json:"kind,omitempty"` // song, video, album, playlist, ...
}

// Client talks to the search provider API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type searchResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg,omitempty"`
	Result struct {
		Items []RawResult `json:"items"`
		Total int         `json:"total"`
	} `json:"result"`
}

// Search queries the provider. An empty kind runs a broad, untyped search.
func (c *Client) Search(ctx context.Context, query string, kind Kind, limit int) ([]RawResult, error) {
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("keywords", query)
	params.Set("limit", fmt.Sprintf("%d", limit))
	if kind != KindAny {
		params.Set("type", string(kind))
	}

	items, err := c.getItems(ctx, fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	logger.Debug("provider search completed",
		logger.String("query", query),
		logger.String("kind", string(kind)),
		logger.Int("results", len(items)))
	return items, nil
}

// GetPlaylist fetches the tracks of a provider playlist.
func (c *Client) GetPlaylist(ctx context.Context, id string) ([]RawResult, error) {
	items, err := c.getItems(ctx, fmt.Sprintf("%s/playlist/detail?id=%s", c.baseURL, url.QueryEscape(id)))
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", id, err)
	}
	return items, nil
}

// GetAlbum fetches the tracks of a provider album.
func (c *Client) GetAlbum(ctx context.Context, id string) ([]RawResult, error) {
	items, err := c.getItems(ctx, fmt.Sprintf("%s/album?id=%s", c.baseURL, url.QueryEscape(id)))
	if err != nil {
		return nil, fmt.Errorf("album %s: %w", id, err)
	}
	return items, nil
}

func (c *Client) getItems(ctx context.Context, requestURL string) ([]RawResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Code != 0 && parsed.Code != 200 {
		return nil, fmt.Errorf("provider error: %s (code %d)", parsed.Msg, parsed.Code)
	}

	return parsed.Result.Items, nil
}
