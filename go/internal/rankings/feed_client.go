package rankings

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// FeedPlayer is one entry of the external rankings feed.
type FeedPlayer struct {
	ExternalID string `json:"id"`
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	Position   string `json:"position"`
}

// FeedClient fetches rank sheets from the external rankings provider.
type FeedClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewFeedClient(baseURL string) *FeedClient {
	return &FeedClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
}

func (c *FeedClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *FeedClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// GetRankings fetches the current rank sheet for a tour.
func (c *FeedClient) GetRankings(tour string) ([]FeedPlayer, error) {
	body, err := c.get(fmt.Sprintf("/v1/rankings?tour=%s", url.QueryEscape(tour)))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings for tour %s: %w", tour, err)
	}

	var payload struct {
		Players []FeedPlayer `json:"players"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode rankings feed: %w", err)
	}
	return payload.Players, nil
}

func (c *FeedClient) get(endpoint string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return responseBody, nil
}
