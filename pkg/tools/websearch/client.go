package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultEndpoint  = "https://api.duckduckgo.com/"
	defaultResults   = 3
	defaultCacheTTL  = 15 * time.Minute
	cacheKeyPrefix   = "websearch:"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type searchResult struct {
	Title   string
	Link    string
	Snippet string
}

// Client answers external-knowledge questions through the DuckDuckGo
// Instant Answer API. Like the backend tool, Search returns a descriptive
// string on every path so the caller can feed it straight into the prompt.
//
// Results are cached in redis when a client is provided; caching is best
// effort and a dead redis never blocks a search.
type Client struct {
	endpoint   string
	client     *http.Client
	redis      *redis.Client
	cacheTTL   time.Duration
	maxResults int
	logger     *log.Logger
}

func NewClient(endpoint string, redisClient *redis.Client, logger *log.Logger) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	logger.Printf("[WebSearch] Initialized with endpoint: %s", endpoint)
	return &Client{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 10 * time.Second},
		redis:      redisClient,
		cacheTTL:   defaultCacheTTL,
		maxResults: defaultResults,
		logger:     logger,
	}
}

// Search runs the query and formats results for prompt context.
func (c *Client) Search(ctx context.Context, query string) string {
	cacheKey := cacheKeyPrefix + query

	if c.redis != nil {
		if cached, err := c.redis.Get(ctx, cacheKey).Result(); err == nil {
			c.logger.Printf("[WebSearch] Cache hit for: %s", query)
			return cached
		}
	}

	c.logger.Printf("[WebSearch] Searching for: %s", query)
	results, err := c.search(ctx, query)
	if err != nil {
		c.logger.Printf("[WebSearch] Error: %v", err)
		return fmt.Sprintf("Error performing web search: %v", err)
	}
	if len(results) == 0 {
		return "No web results found."
	}

	formatted := make([]string, len(results))
	for i, r := range results {
		formatted[i] = fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s\n", r.Title, r.Link, r.Snippet)
	}
	summary := strings.Join(formatted, "\n---\n")

	if c.redis != nil {
		if err := c.redis.Set(ctx, cacheKey, summary, c.cacheTTL).Err(); err != nil {
			c.logger.Printf("[WebSearch] Cache write failed: %v", err)
		}
	}
	return summary
}

func (c *Client) search(ctx context.Context, query string) ([]searchResult, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duckduckgo api returned status %d", resp.StatusCode)
	}

	var ddgResp struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ddgResp); err != nil {
		return nil, err
	}

	var results []searchResult
	if ddgResp.AbstractText != "" {
		results = append(results, searchResult{
			Title:   ddgResp.Heading,
			Link:    ddgResp.AbstractURL,
			Snippet: ddgResp.AbstractText,
		})
	}
	for _, topic := range ddgResp.RelatedTopics {
		if len(results) >= c.maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, searchResult{
			Title:   topicTitle(topic.Text),
			Link:    topic.FirstURL,
			Snippet: topic.Text,
		})
	}
	return results, nil
}

// topicTitle takes the leading clause of a related-topic blurb as its title.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	if len(text) > 60 {
		return text[:60]
	}
	return text
}
