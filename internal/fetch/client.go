// FILE: internal/fetch/client.go
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://api.chess.com/pub"
	DefaultUserAgent = "chesspipe (PGN archive downloader)"
)

// Client downloads monthly PGN archives of a chess.com player
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Verbose    bool // log every request and response size
	limiter    *rate.Limiter
}

// New returns a client issuing at most rps requests per second
func New(baseURL string, rps float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: DefaultUserAgent,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	if c.Verbose {
		log.Printf("[API] GET %s", url)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}

	if c.Verbose {
		log.Printf("[%d %s] %d bytes", resp.StatusCode, http.StatusText(resp.StatusCode), len(body))
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request %s failed with status %d", url, resp.StatusCode)
	}
	return body, nil
}

type archivesResponse struct {
	Archives []string `json:"archives"`
}

// Archives lists the monthly archive URLs of username, oldest first
func (c *Client) Archives(ctx context.Context, username string) ([]string, error) {
	url := fmt.Sprintf("%s/player/%s/games/archives", c.BaseURL, strings.ToLower(username))
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	var resp archivesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse archive list: %w", err)
	}
	return resp.Archives, nil
}

// MonthPGN downloads one month as PGN text
func (c *Client) MonthPGN(ctx context.Context, archiveURL string) (string, error) {
	body, err := c.get(ctx, strings.TrimRight(archiveURL, "/")+"/pgn")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Download fetches every archive of username in [r.From, r.To], most recent
// month first, and joins the non-empty months into one archive
func (c *Client) Download(ctx context.Context, username string, r Range) (string, error) {
	archives, err := c.Archives(ctx, username)
	if err != nil {
		return "", err
	}

	selected := r.Filter(archives)
	var months []string
	for i := len(selected) - 1; i >= 0; i-- {
		url := selected[i]
		log.Printf("[%d/%d] Downloading %s", len(selected)-i, len(selected), Period(url))
		text, err := c.MonthPGN(ctx, url)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) != "" {
			months = append(months, strings.TrimRight(text, "\n"))
		}
	}

	if len(months) == 0 {
		return "", nil
	}
	return strings.Join(months, "\n\n") + "\n", nil
}
