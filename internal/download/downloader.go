package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client downloads files over HTTP
type Client struct {
	httpClient *http.Client
}

// Config contains downloader configuration
type Config struct {
	Timeout time.Duration
}

// NewClient creates a downloader with sane transport limits
func NewClient(config Config) *Client {
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Download streams the body of url into a new file at dest. The partial
// file is removed when the transfer fails so callers never see truncated
// downloads.
func (c *Client) Download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download HTTP error %d for %s", resp.StatusCode, url)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create download target %s: %w", dest, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("failed to stream download to %s: %w", dest, err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to finalize download %s: %w", dest, err)
	}

	return nil
}
