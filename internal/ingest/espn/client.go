package espn

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// InjuriesURL is ESPN's league-wide injury report page
	InjuriesURL = "https://www.espn.com/nba/injuries"

	// UserAgent sent by both fetchers
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Fetcher returns the raw HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Client fetches pages with curl.
// ESPN rejects Go's HTTP client fingerprint but serves curl reliably.
type Client struct {
	timeoutSeconds int
	logger         zerolog.Logger
}

// NewClient creates a curl-backed client
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		timeoutSeconds: 15,
		logger:         logger.With().Str("fetcher", "curl").Logger(),
	}
}

// Fetch makes an HTTP GET request using curl
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, "curl", "-s", "-L", "--fail",
		"-m", fmt.Sprint(c.timeoutSeconds),
		"-A", UserAgent,
		url,
	)

	c.logger.Debug().Str("url", url).Msg("fetching page")

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("curl failed: %s (stderr: %s)", err, string(exitErr.Stderr))
		}
		return "", fmt.Errorf("curl execution failed: %w", err)
	}

	body := string(output)
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("empty response from %s", url)
	}

	c.logger.Debug().Int("bytes", len(body)).Msg("page fetched")
	return body, nil
}
