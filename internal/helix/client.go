// Package helix is a small Twitch Helix REST client covering the moderation
// endpoints the chat client needs: ban, unban, message deletion, and chat
// settings. Every call returns a Result so callers can distinguish network
// failures from server rejections without unwrapping errors.
package helix

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/theplebdev/tmichat/internal/constants"
	"github.com/theplebdev/tmichat/internal/logger"
)

const (
	networkErrorMessage = "Network Error! Please check your connection and try again"
)

// Credentials carries the OAuth token and application client id attached to
// every Helix request.
type Credentials struct {
	OAuthToken string
	ClientID   string
}

// Client is the pooled Helix HTTP client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      Credentials
	log        *logger.Logger
}

// NewClient creates a Helix Client with a shared pooled transport.
func NewClient(creds Credentials, log *logger.Logger) *Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   constants.DefaultHTTPTimeout,
		},
		baseURL: constants.HelixURL,
		creds:   creds,
		log:     log,
	}
}

// NewClientWithBaseURL creates a Client pointed at a custom base URL, used by
// tests against httptest servers.
func NewClientWithBaseURL(creds Credentials, baseURL string, log *logger.Logger) *Client {
	c := NewClient(creds, log)
	c.baseURL = baseURL
	return c
}

// do executes one Helix request and returns the response body and status. A
// transport-level error is distinct from a non-2xx response; callers map the
// two to different user-facing messages.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("building %s %s request: %w", method, path, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.creds.OAuthToken)
	req.Header.Set("Client-Id", c.creds.ClientID)
	req.Header.Set("User-Agent", constants.DefaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sending %s %s request: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	return respBody, resp.StatusCode, nil
}

// serverErrorMessage formats the user-facing message for a rejected request.
func serverErrorMessage(status int) string {
	return fmt.Sprintf("Error!, code: %d", status)
}

func statusOK(status int) bool {
	return status >= 200 && status < 300
}
