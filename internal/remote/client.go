// Package remote talks to a dufs directory-listing server: URL construction,
// directory listings in both response formats, size probes and recursive
// file collection.
package remote

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"

	"github.com/rescale/dufs-get/internal/logging"
)

// Client issues requests against one server. It holds no per-path state; every
// operation receives the remote path as a parameter.
type Client struct {
	base       ServerBase
	httpClient *nethttp.Client
	logger     *logging.Logger
}

// NewClient creates a client for base. A nil httpClient uses http.DefaultClient
// and a nil logger discards logs.
func NewClient(base ServerBase, httpClient *nethttp.Client, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = nethttp.DefaultClient
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		base:       base,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Base returns the server base URL.
func (c *Client) Base() ServerBase {
	return c.base
}

// Get issues a GET for rawURL and returns the response when the status is 2xx.
// On any other status the body is drained and a *StatusError returned.
// The caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL string) (*nethttp.Response, error) {
	return c.do(ctx, nethttp.MethodGet, rawURL)
}

func (c *Client) do(ctx context.Context, method, rawURL string) (*nethttp.Response, error) {
	req, err := nethttp.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &StatusError{
			Method:     method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return resp, nil
}
