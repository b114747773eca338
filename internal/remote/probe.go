package remote

import (
	"context"
	nethttp "net/http"

	"github.com/rescale/dufs-get/internal/constants"
)

// RemoteSize returns the size of the remote file reported by a HEAD request.
// ok is false when the size is unknown for any reason; a failed probe only
// disables skip-by-size and is never an error.
func (c *Client) RemoteSize(ctx context.Context, remotePath string) (size int64, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, constants.SizeProbeTimeout)
	defer cancel()

	rawURL := c.base.FileURL(remotePath)
	resp, err := c.do(ctx, nethttp.MethodHead, rawURL)
	if err != nil {
		c.logger.Debug().Err(err).Str("url", rawURL).Msg("Size probe failed")
		return 0, false
	}
	resp.Body.Close()

	// ContentLength is -1 when the header is absent or unparsable.
	if resp.ContentLength < 0 {
		return 0, false
	}
	return resp.ContentLength, true
}
