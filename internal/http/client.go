// Package http builds the HTTP client used to talk to the dufs server.
package http

import (
	"net"
	nethttp "net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/http2"

	"github.com/rescale/dufs-get/internal/constants"
	"github.com/rescale/dufs-get/internal/logging"
)

// NewTransport creates the transport shared by listing, HEAD and file requests.
//
// Proxy settings come from HTTP_PROXY, HTTPS_PROXY and NO_PROXY. One request is
// in flight at a time, so the idle pool is small.
func NewTransport() *nethttp.Transport {
	proxyFunc := httpproxy.FromEnvironment().ProxyFunc()

	tr := &nethttp.Transport{
		Proxy: func(req *nethttp.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		},
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		MaxIdleConns:          constants.HTTPMaxIdleConnsPerHost,
		MaxIdleConnsPerHost:   constants.HTTPMaxIdleConnsPerHost,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
		// Files are stored byte-for-byte; transparent gzip would break the
		// Content-Length comparison used by skip-by-size.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	_ = http2.ConfigureTransport(tr)

	return tr
}

// NewClient creates the HTTP client for dufs requests.
//
// The client goes through retryablehttp for its request hooks and leveled
// logging, but with RetryMax = 0: every request is attempted exactly once and
// non-2xx responses are handed back unchanged. There is no client-wide
// timeout; each operation sets its own deadline via context.
func NewClient(logger *logging.Logger) *nethttp.Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &nethttp.Client{Transport: NewTransport()}
	retryClient.RetryMax = 0
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &requestLogger{logger: logger}
	retryClient.ResponseLogHook = func(_ retryablehttp.Logger, resp *nethttp.Response) {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL.String()).
			Int("status", resp.StatusCode).
			Int64("content_length", resp.ContentLength).
			Msg("HTTP response")
	}

	return retryClient.StandardClient()
}

// requestLogger implements the retryablehttp.LeveledLogger interface on top of zerolog.
// Request failures are returned to and reported by the caller, so they only
// show up at debug level here.
type requestLogger struct {
	logger *logging.Logger
}

func (l *requestLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *requestLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *requestLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *requestLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}
