package constants

import (
	"time"
)

// Server defaults
const (
	// DefaultServerURL - server used when neither an argument, DUFS_URL nor the
	// config file names one
	DefaultServerURL = "http://localhost:6008"

	// ServerURLEnv - environment variable supplying the default server URL
	ServerURLEnv = "DUFS_URL"

	// DefaultFolderName - local folder name used when the root folder is downloaded
	DefaultFolderName = "download"
)

// Listing protocol query markers
const (
	// StructuredListingQuery - query marker for the JSON listing (?json)
	StructuredListingQuery = "json"

	// SimpleListingQuery - query marker for the newline-delimited listing (?simple)
	SimpleListingQuery = "simple"
)

// Request timeouts
const (
	// ListingTimeout - deadline for one directory listing request (30 seconds)
	ListingTimeout = 30 * time.Second

	// SizeProbeTimeout - deadline for the HEAD request used by skip-by-size (10 seconds)
	SizeProbeTimeout = 10 * time.Second

	// TransferIdleTimeout - the built-in transfer fails when no bytes arrive
	// for this long (60 seconds). It bounds stalls, not total transfer time.
	TransferIdleTimeout = 60 * time.Second
)

// Transfer buffers
const (
	// CopyBufferSize - read buffer for the built-in streamed copy (8 KiB)
	CopyBufferSize = 8 * 1024
)

// HTTP Client Timeouts
const (
	// HTTPIdleConnTimeout - how long to keep idle connections open (90 seconds)
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - timeout for TLS handshake (10 seconds)
	HTTPTLSHandshakeTimeout = 10 * time.Second

	// HTTPExpectContinueTimeout - timeout for 100-continue response (1 second)
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPDialTimeout - timeout for establishing connection (30 seconds)
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - keep-alive period for dialer (30 seconds)
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPMaxIdleConnsPerHost - one server, one request at a time; a couple of
	// idle connections cover listing + HEAD + GET reuse
	HTTPMaxIdleConnsPerHost = 4
)

// Log file rotation (--log-file)
const (
	// LogFileMaxSizeMB - rotate after this many megabytes
	LogFileMaxSizeMB = 10

	// LogFileMaxBackups - rotated files to keep
	LogFileMaxBackups = 5

	// LogFileMaxAgeDays - days to keep rotated files
	LogFileMaxAgeDays = 30
)
