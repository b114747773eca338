// Package transfer downloads single files and whole folders from a dufs
// server into the local filesystem.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/remote"
)

// ErrNoStrategy is returned when no transfer strategy is available.
var ErrNoStrategy = errors.New("no transfer strategy available")

// Outcome reports what a single file download did. Skipped implies Success.
type Outcome struct {
	Success bool
	Skipped bool
}

// Downloader fetches one remote file at a time, skipping files whose local
// size already matches the remote size.
type Downloader struct {
	client     *remote.Client
	strategies []Strategy
	logger     *logging.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithStrategies replaces the default strategy list. The first available
// strategy is used for every download.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Downloader) {
		d.strategies = strategies
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// NewDownloader creates a downloader for client. Without WithStrategies it
// tries wget, then curl, then the built-in transfer.
func NewDownloader(client *remote.Client, opts ...Option) *Downloader {
	d := &Downloader{
		client: client,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.strategies == nil {
		d.strategies = DefaultStrategies(client, d.logger)
	}
	return d
}

// Download fetches remotePath into localPath, creating parent directories.
// An existing regular file whose size equals the remote size is left alone
// and reported as skipped without requesting its content.
func (d *Downloader) Download(ctx context.Context, remotePath, localPath string) (Outcome, error) {
	absPath, err := filepath.Abs(localPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to resolve %s: %w", localPath, err)
	}
	localPath = absPath
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return Outcome{}, fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}

	if info, err := os.Stat(localPath); err == nil && info.Mode().IsRegular() {
		if size, ok := d.client.RemoteSize(ctx, remotePath); ok && size == info.Size() {
			d.logger.Debug().Str("path", remotePath).Int64("bytes", size).Msg("Local file matches remote size, skipping")
			return Outcome{Success: true, Skipped: true}, nil
		}
	}

	rawURL := d.client.Base().FileURL(remotePath)
	for _, s := range d.strategies {
		if !s.Available() {
			continue
		}
		d.logger.Debug().Str("strategy", s.Name()).Str("url", rawURL).Str("path", localPath).Msg("Downloading")
		ok, err := s.Fetch(ctx, rawURL, localPath)
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			d.logger.Debug().Str("strategy", s.Name()).Str("url", rawURL).Msg("Download tool reported failure")
		}
		return Outcome{Success: ok}, nil
	}

	return Outcome{}, ErrNoStrategy
}
