package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rescale/dufs-get/internal/constants"
	"github.com/rescale/dufs-get/internal/diskspace"
	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/progress"
	"github.com/rescale/dufs-get/internal/remote"
)

// ErrIdleTimeout is returned by the built-in transfer when no data arrives
// within the idle timeout.
var ErrIdleTimeout = errors.New("transfer stalled")

// Strategy is one way of fetching a URL into a local file.
type Strategy interface {
	Name() string
	// Available reports whether the strategy can run on this machine.
	Available() bool
	// Fetch writes rawURL to localPath. ok is false with a nil error when the
	// tool ran and reported failure.
	Fetch(ctx context.Context, rawURL, localPath string) (ok bool, err error)
}

// LookPathFunc resolves an executable name, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// commandStrategy runs an external download tool.
type commandStrategy struct {
	name     string
	args     func(rawURL, localPath string) []string
	lookPath LookPathFunc
	stdout   io.Writer
	stderr   io.Writer
}

// NewWgetStrategy runs `wget --show-progress -O <local> <url>`.
// A nil lookPath uses exec.LookPath; tool output goes to stdout and stderr.
func NewWgetStrategy(lookPath LookPathFunc, stdout, stderr io.Writer) Strategy {
	return newCommandStrategy("wget", func(rawURL, localPath string) []string {
		return []string{"--show-progress", "-O", localPath, rawURL}
	}, lookPath, stdout, stderr)
}

// NewCurlStrategy runs `curl -# -f -L -o <local> <url>`.
func NewCurlStrategy(lookPath LookPathFunc, stdout, stderr io.Writer) Strategy {
	return newCommandStrategy("curl", func(rawURL, localPath string) []string {
		return []string{"-#", "-f", "-L", "-o", localPath, rawURL}
	}, lookPath, stdout, stderr)
}

func newCommandStrategy(name string, args func(string, string) []string, lookPath LookPathFunc, stdout, stderr io.Writer) *commandStrategy {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &commandStrategy{
		name:     name,
		args:     args,
		lookPath: lookPath,
		stdout:   stdout,
		stderr:   stderr,
	}
}

func (s *commandStrategy) Name() string {
	return s.name
}

func (s *commandStrategy) Available() bool {
	_, err := s.lookPath(s.name)
	return err == nil
}

func (s *commandStrategy) Fetch(ctx context.Context, rawURL, localPath string) (bool, error) {
	bin, err := s.lookPath(s.name)
	if err != nil {
		return false, fmt.Errorf("%s not found: %w", s.name, err)
	}

	cmd := exec.CommandContext(ctx, bin, s.args(rawURL, localPath)...)
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr

	err = cmd.Run()
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to run %s: %w", s.name, err)
	}
	return true, nil
}

// builtinStrategy streams the response body to disk. It is always available.
type builtinStrategy struct {
	client      *remote.Client
	idleTimeout time.Duration
	newReporter func() progress.Reporter
	logger      *logging.Logger
}

// NewBuiltinStrategy streams with client's HTTP client. newReporter builds
// one progress reporter per transfer; nil picks progress.ForTerminal.
func NewBuiltinStrategy(client *remote.Client, newReporter func() progress.Reporter, logger *logging.Logger) Strategy {
	if newReporter == nil {
		newReporter = progress.ForTerminal
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &builtinStrategy{
		client:      client,
		idleTimeout: constants.TransferIdleTimeout,
		newReporter: newReporter,
		logger:      logger,
	}
}

func (s *builtinStrategy) Name() string {
	return "builtin"
}

func (s *builtinStrategy) Available() bool {
	return true
}

func (s *builtinStrategy) Fetch(parent context.Context, rawURL, localPath string) (bool, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var stalled atomic.Bool
	idle := time.AfterFunc(s.idleTimeout, func() {
		stalled.Store(true)
		cancel()
	})
	defer idle.Stop()

	written, err := s.copy(ctx, rawURL, localPath, func() { idle.Reset(s.idleTimeout) })
	if err != nil {
		if parent.Err() != nil {
			return false, parent.Err()
		}
		if stalled.Load() {
			err = fmt.Errorf("%w: no data for %s from %s", ErrIdleTimeout, s.idleTimeout, rawURL)
		}
		return false, err
	}

	s.logger.Debug().
		Str("url", rawURL).
		Int64("bytes", written).
		Str("size", progress.FormatBytes(written)).
		Msg("Transfer complete")
	return true, nil
}

func (s *builtinStrategy) copy(ctx context.Context, rawURL, localPath string, touch func()) (int64, error) {
	resp, err := s.client.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	touch()

	if err := diskspace.CheckAvailableSpace(localPath, resp.ContentLength); err != nil {
		return 0, err
	}

	f, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	reporter := s.newReporter()
	reporter.Start(resp.ContentLength, filepath.Base(localPath))

	dst := progress.NewProgressWriter(f, reporter)
	src := &touchReader{r: resp.Body, touch: touch}
	buf := make([]byte, constants.CopyBufferSize)

	_, err = io.CopyBuffer(dst, src, buf)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", localPath, closeErr)
	}
	if err != nil {
		reporter.Error(err)
		return dst.Written(), fmt.Errorf("failed to download %s: %w", rawURL, err)
	}

	reporter.Finish()
	return dst.Written(), nil
}

// touchReader calls touch after every read that returned data.
type touchReader struct {
	r     io.Reader
	touch func()
}

func (t *touchReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if n > 0 {
		t.touch()
	}
	return n, err
}

// DefaultStrategies returns wget, curl and the built-in transfer, in that
// order of preference.
func DefaultStrategies(client *remote.Client, logger *logging.Logger) []Strategy {
	return []Strategy{
		NewWgetStrategy(nil, nil, nil),
		NewCurlStrategy(nil, nil, nil),
		NewBuiltinStrategy(client, nil, logger),
	}
}
