// Package session implements the interactive browse-and-download loop.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/remote"
	"github.com/rescale/dufs-get/internal/transfer"
	"github.com/rescale/dufs-get/internal/validation"
)

// ErrListing is returned by Run when the current directory cannot be listed.
var ErrListing = errors.New("failed to list directory")

// Lister lists a remote directory.
type Lister interface {
	List(ctx context.Context, remotePath string) ([]remote.Entry, error)
}

// FolderDownloader downloads a remote directory tree.
type FolderDownloader interface {
	DownloadFolder(ctx context.Context, remotePath, localBase string) (*transfer.FolderResult, error)
}

// Options configures a Session.
type Options struct {
	Lister  Lister
	Files   transfer.FileDownloader
	Folders FolderDownloader
	// SaveDir is where downloads land: files as SaveDir/<name>, folders as
	// SaveDir/<folder name>/...
	SaveDir string
	In      io.Reader // defaults to os.Stdin
	Out     io.Writer // defaults to os.Stdout
	Logger  *logging.Logger
	// Color enables coloured [dir]/[file] markers.
	Color bool
}

// Session holds the current remote directory and dispatches commands.
type Session struct {
	lister  Lister
	files   transfer.FileDownloader
	folders FolderDownloader
	saveDir string
	in      io.Reader
	out     io.Writer
	logger  *logging.Logger
	styles  styles
	current string
}

// New creates a session starting at the server root.
func New(opts Options) *Session {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Session{
		lister:  opts.Lister,
		files:   opts.Files,
		folders: opts.Folders,
		saveDir: opts.SaveDir,
		in:      opts.In,
		out:     opts.Out,
		logger:  opts.Logger,
		styles:  newStyles(opts.Color),
	}
}

// CurrentPath returns the current remote directory, "" for root.
func (s *Session) CurrentPath() string {
	return s.current
}

// Run lists the current directory, prompts and handles one command per
// iteration until the user quits, input ends or ctx is cancelled. Those all
// return nil; a failed listing returns an error wrapping ErrListing.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(s.in, done)

	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nBye!")
			return nil
		}

		s.renderHeader()
		entries, err := s.lister.List(ctx, s.current)
		if err != nil {
			fmt.Fprintf(s.out, "Failed to list: %v\n", err)
			return fmt.Errorf("%w /%s: %w", ErrListing, s.current, err)
		}
		s.renderEntries(entries)
		s.renderHelp()
		fmt.Fprint(s.out, "> ")

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nBye!")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out, "\nBye!")
				return nil
			}
			if s.Handle(ctx, line, entries) {
				return nil
			}
		}
	}
}

// readLines feeds lines from r into the returned channel, which is closed at
// end of input. The goroutine stops sending once done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// Handle applies one line of input to the session given the entries of the
// current directory. It returns true when the session should end.
func (s *Session) Handle(ctx context.Context, input string, entries []remote.Entry) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	switch strings.ToLower(input) {
	case "q", "quit", "exit":
		fmt.Fprintln(s.out, "Bye!")
		return true
	}

	if input == ".." || input == "cd .." {
		s.current = remote.ParentPath(s.current)
		return false
	}

	number, force := input, false
	if rest, ok := forcedNumber(input); ok {
		number, force = rest, true
	}

	if isDigits(number) {
		n, err := strconv.Atoi(number)
		if err != nil || n < 1 || n > len(entries) {
			fmt.Fprintln(s.out, "Invalid number")
			return false
		}
		s.open(ctx, entries[n-1], force)
		return false
	}

	for _, e := range entries {
		if e.Name == input {
			s.open(ctx, e, false)
			return false
		}
	}
	fmt.Fprintln(s.out, "Not found")
	return false
}

// forcedNumber recognizes "d<digits>", with any case for d and optional
// spaces before the digits, and returns the digits.
func forcedNumber(input string) (string, bool) {
	if len(input) < 2 || (input[0] != 'd' && input[0] != 'D') {
		return "", false
	}
	rest := strings.TrimSpace(input[1:])
	return rest, isDigits(rest)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// open navigates into a directory, or downloads the entry when it is a file
// or when force is set.
func (s *Session) open(ctx context.Context, e remote.Entry, force bool) {
	target := remote.JoinPath(s.current, e.Name)

	switch {
	case e.IsDir && !force:
		s.current = target
	case e.IsDir:
		s.logger.Debug().Str("path", target).Str("dir", s.saveDir).Msg("Downloading folder")
		if _, err := s.folders.DownloadFolder(ctx, target, s.saveDir); err != nil {
			fmt.Fprintf(s.out, "Download failed: %v\n", err)
		}
	default:
		s.downloadFile(ctx, target, e.Name)
	}
}

func (s *Session) downloadFile(ctx context.Context, target, name string) {
	if err := validation.ValidateFilename(name); err != nil {
		fmt.Fprintf(s.out, "Download failed: %v\n", err)
		return
	}
	localFile := filepath.Join(s.saveDir, name)

	outcome, err := s.files.Download(ctx, target, localFile)
	switch {
	case err != nil:
		s.logger.Debug().Err(err).Str("path", target).Msg("Download failed")
		fmt.Fprintf(s.out, "Download failed: %v\n", err)
	case !outcome.Success:
		fmt.Fprintf(s.out, "Download failed: %s\n", target)
	case outcome.Skipped:
		fmt.Fprintf(s.out, "Skipped (exists): %s\n", localFile)
	default:
		fmt.Fprintf(s.out, "Downloaded: %s\n", localFile)
	}
}
