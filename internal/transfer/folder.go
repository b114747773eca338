package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rescale/dufs-get/internal/constants"
	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/remote"
	"github.com/rescale/dufs-get/internal/validation"
)

// Collector lists every file below a remote directory.
type Collector interface {
	Collect(ctx context.Context, remotePath string) ([]string, error)
}

// FileDownloader fetches a single remote file.
type FileDownloader interface {
	Download(ctx context.Context, remotePath, localPath string) (Outcome, error)
}

// FileError records one file that could not be downloaded.
type FileError struct {
	RemotePath string
	Err        error // nil when the download tool reported failure
}

// FolderResult tallies a folder download.
type FolderResult struct {
	TargetDir  string
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
	Errors     []FileError
}

// FolderOptions configures a FolderDownloader.
type FolderOptions struct {
	// Out receives the per-file report. Defaults to os.Stdout.
	Out    io.Writer
	Logger *logging.Logger
	// OnComplete, when set, is called with the result of every folder download
	// that ran to the end without being cancelled.
	OnComplete func(*FolderResult)
}

// FolderDownloader downloads every file below a remote directory, one at a
// time, reporting each file as it finishes.
type FolderDownloader struct {
	collector  Collector
	files      FileDownloader
	out        io.Writer
	logger     *logging.Logger
	onComplete func(*FolderResult)
}

// NewFolderDownloader creates a folder downloader.
func NewFolderDownloader(collector Collector, files FileDownloader, opts FolderOptions) *FolderDownloader {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &FolderDownloader{
		collector:  collector,
		files:      files,
		out:        opts.Out,
		logger:     opts.Logger,
		onComplete: opts.OnComplete,
	}
}

// DownloadFolder downloads remotePath into localBase/<last segment of
// remotePath>, or localBase/download for the root, keeping the remote
// layout. A failed file is reported and counted; it does not stop the
// others. Only a collection failure or cancellation returns an error.
func (f *FolderDownloader) DownloadFolder(ctx context.Context, remotePath, localBase string) (*FolderResult, error) {
	files, err := f.collector.Collect(ctx, remotePath)
	if err != nil {
		return nil, fmt.Errorf("failed to collect files under /%s: %w", remotePath, err)
	}

	folderName := remote.BaseName(remotePath)
	if folderName == "" {
		folderName = constants.DefaultFolderName
	}
	result := &FolderResult{
		TargetDir: filepath.Join(localBase, folderName),
		Total:     len(files),
	}
	prefix := strings.Trim(remotePath, "/") + "/"

	fmt.Fprintf(f.out, "Downloading %d file(s) to %s\n", len(files), result.TargetDir)

	for _, filePath := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rel := filePath
		if strings.HasPrefix(filePath, prefix) {
			rel = filePath[len(prefix):]
		}

		outcome, err := f.downloadOne(ctx, result.TargetDir, filePath, rel)
		switch {
		case err != nil:
			fmt.Fprintf(f.out, "  ✗ failed: %s: %v\n", filePath, err)
			f.fail(result, filePath, err)
		case !outcome.Success:
			fmt.Fprintf(f.out, "  ✗ failed: %s\n", filePath)
			f.fail(result, filePath, nil)
		case outcome.Skipped:
			fmt.Fprintf(f.out, "  ⊙ skipped (exists): %s\n", remote.BaseName(rel))
			result.Skipped++
		default:
			fmt.Fprintf(f.out, "  ✓: %s\n", remote.BaseName(rel))
			result.Downloaded++
		}
	}

	f.logger.Info().
		Str("dir", result.TargetDir).
		Int("downloaded", result.Downloaded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("Folder download finished")

	if f.onComplete != nil {
		f.onComplete(result)
	}
	return result, nil
}

func (f *FolderDownloader) downloadOne(ctx context.Context, targetDir, filePath, rel string) (Outcome, error) {
	localFile, err := validation.LocalPath(targetDir, rel)
	if err != nil {
		return Outcome{}, err
	}
	return f.files.Download(ctx, filePath, localFile)
}

func (f *FolderDownloader) fail(result *FolderResult, filePath string, err error) {
	result.Failed++
	result.Errors = append(result.Errors, FileError{RemotePath: filePath, Err: err})
	f.logger.Debug().Err(err).Str("path", filePath).Msg("File download failed")
}
