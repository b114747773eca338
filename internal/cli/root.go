// Package cli provides the command-line interface for dufs-get.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rescale/dufs-get/internal/config"
	dufshttp "github.com/rescale/dufs-get/internal/http"
	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/notify"
	"github.com/rescale/dufs-get/internal/pathutil"
	"github.com/rescale/dufs-get/internal/remote"
	"github.com/rescale/dufs-get/internal/session"
	"github.com/rescale/dufs-get/internal/transfer"
	"github.com/rescale/dufs-get/internal/version"
)

// ErrCannotConnect is returned when the server root cannot be listed at
// startup. The message has already been printed when it is returned.
var ErrCannotConnect = errors.New("cannot connect to server")

// strategies builds the transfer strategy list for a client.
var strategies = transfer.DefaultStrategies

// flags holds the root command's flag values.
type flags struct {
	dir        string
	configPath string
	logFile    string
	verbose    bool
	debug      bool
	notify     bool
}

// NewRootCmd creates the dufs-get root command.
func NewRootCmd() *cobra.Command {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "dufs-get [url]",
		Short: "Browse and download from a dufs file server",
		Long: `dufs-get ` + version.Version + ` - Built: ` + version.BuildTime + `
Interactive download client for dufs directory-listing servers.

Browse directories by number or name, download single files or whole
folders. Files whose local size matches the remote size are skipped.

The server URL is taken from the argument, then $DUFS_URL, then the
config file, then http://localhost:6008.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f, args)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&f.debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Save directory (default: config download.dir, else the executable's directory)")
	rootCmd.Flags().BoolVar(&f.notify, "notify", false, "Desktop notification when a folder download finishes")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI with a context cancelled on SIGINT and SIGTERM.
func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				cancel()
			}
		}
	}()

	err := NewRootCmd().ExecuteContext(ctx)

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

func run(cmd *cobra.Command, f *flags, args []string) error {
	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()

	logger := logging.NewLogger(logging.Options{LogFile: f.logFile})
	defer logger.Close()
	if f.verbose || f.debug {
		logging.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	base, err := remote.Normalize(cfg.ResolveServerURL(arg))
	if err != nil {
		return err
	}

	saveDir, err := cfg.ResolveDownloadDir(f.dir)
	if err != nil {
		return err
	}
	if saveDir, err = pathutil.ResolveAbsolutePath(saveDir); err != nil {
		return fmt.Errorf("failed to resolve save directory: %w", err)
	}
	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}

	fmt.Fprintln(stdout, "Dufs download client")
	fmt.Fprintf(stdout, "Server: %s\n", base)
	fmt.Fprintf(stdout, "Save dir: %s\n", saveDir)
	fmt.Fprintln(stdout)

	client := remote.NewClient(base, dufshttp.NewClient(logger), logger)
	if _, err := client.List(ctx, ""); err != nil {
		fmt.Fprintf(stdout, "Cannot connect to server %s: %v\n", base, err)
		fmt.Fprintln(stdout, "Check server address, port and network connection")
		return fmt.Errorf("%w %s: %w", ErrCannotConnect, base, err)
	}

	notifyEnabled := cfg.Notify
	if cmd.Flags().Changed("notify") {
		notifyEnabled = f.notify
	}
	notifier := notify.NewNotifier(notifyEnabled, logger)

	files := transfer.NewDownloader(client,
		transfer.WithLogger(logger),
		transfer.WithStrategies(strategies(client, logger)...),
	)
	folders := transfer.NewFolderDownloader(client, files, transfer.FolderOptions{
		Out:    stdout,
		Logger: logger,
		OnComplete: func(r *transfer.FolderResult) {
			notifier.FolderFinished(r.TargetDir, r.Total, r.Failed)
		},
	})

	sess := session.New(session.Options{
		Lister:  client,
		Files:   files,
		Folders: folders,
		SaveDir: saveDir,
		In:      cmd.InOrStdin(),
		Out:     stdout,
		Logger:  logger,
		Color:   isTerminal(stdout) && !color.NoColor,
	})

	if err := sess.Run(ctx); err != nil {
		if errors.Is(err, session.ErrListing) {
			logger.Debug().Err(err).Msg("Session ended on listing failure")
			return nil
		}
		return err
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
