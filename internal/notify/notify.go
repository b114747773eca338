// Package notify sends desktop notifications when folder downloads end.
// It uses github.com/gen2brain/beeep for cross-platform support.
package notify

import (
	"fmt"
	"path/filepath"

	"github.com/gen2brain/beeep"

	"github.com/rescale/dufs-get/internal/logging"
)

// sendFunc matches beeep.Notify.
type sendFunc func(title, message string, icon interface{}) error

// Notifier sends folder-completion notifications. The zero value is disabled.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
	send    sendFunc
}

// NewNotifier creates a notifier. A disabled notifier never calls beeep.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Notifier{
		logger:  logger,
		enabled: enabled,
		send:    beeep.Notify,
	}
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n != nil && n.enabled
}

// FolderFinished announces the end of a folder download of total files into
// dir, of which failed did not succeed.
func (n *Notifier) FolderFinished(dir string, total, failed int) {
	if !n.IsEnabled() {
		return
	}

	title := "Folder download complete"
	message := fmt.Sprintf("%d file(s) saved to:\n%s", total, shortenPath(dir))
	if failed > 0 {
		title = "Folder download finished with errors"
		message = fmt.Sprintf("%d of %d file(s) failed.\n%s", failed, total, shortenPath(dir))
	}

	if err := n.send(title, message, ""); err != nil {
		n.logger.Warn().Err(err).Str("dir", dir).Msg("Failed to send folder notification")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// shortenPath abbreviates a long path to ".../parent/name".
func shortenPath(path string) string {
	const maxLen = 60

	if len(path) <= maxLen {
		return path
	}

	short := filepath.Join("...", filepath.Base(filepath.Dir(path)), filepath.Base(path))
	if len(short) > maxLen {
		return truncate("..."+path[len(path)-(maxLen-3):], maxLen)
	}
	return short
}
