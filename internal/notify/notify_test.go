package notify

import (
	"errors"
	"strings"
	"testing"
)

type sent struct {
	title, message string
}

func newRecordingNotifier(enabled bool, err error) (*Notifier, *[]sent) {
	var got []sent
	n := NewNotifier(enabled, nil)
	n.send = func(title, message string, icon interface{}) error {
		got = append(got, sent{title, message})
		return err
	}
	return n, &got
}

func TestFolderFinished(t *testing.T) {
	tests := []struct {
		name          string
		total, failed int
		title         string
		contains      string
	}{
		{"all ok", 3, 0, "Folder download complete", "3 file(s) saved to"},
		{"with failures", 3, 1, "Folder download finished with errors", "1 of 3 file(s) failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, got := newRecordingNotifier(true, nil)
			n.FolderFinished("/tmp/docs", tt.total, tt.failed)

			if len(*got) != 1 {
				t.Fatalf("sent %d notifications, want 1", len(*got))
			}
			if (*got)[0].title != tt.title {
				t.Errorf("title = %q, want %q", (*got)[0].title, tt.title)
			}
			if !strings.Contains((*got)[0].message, tt.contains) {
				t.Errorf("message %q does not contain %q", (*got)[0].message, tt.contains)
			}
		})
	}
}

func TestFolderFinishedDisabled(t *testing.T) {
	n, got := newRecordingNotifier(false, nil)
	n.FolderFinished("/tmp/docs", 1, 0)
	if len(*got) != 0 {
		t.Errorf("disabled notifier sent %v", *got)
	}

	var nilNotifier *Notifier
	nilNotifier.FolderFinished("/tmp/docs", 1, 0)
}

func TestFolderFinishedSendError(t *testing.T) {
	n, got := newRecordingNotifier(true, errors.New("no dbus"))
	n.FolderFinished("/tmp/docs", 1, 0)
	if len(*got) != 1 {
		t.Errorf("expected one attempt, got %d", len(*got))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
		}
	}
}

func TestShortenPath(t *testing.T) {
	short := "/short/path"
	if got := shortenPath(short); got != short {
		t.Errorf("shortenPath(%q) = %q", short, got)
	}

	long := "/a/very/long/path/that/exceeds/the/maximum/length/for/notification/display/docs"
	got := shortenPath(long)
	if len(got) >= len(long) || !strings.HasSuffix(got, "docs") {
		t.Errorf("shortenPath(%q) = %q", long, got)
	}
}
