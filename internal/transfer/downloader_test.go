package transfer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rescale/dufs-get/internal/progress"
	"github.com/rescale/dufs-get/internal/remote"
	"github.com/rescale/dufs-get/internal/remote/remotetest"
)

func newTestServer(t *testing.T, files []remotetest.File) (*remote.Client, *remotetest.Server) {
	t.Helper()
	srv := remotetest.NewServer(t, files)
	return remote.NewClient(remote.ServerBase(srv.URL), srv.Client(), nil), srv
}

func newBuiltinDownloader(client *remote.Client) *Downloader {
	builtin := NewBuiltinStrategy(client, func() progress.Reporter { return progress.NewNoOpProgress() }, nil)
	return NewDownloader(client, WithStrategies(builtin))
}

func TestDownloadFetchesFile(t *testing.T) {
	client, srv := newTestServer(t, []remotetest.File{{Path: "pub/a.bin", Content: "hello world"}})
	local := filepath.Join(t.TempDir(), "nested", "dir", "a.bin")

	outcome, err := newBuiltinDownloader(client).Download(context.Background(), "pub/a.bin", local)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if outcome != (Outcome{Success: true}) {
		t.Errorf("outcome = %+v", outcome)
	}

	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello world" {
		t.Errorf("content = %q", data)
	}
	if srv.FileGETs("pub/a.bin") != 1 {
		t.Errorf("requests = %v", srv.Requests())
	}
}

func TestDownloadSkipsMatchingSize(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		local   string
		skipped bool
	}{
		{"same size", "12345", "abcde", true},
		{"both empty", "", "", true},
		{"size differs", "123456", "abcde", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: tt.remote}})
			local := filepath.Join(t.TempDir(), "f.txt")
			if err := os.WriteFile(local, []byte(tt.local), 0644); err != nil {
				t.Fatal(err)
			}

			outcome, err := newBuiltinDownloader(client).Download(context.Background(), "f.txt", local)
			if err != nil {
				t.Fatalf("Download() error = %v", err)
			}
			if !outcome.Success || outcome.Skipped != tt.skipped {
				t.Errorf("outcome = %+v, want skipped=%v", outcome, tt.skipped)
			}

			gets := srv.FileGETs("f.txt")
			data, _ := os.ReadFile(local)
			if tt.skipped {
				if gets != 0 {
					t.Errorf("skipped download made %d content requests", gets)
				}
				if string(data) != tt.local {
					t.Errorf("skipped file was modified: %q", data)
				}
			} else {
				if gets != 1 {
					t.Errorf("content requests = %d, want 1", gets)
				}
				if string(data) != tt.remote {
					t.Errorf("content = %q, want %q", data, tt.remote)
				}
			}
		})
	}
}

func TestDownloadUnknownSizeTransfers(t *testing.T) {
	client, srv := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: "abc"}})
	srv.OmitContentLength()
	local := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(local, []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}

	outcome, err := newBuiltinDownloader(client).Download(context.Background(), "f.txt", local)
	if err != nil || outcome.Skipped {
		t.Fatalf("Download() = %+v, %v; want a transfer", outcome, err)
	}
	if srv.FileGETs("f.txt") != 1 {
		t.Errorf("requests = %v", srv.Requests())
	}
}

func TestDownloadStatusError(t *testing.T) {
	client, srv := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: "abc"}})
	srv.FailFileGETs()

	outcome, err := newBuiltinDownloader(client).Download(context.Background(), "f.txt", filepath.Join(t.TempDir(), "f.txt"))
	var statusErr *remote.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 500 {
		t.Fatalf("expected 500 StatusError, got %v", err)
	}
	if outcome.Success {
		t.Error("failed download reported success")
	}
}

type fakeStrategy struct {
	name      string
	available bool
	ok        bool
	err       error
	calls     int
}

func (f *fakeStrategy) Name() string    { return f.name }
func (f *fakeStrategy) Available() bool { return f.available }
func (f *fakeStrategy) Fetch(ctx context.Context, rawURL, localPath string) (bool, error) {
	f.calls++
	return f.ok, f.err
}

func TestDownloadUsesFirstAvailableStrategy(t *testing.T) {
	client, _ := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: "abc"}})

	wget := &fakeStrategy{name: "wget"}
	curl := &fakeStrategy{name: "curl", available: true, ok: true}
	builtin := &fakeStrategy{name: "builtin", available: true, ok: true}
	d := NewDownloader(client, WithStrategies(wget, curl, builtin))

	outcome, err := d.Download(context.Background(), "f.txt", filepath.Join(t.TempDir(), "f.txt"))
	if err != nil || !outcome.Success {
		t.Fatalf("Download() = %+v, %v", outcome, err)
	}
	if wget.calls != 0 || curl.calls != 1 || builtin.calls != 0 {
		t.Errorf("calls wget=%d curl=%d builtin=%d", wget.calls, curl.calls, builtin.calls)
	}
}

func TestDownloadToolFailure(t *testing.T) {
	client, _ := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: "abc"}})
	failing := &fakeStrategy{name: "curl", available: true}
	d := NewDownloader(client, WithStrategies(failing))

	outcome, err := d.Download(context.Background(), "f.txt", filepath.Join(t.TempDir(), "f.txt"))
	if err != nil {
		t.Fatalf("tool failure must not be an error, got %v", err)
	}
	if outcome.Success {
		t.Error("expected Success=false")
	}
}

func TestDownloadNoStrategy(t *testing.T) {
	client, _ := newTestServer(t, []remotetest.File{{Path: "f.txt"}})
	d := NewDownloader(client, WithStrategies(&fakeStrategy{name: "wget"}))

	_, err := d.Download(context.Background(), "f.txt", filepath.Join(t.TempDir(), "f.txt"))
	if !errors.Is(err, ErrNoStrategy) {
		t.Errorf("expected ErrNoStrategy, got %v", err)
	}
}

func TestDownloadUnresolvablePath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("needs a removable working directory")
	}
	client, srv := newTestServer(t, []remotetest.File{{Path: "f.txt", Content: "abc"}})

	gone := filepath.Join(t.TempDir(), "gone")
	if err := os.Mkdir(gone, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(gone)
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Getwd(); err == nil {
		t.Skip("working directory still resolves after removal")
	}

	_, err := newBuiltinDownloader(client).Download(context.Background(), "f.txt", "out/f.txt")
	if err == nil {
		t.Fatal("expected error for unresolvable local path")
	}
	if !strings.Contains(err.Error(), "failed to resolve out/f.txt") {
		t.Errorf("error should name the requested path, got %v", err)
	}
	if len(srv.Requests()) != 0 {
		t.Errorf("requests = %v", srv.Requests())
	}
}
