package transfer

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rescale/dufs-get/internal/logging"
	"github.com/rescale/dufs-get/internal/progress"
	"github.com/rescale/dufs-get/internal/remote"
	"github.com/rescale/dufs-get/internal/remote/remotetest"
)

// fakeTool writes a shell script that records its arguments to argsFile and
// exits with code.
func fakeTool(t *testing.T, code int) (LookPathFunc, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done > " + argsFile + "\nexit " + strconv.Itoa(code) + "\n"
	bin := filepath.Join(dir, "tool")
	if err := os.WriteFile(bin, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return func(string) (string, error) { return bin, nil }, argsFile
}

func readArgs(t *testing.T, argsFile string) []string {
	t.Helper()
	data, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestCommandStrategyArguments(t *testing.T) {
	tests := []struct {
		name     string
		build    func(LookPathFunc) Strategy
		expected []string
	}{
		{
			name:     "wget",
			build:    func(lp LookPathFunc) Strategy { return NewWgetStrategy(lp, &bytes.Buffer{}, &bytes.Buffer{}) },
			expected: []string{"--show-progress", "-O", "/tmp/out.bin", "http://h/a.bin"},
		},
		{
			name:     "curl",
			build:    func(lp LookPathFunc) Strategy { return NewCurlStrategy(lp, &bytes.Buffer{}, &bytes.Buffer{}) },
			expected: []string{"-#", "-f", "-L", "-o", "/tmp/out.bin", "http://h/a.bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookPath, argsFile := fakeTool(t, 0)
			s := tt.build(lookPath)

			if s.Name() != tt.name {
				t.Errorf("Name() = %q", s.Name())
			}
			ok, err := s.Fetch(context.Background(), "http://h/a.bin", "/tmp/out.bin")
			if err != nil || !ok {
				t.Fatalf("Fetch() = %v, %v", ok, err)
			}
			if got := readArgs(t, argsFile); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("args = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCommandStrategyNonZeroExit(t *testing.T) {
	lookPath, _ := fakeTool(t, 8)
	s := NewWgetStrategy(lookPath, &bytes.Buffer{}, &bytes.Buffer{})

	ok, err := s.Fetch(context.Background(), "http://h/a", filepath.Join(t.TempDir(), "a"))
	if err != nil {
		t.Fatalf("non-zero exit must not be an error, got %v", err)
	}
	if ok {
		t.Error("expected ok=false")
	}
}

func TestCommandStrategyAvailability(t *testing.T) {
	missing := func(string) (string, error) { return "", exec.ErrNotFound }
	s := NewCurlStrategy(missing, nil, nil)

	if s.Available() {
		t.Error("strategy without binary reported available")
	}
	if _, err := s.Fetch(context.Background(), "http://h/a", "a"); !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCommandStrategyStartFailure(t *testing.T) {
	notExecutable := func(string) (string, error) { return filepath.Join(t.TempDir(), "nope"), nil }
	s := NewWgetStrategy(notExecutable, &bytes.Buffer{}, &bytes.Buffer{})

	ok, err := s.Fetch(context.Background(), "http://h/a", "a")
	if err == nil || ok {
		t.Errorf("Fetch() = %v, %v; want start error", ok, err)
	}
}

func TestBuiltinStrategyIdleTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := remote.NewClient(remote.ServerBase(srv.URL), srv.Client(), nil)
	s := NewBuiltinStrategy(client, func() progress.Reporter { return progress.NewNoOpProgress() }, nil).(*builtinStrategy)
	s.idleTimeout = 100 * time.Millisecond

	start := time.Now()
	ok, err := s.Fetch(context.Background(), srv.URL+"/f", filepath.Join(t.TempDir(), "f"))
	if !errors.Is(err, ErrIdleTimeout) {
		t.Fatalf("expected ErrIdleTimeout, got %v", err)
	}
	if ok {
		t.Error("stalled transfer reported ok")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("idle timeout took %s", elapsed)
	}
}

func TestBuiltinStrategyCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := remote.NewClient(remote.ServerBase(srv.URL), srv.Client(), nil)
	s := NewBuiltinStrategy(client, func() progress.Reporter { return progress.NewNoOpProgress() }, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := s.Fetch(ctx, srv.URL+"/f", filepath.Join(t.TempDir(), "f"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBuiltinStrategyLogsSize(t *testing.T) {
	logging.SetGlobalLevel(zerolog.DebugLevel)
	defer logging.SetGlobalLevel(zerolog.WarnLevel)

	client, _ := newTestServer(t, []remotetest.File{{Path: "big.bin", Content: strings.Repeat("x", 2048)}})
	var console bytes.Buffer
	logger := logging.NewLogger(logging.Options{Console: &console})
	s := NewBuiltinStrategy(client, func() progress.Reporter { return progress.NewNoOpProgress() }, logger)

	ok, err := s.Fetch(context.Background(), client.Base().FileURL("big.bin"), filepath.Join(t.TempDir(), "big.bin"))
	if err != nil || !ok {
		t.Fatalf("Fetch() = %v, %v", ok, err)
	}
	if !strings.Contains(console.String(), "Transfer complete") || !strings.Contains(console.String(), "2.0 KiB") {
		t.Errorf("log = %q", console.String())
	}
}

func TestDefaultStrategiesOrder(t *testing.T) {
	strategies := DefaultStrategies(remote.NewClient("http://h", nil, nil), nil)

	var names []string
	for _, s := range strategies {
		names = append(names, s.Name())
	}
	if !reflect.DeepEqual(names, []string{"wget", "curl", "builtin"}) {
		t.Errorf("strategy order = %v", names)
	}
	if !strategies[2].Available() {
		t.Error("built-in transfer must always be available")
	}
}
