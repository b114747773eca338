// Package remotetest provides an in-memory dufs server for tests.
package remotetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// ListingMode selects how the ?json endpoint answers.
type ListingMode int

const (
	// ModeStructured serves a normal {"paths": [...]} body with names.
	ModeStructured ListingMode = iota
	// ModeHrefOnly serves items without "name", only "href".
	ModeHrefOnly
	// ModeMissingPaths serves a JSON object without the "paths" field.
	ModeMissingPaths
	// ModeHTML serves an HTML page, as a server without JSON support would.
	ModeHTML
)

// File is one file of the fake tree. Directories are implied by paths.
type File struct {
	Path    string
	Content string
	Symlink bool // reported as SymlinkFile
}

// Server is an httptest server speaking the dufs listing protocol.
type Server struct {
	*httptest.Server

	mu                sync.Mutex
	mode              ListingMode
	symlinkDirs       map[string]bool
	omitContentLength bool
	failFileGET       bool
	files             []File
	requests          []string
}

// NewServer starts a server serving files, closed on test cleanup.
// Directory listings follow the order in which paths first appear in files.
func NewServer(t testing.TB, files []File) *Server {
	t.Helper()
	s := &Server{
		files:       files,
		symlinkDirs: map[string]bool{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetMode changes how the ?json endpoint answers.
func (s *Server) SetMode(mode ListingMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// MarkSymlinkDir reports the directory dir as SymlinkDir.
func (s *Server) MarkSymlinkDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symlinkDirs[dir] = true
}

// OmitContentLength makes HEAD responses carry no Content-Length.
func (s *Server) OmitContentLength() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.omitContentLength = true
}

// FailFileGETs makes raw file GETs answer 500.
func (s *Server) FailFileGETs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFileGET = true
}

// Requests returns "METHOD /path?query" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// FileGETs counts raw file downloads of remotePath.
func (s *Server) FileGETs(remotePath string) int {
	n := 0
	for _, r := range s.Requests() {
		if r == "GET /"+remotePath {
			n++
		}
	}
	return n
}

// SetContent replaces the content of an existing file.
func (s *Server) SetContent(remotePath, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.files {
		if s.files[i].Path == remotePath {
			s.files[i].Content = content
		}
	}
}

type child struct {
	name    string
	isDir   bool
	symlink bool
}

// children lists the direct children of dir, in first-seen order.
func (s *Server) children(dir string) ([]child, bool) {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	var out []child
	seen := map[string]bool{}
	found := dir == ""
	for _, f := range s.files {
		if !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		found = true
		rest := strings.TrimPrefix(f.Path, prefix)
		name, _, nested := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		if nested {
			out = append(out, child{name: name, isDir: true, symlink: s.symlinkDirs[prefix+name]})
		} else {
			out = append(out, child{name: name, symlink: f.Symlink})
		}
	}
	return out, found
}

func (s *Server) file(remotePath string) (File, bool) {
	for _, f := range s.files {
		if f.Path == remotePath {
			return f, true
		}
	}
	return File{}, false
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqLine := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		reqLine += "?" + r.URL.RawQuery
	}
	s.requests = append(s.requests, reqLine)

	p := strings.Trim(r.URL.Path, "/")

	switch r.URL.RawQuery {
	case "json":
		s.serveStructured(w, p)
		return
	case "simple":
		s.serveSimple(w, p)
		return
	}

	f, ok := s.file(p)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodGet && s.failFileGET {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	if !(r.Method == http.MethodHead && s.omitContentLength) {
		w.Header().Set("Content-Length", strconv.Itoa(len(f.Content)))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(f.Content))
	}
}

func (s *Server) serveStructured(w http.ResponseWriter, dir string) {
	kids, ok := s.children(dir)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch s.mode {
	case ModeMissingPaths:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"href":"/` + dir + `","kind":"Index"}`))
		return
	case ModeHTML:
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<!DOCTYPE html><html><body>index</body></html>"))
		return
	}

	items := make([]map[string]string, 0, len(kids))
	for _, k := range kids {
		pathType := "File"
		if k.isDir {
			pathType = "Dir"
		}
		if k.symlink {
			pathType = "Symlink" + pathType
		}
		href := "/" + strings.TrimPrefix(dir+"/"+k.name, "/")
		if k.isDir {
			href += "/"
		}
		item := map[string]string{"path_type": pathType, "href": href}
		if s.mode != ModeHrefOnly {
			item["name"] = k.name
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"href":  "/" + dir,
		"kind":  "Index",
		"paths": items,
	})
}

func (s *Server) serveSimple(w http.ResponseWriter, dir string) {
	kids, ok := s.children(dir)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	var b strings.Builder
	for _, k := range kids {
		b.WriteString(k.name)
		if k.isDir {
			b.WriteString("/")
		}
		b.WriteString("\n")
	}
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, b.String())
}
