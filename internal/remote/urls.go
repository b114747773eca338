package remote

import (
	"errors"
	"net/url"
	"strings"
)

// ErrEmptyURL is returned by Normalize for blank input.
var ErrEmptyURL = errors.New("server URL cannot be empty")

// ServerBase is a normalized server URL: scheme + host + optional port, with
// no trailing slash. Build one with Normalize.
type ServerBase string

// Normalize trims whitespace and trailing slashes from raw and prepends
// http:// when no http:// or https:// scheme is present.
func Normalize(raw string) (ServerBase, error) {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return "", ErrEmptyURL
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	return ServerBase(s), nil
}

// String returns the base URL.
func (b ServerBase) String() string {
	return string(b)
}

// DirURL returns the directory-style URL for remotePath with the given query
// marker: base/path/?query. The root directory is base/?query.
func (b ServerBase) DirURL(remotePath, query string) string {
	escaped := escapePath(remotePath)
	if escaped == "" {
		return string(b) + "/?" + query
	}
	return string(b) + "/" + escaped + "/?" + query
}

// FileURL returns the raw file URL for remotePath: base/path, no trailing slash.
func (b ServerBase) FileURL(remotePath string) string {
	return string(b) + "/" + escapePath(remotePath)
}

// escapePath percent-escapes each segment of a remote path, keeping the /
// separators. Unreserved names pass through unchanged.
func escapePath(p string) string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return ""
	}
	parts := strings.Split(trimmed, "/")
	for i, seg := range parts {
		parts[i] = url.PathEscape(seg)
	}
	return strings.Join(parts, "/")
}

// JoinPath appends name to the remote directory parent.
func JoinPath(parent, name string) string {
	parent = strings.Trim(parent, "/")
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// ParentPath drops the last segment of p. The parent of root (or of a
// top-level entry) is root.
func ParentPath(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// BaseName returns the last segment of p, or "" for root.
func BaseName(p string) string {
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// isSpecialName reports whether name must never appear as a directory entry.
func isSpecialName(name string) bool {
	return name == "" || name == "." || name == ".."
}
