// Package validation checks names received from the server before they are
// turned into local paths.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateFilename checks a single directory entry name used as a local file
// name. The name must be non-empty, free of NUL bytes, '/' and the OS path
// separator,
// and must not be "." or "..". Names like "data..v2.csv" are fine.
func ValidateFilename(filename string) error {
	switch {
	case filename == "":
		return fmt.Errorf("filename cannot be empty")
	case strings.ContainsRune(filename, 0):
		return fmt.Errorf("filename contains null byte: %q", filename)
	case strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, os.PathSeparator):
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	case filename == "." || filename == "..":
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// LocalPath joins the slash-separated relative path rel onto baseDir and
// returns the result, or an error when it would land outside baseDir.
//
//	LocalPath("/tmp/docs", "img/logo.png")   // "/tmp/docs/img/logo.png"
//	LocalPath("/tmp/docs", "../../etc/passwd") // error
func LocalPath(baseDir, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("relative path cannot be empty")
	}
	if strings.ContainsRune(rel, 0) {
		return "", fmt.Errorf("path contains null byte: %q", rel)
	}
	joined := filepath.Join(baseDir, filepath.FromSlash(rel))
	if err := ValidatePathInDirectory(joined, baseDir); err != nil {
		return "", err
	}
	return joined, nil
}

// ValidatePathInDirectory reports an error unless path, resolved against
// baseDir when relative, is baseDir itself or lies below it.
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(base, resolved)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}
	return nil
}
