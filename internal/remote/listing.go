package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rescale/dufs-get/internal/constants"
)

// Entry is one item of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// structuredListing is the ?json response body. Paths is a pointer so that a
// missing field can be told apart from an empty directory.
type structuredListing struct {
	Paths *[]structuredItem `json:"paths"`
}

// structuredItem is one element of "paths". path_type is one of Dir,
// SymlinkDir, File or SymlinkFile.
type structuredItem struct {
	Name     string `json:"name"`
	Href     string `json:"href"`
	PathType string `json:"path_type"`
}

// List returns the entries of the remote directory remotePath ("" is root).
//
// The structured ?json format is tried first. Only a malformed structured
// body falls back to the line-oriented ?simple format; network failures and
// non-2xx statuses are returned as-is.
func (c *Client) List(ctx context.Context, remotePath string) ([]Entry, error) {
	entries, err := c.listStructured(ctx, remotePath)
	if err == nil {
		return entries, nil
	}
	if !errors.Is(err, ErrMalformedListing) {
		return nil, err
	}

	c.logger.Debug().
		Err(err).
		Str("path", remotePath).
		Msg("Structured listing unusable, falling back to simple listing")

	return c.listSimple(ctx, remotePath)
}

func (c *Client) listStructured(ctx context.Context, remotePath string) ([]Entry, error) {
	body, err := c.fetchListing(ctx, c.base.DirURL(remotePath, constants.StructuredListingQuery))
	if err != nil {
		return nil, err
	}
	return parseStructured(body)
}

func (c *Client) listSimple(ctx context.Context, remotePath string) ([]Entry, error) {
	body, err := c.fetchListing(ctx, c.base.DirURL(remotePath, constants.SimpleListingQuery))
	if err != nil {
		return nil, err
	}
	return parseSimple(body), nil
}

// fetchListing GETs a listing URL under the listing timeout and returns the body.
func (c *Client) fetchListing(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ListingTimeout)
	defer cancel()

	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing %s: %w", rawURL, err)
	}
	return body, nil
}

// parseStructured decodes a ?json body. Any decoding problem is reported as
// ErrMalformedListing.
func parseStructured(body []byte) ([]Entry, error) {
	var listing structuredListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	if listing.Paths == nil {
		return nil, fmt.Errorf("%w: missing \"paths\" field", ErrMalformedListing)
	}

	entries := make([]Entry, 0, len(*listing.Paths))
	for _, item := range *listing.Paths {
		name := item.Name
		if name == "" && item.Href != "" {
			name = nameFromHref(item.Href)
		}
		if isSpecialName(name) {
			continue
		}
		entries = append(entries, Entry{
			Name: name,
			// Dir and SymlinkDir; File and SymlinkFile are files.
			IsDir: strings.HasSuffix(item.PathType, "Dir"),
		})
	}
	return entries, nil
}

// nameFromHref returns the last segment of an href, unescaped when possible.
func nameFromHref(href string) string {
	href = strings.TrimRight(href, "/")
	if href == "" {
		return ""
	}
	name := href[strings.LastIndex(href, "/")+1:]
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}

// parseSimple decodes a ?simple body: one name per line, directories suffixed
// with "/".
func parseSimple(body []byte) []Entry {
	lines := strings.Split(string(body), "\n")
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name := strings.TrimRight(line, "/")
		if isSpecialName(name) {
			continue
		}
		entries = append(entries, Entry{
			Name:  name,
			IsDir: strings.HasSuffix(line, "/"),
		})
	}
	return entries
}
