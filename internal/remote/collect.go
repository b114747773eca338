package remote

import (
	"context"
)

// pending is a not-yet-visited node of the remote tree.
type pending struct {
	path  string
	isDir bool
}

// Collect walks the remote subtree rooted at remotePath and returns the paths
// of every file below it, directories excluded.
//
// The order is depth-first pre-order with the server's order inside each
// directory: for A/{x.txt, B/{y.txt}} the result is [A/x.txt, A/B/y.txt].
// The walk uses an explicit stack, so deep trees do not grow the call stack.
// There is no cycle detection; a server-side symlink loop never terminates.
func (c *Client) Collect(ctx context.Context, remotePath string) ([]string, error) {
	var files []string
	stack := []pending{{path: remotePath, isDir: true}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.isDir {
			files = append(files, node.path)
			continue
		}

		c.logger.Debug().Str("path", node.path).Msg("Listing")
		entries, err := c.List(ctx, node.path)
		if err != nil {
			return nil, err
		}

		// Push in reverse so the first entry is visited first.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if isSpecialName(e.Name) {
				continue
			}
			stack = append(stack, pending{path: JoinPath(node.path, e.Name), isDir: e.IsDir})
		}
	}

	return files, nil
}
