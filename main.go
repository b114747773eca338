// dufs-get - interactive download client for dufs file servers.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rescale/dufs-get/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !errors.Is(err, cli.ErrCannotConnect) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
