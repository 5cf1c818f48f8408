// Command mcp-getweb is the launcher shipped in the npm package. It runs the
// prebuilt binary matching the host from the package bin directory.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/npmship/internal/launcher"
)

const prefix = "mcp-getweb"

func main() {
	self, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: locate launcher: %v\n", prefix, err)
		os.Exit(1)
	}

	d := launcher.NewDispatcher(prefix, launcher.BinDirFor(self))
	outcome := d.Run(context.Background(), os.Args[1:])
	launcher.Exit(outcome, launcher.Raise, os.Exit)
}
