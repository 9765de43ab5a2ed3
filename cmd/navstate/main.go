// Command navstate inspects and exercises navigation state containers:
// it resolves deep links, reads and clears persisted snapshots and runs an
// interactive playground with the devtools inspector attached.
package main

import (
	"os"

	"github.com/go-drift/navstate/cmd/navstate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
