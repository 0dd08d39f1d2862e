// Command recipe-admin runs operator actions against the recipe database.
package main

import (
	"fmt"
	"os"
)

// Version information, set at build time using ldflags.
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

func main() {
	if err := NewCLI(openBackend).RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
