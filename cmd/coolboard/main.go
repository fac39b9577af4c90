// cmd/coolboard/main.go
package main

import (
	"os"

	"github.com/tamzrod/coolboard-agent/cmd/coolboard/commands"
)

// set at build time
var (
	version = "dev"
	commit  = "none"
)

func main() {
	commands.SetVersionInfo(version, commit)

	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
