// Command sheetctl administers the spreadsheet-backed tables.
package main

import (
	"os"

	"github.com/JonMunkholm/sheetdocs/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
