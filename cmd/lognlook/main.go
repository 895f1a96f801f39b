/*
Package main is the entry point for the lognlook server and CLI.

Usage:

	lognlook [command]

Available Commands:

	serve       Run the HTTP API server
	index       Create or delete document-store indexes
	ingest      Enrich and store log lines for a project
	search      Search a project's logs
	project     Manage projects
	version     Show version information
*/
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lognlook/lognlook/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
