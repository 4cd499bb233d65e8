// Package main implements the dsproj CLI for managing the data sources of a
// dataset project.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fyrsmithlabs/dsproj/internal/logging"
)

// version information
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// printError writes err with any URL credentials masked. Errors from git
// transports can carry the remote URL as given by the user.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %s\n", logging.MaskURLCredentials(err.Error()))
}
