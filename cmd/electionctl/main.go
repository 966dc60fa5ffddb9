// Command electionctl runs maintenance tasks against the election database.
package main

import (
	"context"
	"fmt"
	"os"

	"electionadmin/internal/adapters/cli"
)

func main() {
	if err := cli.New().Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
