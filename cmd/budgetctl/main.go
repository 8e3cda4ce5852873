// Command budgetctl inspects plans and manages reservations against the
// configured backend without going through the HTTP API.
package main

import (
	"os"

	"budgetcare/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
