// CodePhoenix - GitHub Leaked Data Scanner
//
// CodePhoenix searches public GitHub code for leaked values such as emails,
// API keys, cloud credentials and passwords, and reports where they appear.
package main

import (
	"os"

	"github.com/ccollicutt/codephoenix/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
