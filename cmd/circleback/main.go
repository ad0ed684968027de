package main

import (
	"os"

	"github.com/okeefe/circleback/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
