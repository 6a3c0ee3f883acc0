package main

import (
	"os"

	"github.com/kirillkom/claim-assessor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
