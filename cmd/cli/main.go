package main

import (
	"os"

	"github.com/e9g9o9r9/chitai-admin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
