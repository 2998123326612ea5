package main

import (
	"os"

	"github.com/capseg/capseg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
