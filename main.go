package main

import (
	"os"

	"github.com/devkitlanka/devkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
