package main

import (
	"os"

	"github.com/codefactory/codefactory/internal/commands"
)

func main() {
	if err := commands.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
