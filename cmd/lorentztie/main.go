package main

import (
	"os"

	"lorentztie/cmd/lorentztie/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
