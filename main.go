package main

import (
	"os"

	"github.com/research-patron/post-analyze/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
