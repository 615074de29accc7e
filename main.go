package main

import (
	"os"

	"github.com/loupedev/loupe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
