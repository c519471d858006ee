package main

import (
	"os"

	"github.com/autoreveal/autoreveal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
