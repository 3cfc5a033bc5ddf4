package main

import (
	"os"

	"github.com/flacial/chattmpl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
