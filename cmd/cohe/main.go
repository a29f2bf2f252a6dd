package main

import (
	"os"

	"github.com/imbios/cohe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
