package main

import (
	"os"

	"github.com/hnrobert/lumprov/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
