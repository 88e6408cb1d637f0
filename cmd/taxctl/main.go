package main

import (
	"fmt"
	"os"

	"github.com/noah-isme/backend-pos/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "taxctl:", err)
		os.Exit(1)
	}
}
