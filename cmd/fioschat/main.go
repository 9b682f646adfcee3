// Package main provides the entry point for the fioschat CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/iyunix/fios-chat/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
