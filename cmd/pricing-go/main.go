// Command pricing-go is the CLI entry point for the pricing client.
package main

import (
	"fmt"
	"os"

	"github.com/bidfx-oss/pricing-go/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
