// Package main provides the ontic CLI: a uniform command surface over the
// entity store, routed across one or more storage backends.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
