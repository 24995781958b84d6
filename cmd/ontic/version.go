// Version command for the ontic CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/ontic"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ontic version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("ontic", ontic.Version)
	},
}
