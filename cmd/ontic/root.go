// Root command for the ontic CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/ontic/pkg/ontic"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool
	flagDebug     bool
	flagActor     string
)

var rootCmd = &cobra.Command{
	Use:     "ontic",
	Short:   "ontic is a uniform store for typed entities, edges, events, and knowledge",
	Version: ontic.Version,
	Long: `ontic stores six entity families behind one contract: things,
connections, events, knowledge, groups, and auth. Operations dispatch
across configured backends by entity type or identifier prefix.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version and init manage their own setup.
		switch cmd.Name() {
		case "version", "init":
			return nil
		}
		return openApp()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $(CWD)/.ontic)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.ontic-db)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "cli", "actor id recorded on audit events")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(thingCmd)
	rootCmd.AddCommand(connectionCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(groupCmd)
	rootCmd.AddCommand(authCmd)
}
