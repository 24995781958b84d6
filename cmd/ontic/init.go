// Init command writes the default configuration.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration directory and a default config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		if err := ensureConfigDir(configDir); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err := ensureDefaultConfigFile(configDir); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
		fmt.Println("initialized", filepath.Join(configDir, configFileExt))
		return nil
	},
}
