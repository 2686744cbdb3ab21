package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a default .cssbuild.yaml config file",
	Long:  `Create a .cssbuild.yaml configuration file in the current directory with the default build settings.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		if _, err := os.Stat(".cssbuild.yaml"); err == nil && !force {
			return fmt.Errorf(".cssbuild.yaml already exists (use --force to overwrite)")
		}

		if err := os.WriteFile(".cssbuild.yaml", []byte(defaultConfig), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Created .cssbuild.yaml")
		return nil
	},
}

const defaultConfig = `# cssbuild configuration
# Docs: https://github.com/yacobolo/cssbuild

# Shared settings
verbose: false
quiet: false

# Build settings
build:
  source: pascal-css.css
  dist-dir: dist
  name: PascalCSS v3.2
  browsers:
    - "last 2 versions"
    - "> 1%"
    - "not dead"
    - "Chrome >= 105"
    - "Safari >= 16"
    - "Firefox >= 110"
  sourcemap: true
  gzip: estimate           # estimate | measure
  strict: false            # fail on prefixer warnings
`

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite existing config file")
}
