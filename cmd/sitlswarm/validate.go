package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sitlswarm/internal/config"
	"sitlswarm/internal/swarm/resources"
)

var (
	validateConfigPath  string
	validateSchemaPath  string
	validateListBundled bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a launcher configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateListBundled {
			for _, name := range resources.Names() {
				fmt.Fprintf(cmd.OutOrStdout(), "embedded://%s\n", name)
			}
			return nil
		}

		cfg, err := config.Load(validateConfigPath, validateSchemaPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "configuration valid: %d drone(s), executable %s\n",
			len(cfg.Placements()), cfg.Executable)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "config/launcher.yaml", "Path to launcher configuration YAML")
	validateCmd.Flags().StringVar(&validateSchemaPath, "schema", "schemas/launcher.cue", "Path to CUE schema file")
	validateCmd.Flags().BoolVar(&validateListBundled, "list-embedded", false, "List bundled parameter files and exit")
}
