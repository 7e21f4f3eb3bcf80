package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pengdash/schema"
)

var schemaFormat string

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the dataset schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		sch := schema.Penguins()
		switch schemaFormat {
		case "json", "pretty":
			return writeJSON(cmd.OutOrStdout(), sch, schemaFormat)
		case "yaml":
			out, err := yaml.Marshal(sch)
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		return fmt.Errorf("unknown format %q (want json, pretty, yaml)", schemaFormat)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the pengdash config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	schemaCmd.Flags().StringVarP(&schemaFormat, "format", "f", "pretty", "Output format: json, pretty, yaml")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}
