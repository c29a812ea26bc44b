package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/tilewm/internal/config"
)

func loadResult() (*config.LoadResult, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return nil, err
		}
	}
	return config.LoadFromPath(path)
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Validate, print or explain the configuration",
	}
	configCmd.AddCommand(
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the configuration file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := loadResult()
				if err != nil {
					return err
				}
				file := res.File
				if file == "" {
					file = "(defaults)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", file)
				return nil
			},
		},
		&cobra.Command{
			Use:   "print",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				res, err := loadResult()
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(res.Config)
			},
		},
		&cobra.Command{
			Use:   "explain <path>",
			Short: "Show an effective value and where it was set",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := loadResult()
				if err != nil {
					return err
				}
				value, src, err := config.Explain(res, args[0])
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(value)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s (%s)\n%s", args[0], src.Describe(), out)
				return nil
			},
		},
	)
	return configCmd
}
