package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/classmedia/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "inspect the loaded configuration",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file in use",
		Run: func(cmd *cobra.Command, args []string) {
			file := ""
			if v := configs.GetViper(); v != nil {
				file = v.ConfigFileUsed()
			}

			if file == "" {
				file = "(none, defaults and CLASSMEDIA_* env only)"
			}

			fmt.Fprintln(cmd.OutOrStdout(), file)
		},
	}

	configShowCmd = &cobra.Command{
		Use:     "show",
		Aliases: []string{"debug"},
		Short:   "print the effective config as JSON, secrets omitted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := configs.GetViper(); debug && v != nil {
				v.Debug()
			}

			b, err := sonic.ConfigStd.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "check rule tags and cross-field constraints, exit non-zero on failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.GetConfig().Validate(); err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "config ok")

			return nil
		},
	}
)

func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
