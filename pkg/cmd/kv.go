package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/classmedia/pkg/configs"
	kv "github.com/yeisme/classmedia/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [prefix]",
		Short: "list keys in the configured kv store, e.g. preview claims",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := kv.NewKVClient(cmd.Context(), &configs.GetConfig().KV)
			if err != nil {
				return err
			}
			defer client.Close()

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			keys, err := client.Keys(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}

			return nil
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvKeysCmd)
}
