package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	configdomain "kilometers.ai/shop/internal/core/domain/config"
	configinfra "kilometers.ai/shop/internal/infrastructure/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and where each value comes from",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot(cmd)
			if err != nil {
				return err
			}

			t := newTable("KEY", "VALUE", "SOURCE")
			for _, key := range configinfra.Keys() {
				e, ok := snap[key]
				if !ok {
					continue
				}
				value := fmt.Sprint(e.Value)
				if key == configdomain.KeyRedisPassword && value != "" {
					value = "****"
				}
				source := e.Source
				if e.SourcePath != "" {
					source = fmt.Sprintf("%s (%s)", e.Source, e.SourcePath)
				}
				t.Row(key, value, source)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Save a value to the config file",
		Example: `  shop config set verb_mode tunnel
  shop config set credential_store redis`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage := configinfra.NewFileStorage(a.configPath)
			if err := storage.SetValue(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", args[0], storage.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configinfra.NewFileStorage(a.configPath).Path())
		},
	})

	return cmd
}
