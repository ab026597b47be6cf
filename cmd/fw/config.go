package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if save {
				if err := cfg.Save(dataDir()); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "[fw] wrote %s/config.toml\n", dataDir())
			}
			return cfg.Encode(cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "Also write it to config.toml in the data dir")
	return cmd
}
