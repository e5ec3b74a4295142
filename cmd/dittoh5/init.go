package main

import (
	"fmt"

	"github.com/marmos91/dittoh5/pkg/config"
	"github.com/spf13/cobra"
)

var initOpts struct {
	force bool
	path  string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := initOpts.path
		if path == "" {
			var err error
			if path, err = config.InitConfig(initOpts.force); err != nil {
				return err
			}
		} else if err := config.InitConfigToPath(path, initOpts.force); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initOpts.force, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().StringVar(&initOpts.path, "path", "", "Write to this path instead of the default location")
}
