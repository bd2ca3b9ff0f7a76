package cmd

import (
	"log"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cybersh/core/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(cmd.ErrOrStderr(), "", 0)
		_, err := config.Initialize(afero.NewOsFs(), configPath, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
