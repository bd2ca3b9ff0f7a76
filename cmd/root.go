// Package cmd holds the cybersh command line interface.
package cmd

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cybersh/core/config"
	"cybersh/core/shell"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "cybersh",
	Short: "An interactive shell with pipelines, redirection and job control",
	Long: `cybersh is an interactive command shell. It runs external
commands through pipelines with redirection, manages background and
stopped jobs, expands aliases and shell variables, and keeps history,
aliases and variables across sessions.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		cfg, err := config.Load(fs, configPath)
		if err != nil {
			return err
		}
		sh, err := shell.New(cfg, fs)
		if err != nil {
			return err
		}
		return sh.Run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the configuration file")
}

// Execute runs the root command, exiting nonzero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
