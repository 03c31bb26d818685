package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "medscore",
		Short:         "Medical assessment scoring server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or .env); environment variables override it")

	root.AddCommand(serveCmd(&configFile))
	root.AddCommand(migrateCmd(&configFile))
	root.AddCommand(scoreCmd())
	root.AddCommand(validateCmd())
	return root
}
