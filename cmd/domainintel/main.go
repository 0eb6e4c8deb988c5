package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	root := &cobra.Command{
		Use:          "domainintel",
		Short:        "Business intelligence reports and sales training from a company domain",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&path, "config", "c", path, "path to the YAML config file")

	configPath := func() string { return path }
	root.AddCommand(
		newServeCmd(configPath),
		newWorkerCmd(configPath),
		newAnalyzeCmd(configPath),
		newMigrateCmd(configPath),
	)
	return root
}
