package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

// configPath is the optional TOML overlay shared by every subcommand.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "mosaic",
		Short:         "Product composite gateway and its backing services",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("MOSAIC_CONFIG"), "TOML config file (env vars still win)")

	rootCmd.AddCommand(compositeCmd())
	rootCmd.AddCommand(productCmd())
	rootCmd.AddCommand(recommendationCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(allCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
